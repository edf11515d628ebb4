package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shiling-next/internal/constants"
	"github.com/shiling-next/internal/models"
)

func TestSweepMarksExpiredGiftsOnce(t *testing.T) {
	svc := newTestServices(t, nil)
	sender := createTestUser(t, svc.db, "赠礼人", "openid-sender")
	rose := createTestProduct(t, svc.db, models.Product{Name: "玫瑰"})
	expired, _ := paidGiftOrder(t, svc, "EXP001", sender.ID, constants.GiftTypeSingle, time.Now().Add(-50*time.Hour), rose)
	fresh, _ := paidGiftOrder(t, svc, "EXP002", sender.ID, constants.GiftTypeSingle, time.Now().Add(-time.Hour), rose)

	marked, err := svc.expiry.Sweep(context.Background())
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if marked != 1 {
		t.Fatalf("expected 1 expired gift, got %d", marked)
	}
	if got := reloadOrder(t, svc.db, expired.ID); got.GiftExpiredAt == nil || got.Status != constants.OrderStatusPaid {
		t.Fatalf("expired gift should be marked without status change: %+v", got)
	}
	if got := reloadOrder(t, svc.db, fresh.ID); got.GiftExpiredAt != nil {
		t.Fatalf("fresh gift must not be marked")
	}

	var staged int64
	svc.db.Model(&models.NotificationOutbox{}).Where("scene = ? AND biz_id = ?", constants.NotificationSceneGiftExpired, "EXP001").Count(&staged)
	if staged != 1 {
		t.Fatalf("sender should get one expiry notification, got %d", staged)
	}

	marked, err = svc.expiry.Sweep(context.Background())
	if err != nil || marked != 0 {
		t.Fatalf("second sweep should be a no-op: %d %v", marked, err)
	}
}

func TestSweepSkipsClaimedGifts(t *testing.T) {
	svc := newTestServices(t, nil)
	sender := createTestUser(t, svc.db, "赠礼人", "")
	receiver := createTestUser(t, svc.db, "收礼人", "")
	rose := createTestProduct(t, svc.db, models.Product{Name: "玫瑰"})
	paidGiftOrder(t, svc, "EXP003", sender.ID, constants.GiftTypeSingle, time.Now().Add(-47*time.Hour), rose)
	if _, err := svc.gifts.Claim(context.Background(), GiftClaimInput{OrderNo: "EXP003", ClaimantUserID: receiver.ID, Address: testAddress()}); err != nil {
		t.Fatalf("claim failed: %v", err)
	}

	svc.expiry.now = func() time.Time { return time.Now().Add(10 * time.Hour) }
	marked, err := svc.expiry.Sweep(context.Background())
	if err != nil || marked != 0 {
		t.Fatalf("claimed gifts never expire: %d %v", marked, err)
	}

	svc.gifts.now = func() time.Time { return time.Now().Add(10 * time.Hour) }
	other := createTestUser(t, svc.db, "迟到的人", "")
	if _, err := svc.gifts.Claim(context.Background(), GiftClaimInput{OrderNo: "EXP003", ClaimantUserID: other.ID, Address: testAddress()}); !errors.Is(err, ErrGiftAlreadyClaimed) {
		t.Fatalf("claimed gift should report already claimed, got %v", err)
	}
}
