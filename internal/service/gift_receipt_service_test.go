package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shiling-next/internal/constants"
	"github.com/shiling-next/internal/models"
)

func paidGiftOrder(t *testing.T, svc *testServices, orderNo string, senderID uint, giftType int, paidAt time.Time, products ...*models.Product) (*models.Order, []models.OrderItem) {
	t.Helper()
	quantities := make([]int, len(products))
	for i := range quantities {
		quantities[i] = 1
	}
	return createTestOrder(t, svc.db, orderNo, senderID, products, quantities,
		withGift(giftType),
		withStatus(constants.OrderStatusPaid, &paidAt),
	)
}

func TestClaimSingleGiftClaimsAllItems(t *testing.T) {
	svc := newTestServices(t, nil)
	sender := createTestUser(t, svc.db, "赠礼人", "openid-sender")
	receiver := createTestUser(t, svc.db, "小李", "openid-receiver")
	rose := createTestProduct(t, svc.db, models.Product{Name: "玫瑰"})
	tulip := createTestProduct(t, svc.db, models.Product{
		Name:             "郁金香月卡",
		IsSubscription:   true,
		MaxDeliveries:    2,
		DeliveryType:     constants.DeliveryTypeInterval,
		DeliveryInterval: 30,
	})
	order, items := paidGiftOrder(t, svc, "GF0001", sender.ID, constants.GiftTypeSingle, time.Now().Add(-time.Hour), rose, tulip)
	grantTestPermission(t, svc.db, sender.ID, "tpl-gift", 1)

	result, err := svc.gifts.Claim(context.Background(), GiftClaimInput{
		OrderNo:        "GF0001",
		ClaimantUserID: receiver.ID,
		Address:        testAddress(),
	})
	if err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	if len(result.Items) != 2 {
		t.Fatalf("single gift should claim every item, got %d", len(result.Items))
	}
	if reloaded := reloadOrder(t, svc.db, order.ID); reloaded.Status != constants.OrderStatusGifted {
		t.Fatalf("fully claimed order should be gifted, got %d", reloaded.Status)
	}
	for _, item := range items {
		got := reloadItem(t, svc.db, item.ID)
		if got.GiftStatus != constants.GiftStatusClaimed || got.ReceiverID == nil || *got.ReceiverID != receiver.ID {
			t.Fatalf("item should be claimed by receiver: %+v", got)
		}
	}
	plans := listPlans(t, svc.db, order.ID)
	if len(plans) != 3 {
		t.Fatalf("expected 1 + 2 plans, got %d", len(plans))
	}
	for _, plan := range plans {
		if plan.UserID != receiver.ID || plan.ReceiverName != "李四" {
			t.Fatalf("plans should ship to the claimant: %+v", plan)
		}
	}

	var relations int64
	svc.db.Model(&models.UserRelation{}).Count(&relations)
	if relations != 2 {
		t.Fatalf("expected mutual relation rows, got %d", relations)
	}
	var addresses []models.UserAddress
	svc.db.Where("user_id = ?", receiver.ID).Find(&addresses)
	if len(addresses) != 1 || !addresses[0].IsDefault {
		t.Fatalf("claim address should become default: %+v", addresses)
	}
	if svc.transport.count() != 1 || svc.transport.sent[0].ToUser != "openid-sender" {
		t.Fatalf("sender should be notified once: %+v", svc.transport.sent)
	}
	if got := svc.transport.sent[0].Data["name1"]; got != "小李" {
		t.Fatalf("receiver name should come from profile: %q", got)
	}
}

func TestClaimSingleGiftRejectsSecondClaimant(t *testing.T) {
	svc := newTestServices(t, nil)
	sender := createTestUser(t, svc.db, "赠礼人", "")
	first := createTestUser(t, svc.db, "甲", "")
	second := createTestUser(t, svc.db, "乙", "")
	rose := createTestProduct(t, svc.db, models.Product{Name: "玫瑰"})
	paidGiftOrder(t, svc, "GF0002", sender.ID, constants.GiftTypeSingle, time.Now().Add(-time.Hour), rose)

	if _, err := svc.gifts.Claim(context.Background(), GiftClaimInput{OrderNo: "GF0002", ClaimantUserID: first.ID, Address: testAddress()}); err != nil {
		t.Fatalf("first claim failed: %v", err)
	}
	_, err := svc.gifts.Claim(context.Background(), GiftClaimInput{OrderNo: "GF0002", ClaimantUserID: second.ID, Address: testAddress()})
	if !errors.Is(err, ErrGiftAlreadyClaimed) || err.Error() != "礼物已被领取" {
		t.Fatalf("expected 礼物已被领取, got %v", err)
	}
	_, err = svc.gifts.Claim(context.Background(), GiftClaimInput{OrderNo: "GF0002", ClaimantUserID: first.ID, Address: testAddress()})
	if !errors.Is(err, ErrGiftAlreadyReceived) || err.Error() != "您已经领取过礼物了" {
		t.Fatalf("expected 您已经领取过礼物了, got %v", err)
	}
}

func TestClaimMultiGiftOneItemPerClaimant(t *testing.T) {
	svc := newTestServices(t, nil)
	sender := createTestUser(t, svc.db, "赠礼人", "")
	first := createTestUser(t, svc.db, "甲", "")
	second := createTestUser(t, svc.db, "乙", "")
	third := createTestUser(t, svc.db, "丙", "")
	rose := createTestProduct(t, svc.db, models.Product{Name: "玫瑰"})
	lily := createTestProduct(t, svc.db, models.Product{Name: "百合"})
	order, items := paidGiftOrder(t, svc, "GF0003", sender.ID, constants.GiftTypeMulti, time.Now().Add(-time.Hour), rose, lily)

	target := items[1].ID
	result, err := svc.gifts.Claim(context.Background(), GiftClaimInput{OrderNo: "GF0003", ClaimantUserID: first.ID, TargetItemID: &target, Address: testAddress()})
	if err != nil {
		t.Fatalf("targeted claim failed: %v", err)
	}
	if len(result.Items) != 1 || result.Items[0].ItemID != target {
		t.Fatalf("targeted claim should take the chosen item: %+v", result.Items)
	}
	if reloaded := reloadOrder(t, svc.db, order.ID); reloaded.Status != constants.OrderStatusPaid {
		t.Fatalf("partially claimed order should stay paid")
	}

	if _, err := svc.gifts.Claim(context.Background(), GiftClaimInput{OrderNo: "GF0003", ClaimantUserID: first.ID, Address: testAddress()}); !errors.Is(err, ErrGiftAlreadyReceived) {
		t.Fatalf("same claimant should be rejected, got %v", err)
	}
	if _, err := svc.gifts.Claim(context.Background(), GiftClaimInput{OrderNo: "GF0003", ClaimantUserID: second.ID, TargetItemID: &target, Address: testAddress()}); !errors.Is(err, ErrGiftItemUnavailable) {
		t.Fatalf("claimed target should be unavailable, got %v", err)
	}

	result, err = svc.gifts.Claim(context.Background(), GiftClaimInput{OrderNo: "GF0003", ClaimantUserID: second.ID, Address: testAddress()})
	if err != nil || len(result.Items) != 1 || result.Items[0].ItemID != items[0].ID {
		t.Fatalf("untargeted claim should take first unclaimed item: %+v %v", result, err)
	}
	if reloaded := reloadOrder(t, svc.db, order.ID); reloaded.Status != constants.OrderStatusGifted {
		t.Fatalf("order should be gifted after last item claimed")
	}
	if _, err := svc.gifts.Claim(context.Background(), GiftClaimInput{OrderNo: "GF0003", ClaimantUserID: third.ID, Address: testAddress()}); !errors.Is(err, ErrGiftAlreadyClaimed) {
		t.Fatalf("late claimant should see already claimed, got %v", err)
	}
}

func TestClaimPreconditions(t *testing.T) {
	svc := newTestServices(t, nil)
	sender := createTestUser(t, svc.db, "赠礼人", "")
	receiver := createTestUser(t, svc.db, "收礼人", "")
	rose := createTestProduct(t, svc.db, models.Product{Name: "玫瑰"})

	paidGiftOrder(t, svc, "GF-EXPIRED", sender.ID, constants.GiftTypeSingle, time.Now().Add(-49*time.Hour), rose)
	paidGiftOrder(t, svc, "GF-SELF", sender.ID, constants.GiftTypeSingle, time.Now().Add(-time.Hour), rose)
	createTestOrder(t, svc.db, "GF-UNPAID", sender.ID, []*models.Product{rose}, []int{1}, withGift(constants.GiftTypeSingle))
	paid := time.Now().Add(-time.Hour)
	createTestOrder(t, svc.db, "NOT-GIFT", sender.ID, []*models.Product{rose}, []int{1}, withStatus(constants.OrderStatusPaid, &paid))

	cases := []struct {
		orderNo  string
		claimant uint
		want     error
	}{
		{"GF-MISSING", receiver.ID, ErrGiftOrderNotFound},
		{"GF-EXPIRED", receiver.ID, ErrGiftExpired},
		{"GF-SELF", sender.ID, ErrGiftSelfClaim},
		{"GF-UNPAID", receiver.ID, ErrGiftOrderStatusInvalid},
		{"NOT-GIFT", receiver.ID, ErrNotGiftOrder},
	}
	for _, tc := range cases {
		_, err := svc.gifts.Claim(context.Background(), GiftClaimInput{OrderNo: tc.orderNo, ClaimantUserID: tc.claimant, Address: testAddress()})
		if !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.orderNo, tc.want, err)
		}
	}

	_, err := svc.gifts.Claim(context.Background(), GiftClaimInput{OrderNo: "GF-SELF", ClaimantUserID: receiver.ID})
	if !errors.Is(err, ErrGiftAddressInvalid) {
		t.Fatalf("missing address should be rejected, got %v", err)
	}
}

func TestClaimConcurrentSingleGiftOnlyOneWins(t *testing.T) {
	svc := newTestServices(t, nil)
	sender := createTestUser(t, svc.db, "赠礼人", "")
	rose := createTestProduct(t, svc.db, models.Product{Name: "玫瑰"})
	order, _ := paidGiftOrder(t, svc, "GF0004", sender.ID, constants.GiftTypeSingle, time.Now().Add(-time.Hour), rose)

	const claimants = 5
	users := make([]*models.User, 0, claimants)
	for i := 0; i < claimants; i++ {
		users = append(users, createTestUser(t, svc.db, "抢礼物", ""))
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		wins    int
		rejects int
	)
	for _, user := range users {
		wg.Add(1)
		go func(userID uint) {
			defer wg.Done()
			_, err := svc.gifts.Claim(context.Background(), GiftClaimInput{OrderNo: "GF0004", ClaimantUserID: userID, Address: testAddress()})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, ErrGiftAlreadyClaimed):
				rejects++
			default:
				t.Errorf("unexpected claim error: %v", err)
			}
		}(user.ID)
	}
	wg.Wait()
	if wins != 1 || rejects != claimants-1 {
		t.Fatalf("expected exactly one winner, wins=%d rejects=%d", wins, rejects)
	}
	if plans := listPlans(t, svc.db, order.ID); len(plans) != 1 {
		t.Fatalf("only the winner should get plans, got %d", len(plans))
	}
}

func TestClaimSolarTermGiftUsesCalendar(t *testing.T) {
	svc := newTestServices(t, nil)
	now := time.Now()
	terms := []models.SolarTerm{
		{Name: "立夏", Year: now.Year(), StartTime: now.Add(72 * time.Hour), EndTime: now.Add(15 * 24 * time.Hour), IsActive: true},
	}
	if err := svc.db.Create(&terms).Error; err != nil {
		t.Fatalf("seed solar terms failed: %v", err)
	}
	sender := createTestUser(t, svc.db, "赠礼人", "")
	receiver := createTestUser(t, svc.db, "收礼人", "")
	box := createTestProduct(t, svc.db, models.Product{
		Name:           "节气礼盒",
		IsSubscription: true,
		MaxDeliveries:  2,
		DeliveryType:   constants.DeliveryTypeSolarTerm,
	})
	order, _ := paidGiftOrder(t, svc, "GF0005", sender.ID, constants.GiftTypeSingle, now.Add(-time.Hour), box)

	if _, err := svc.gifts.Claim(context.Background(), GiftClaimInput{OrderNo: "GF0005", ClaimantUserID: receiver.ID, Address: testAddress()}); err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	plans := listPlans(t, svc.db, order.ID)
	if len(plans) != 2 {
		t.Fatalf("expected 2 plans, got %d", len(plans))
	}
	if plans[0].SolarTermID == nil || plans[0].Note != "立夏" {
		t.Fatalf("first plan should follow solar term: %+v", plans[0])
	}
	if plans[1].SolarTermID != nil {
		t.Fatalf("second plan should be padded by interval: %+v", plans[1])
	}
}

func TestClaimFillsEmptyClaimantProfile(t *testing.T) {
	svc := newTestServices(t, nil)
	sender := createTestUser(t, svc.db, "赠礼人", "")
	receiver := createTestUser(t, svc.db, "", "")
	rose := createTestProduct(t, svc.db, models.Product{Name: "玫瑰"})
	paidGiftOrder(t, svc, "GF0100", sender.ID, constants.GiftTypeSingle, time.Now().Add(-time.Hour), rose)

	_, err := svc.gifts.Claim(context.Background(), GiftClaimInput{
		OrderNo:        "GF0100",
		ClaimantUserID: receiver.ID,
		Address:        testAddress(),
		Profile:        &ClaimantProfile{Nickname: "小王", Avatar: "https://img.example.com/a.png"},
	})
	if err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	var reloaded models.User
	if err := svc.db.First(&reloaded, receiver.ID).Error; err != nil {
		t.Fatalf("reload user failed: %v", err)
	}
	if reloaded.Nickname != "小王" || reloaded.Avatar != "https://img.example.com/a.png" {
		t.Fatalf("empty profile should be filled: %+v", reloaded)
	}

	if _, err := repositoryUserFill(svc, sender.ID, "改名"); err != nil {
		t.Fatalf("fill profile failed: %v", err)
	}
	var senderUser models.User
	svc.db.First(&senderUser, sender.ID)
	if senderUser.Nickname != "赠礼人" {
		t.Fatalf("existing nickname must not be overwritten, got %q", senderUser.Nickname)
	}
}

func repositoryUserFill(svc *testServices, userID uint, nickname string) (int64, error) {
	return svc.gifts.userRepo.FillProfile(userID, nickname, "")
}
