package repository

import (
	"testing"
	"time"

	"github.com/shiling-next/internal/constants"
	"github.com/shiling-next/internal/models"
)

func TestNotificationOutboxRepositoryLifecycle(t *testing.T) {
	db := setupRepositoryTestDB(t, "outbox_repo")
	repo := NewNotificationOutboxRepository(db)
	now := time.Now()

	rows := []models.NotificationOutbox{
		{Scene: constants.NotificationScenePaymentSuccess, UserID: 1, BizID: "SO1", Status: constants.OutboxStatusPending, AvailableAt: now},
		{Scene: constants.NotificationSceneDeliveryShipped, UserID: 2, BizID: "DP1", Status: constants.OutboxStatusPending, AvailableAt: now.Add(time.Hour)},
	}
	if err := repo.CreateBatch(rows); err != nil {
		t.Fatalf("create outbox rows failed: %v", err)
	}
	if rows[0].ID == 0 || rows[1].ID == 0 {
		t.Fatalf("expected ids to be back-filled: %+v", rows)
	}

	due, err := repo.ListDue(OutboxListFilter{AvailableBefore: now.Add(time.Second), Limit: 10})
	if err != nil {
		t.Fatalf("list due failed: %v", err)
	}
	if len(due) != 1 || due[0].ID != rows[0].ID {
		t.Fatalf("expected only the first row to be due, got %+v", due)
	}

	if affected, err := repo.Claim(rows[0].ID, now); err != nil || affected != 1 {
		t.Fatalf("claim failed: affected=%d err=%v", affected, err)
	}
	if affected, err := repo.Claim(rows[0].ID, now); err != nil || affected != 0 {
		t.Fatalf("double claim should be rejected: affected=%d err=%v", affected, err)
	}
	if err := repo.Release(rows[0].ID, "transport down", now); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	released, err := repo.GetByID(rows[0].ID)
	if err != nil || released == nil {
		t.Fatalf("get released failed: %v", err)
	}
	if released.Status != constants.OutboxStatusPending || released.Attempts != 1 || released.LastError != "transport down" {
		t.Fatalf("unexpected released row: %+v", released)
	}

	if _, err := repo.Claim(rows[0].ID, now); err != nil {
		t.Fatalf("reclaim failed: %v", err)
	}
	if err := repo.MarkDone(rows[0].ID, now); err != nil {
		t.Fatalf("mark done failed: %v", err)
	}
	done, _ := repo.GetByID(rows[0].ID)
	if done.Status != constants.OutboxStatusDone || done.Attempts != 2 {
		t.Fatalf("unexpected done row: %+v", done)
	}
}

func TestNotificationOutboxRepositoryResetStale(t *testing.T) {
	db := setupRepositoryTestDB(t, "outbox_repo_stale")
	repo := NewNotificationOutboxRepository(db)
	rows := []models.NotificationOutbox{
		{Scene: constants.NotificationSceneGiftReceived, UserID: 3, BizID: "SO2", Status: constants.OutboxStatusPending, AvailableAt: time.Now()},
	}
	if err := repo.CreateBatch(rows); err != nil {
		t.Fatalf("create outbox row failed: %v", err)
	}
	if _, err := repo.Claim(rows[0].ID, time.Now()); err != nil {
		t.Fatalf("claim failed: %v", err)
	}

	reset, err := repo.ResetStale(time.Now().Add(time.Minute))
	if err != nil {
		t.Fatalf("reset stale failed: %v", err)
	}
	if reset != 1 {
		t.Fatalf("expected 1 stale row reset, got %d", reset)
	}
	row, _ := repo.GetByID(rows[0].ID)
	if row.Status != constants.OutboxStatusPending {
		t.Fatalf("expected row back to pending, got %s", row.Status)
	}
}
