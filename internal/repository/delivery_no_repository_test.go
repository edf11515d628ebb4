package repository

import (
	"testing"
	"time"

	"github.com/shiling-next/internal/models"
)

func TestDeliveryNoRepositoryReserveSeedsFromExistingPlans(t *testing.T) {
	db := setupRepositoryTestDB(t, "delivery_no_seed")
	for i, no := range []string{"202501010001", "202501010002", "202412310001"} {
		deliveryNo := no
		plan := models.DeliveryPlan{
			DeliveryNo:       &deliveryNo,
			OrderID:          1,
			OrderItemID:      1,
			UserID:           1,
			Status:           1,
			DeliverySequence: i + 1,
			PlanStartAt:      time.Now(),
			PlanEndAt:        time.Now().Add(72 * time.Hour),
		}
		if err := db.Create(&plan).Error; err != nil {
			t.Fatalf("create plan failed: %v", err)
		}
	}

	repo := NewDeliveryNoRepository(db)
	start, err := repo.Reserve("20250101", 3)
	if err != nil {
		t.Fatalf("reserve failed: %v", err)
	}
	if start != 3 {
		t.Fatalf("expected reservation to continue after 2 used numbers, got start=%d", start)
	}
	next, err := repo.Reserve("20250101", 2)
	if err != nil {
		t.Fatalf("second reserve failed: %v", err)
	}
	if next != 6 {
		t.Fatalf("expected contiguous block starting at 6, got %d", next)
	}
	other, err := repo.Reserve("20250102", 1)
	if err != nil {
		t.Fatalf("reserve other day failed: %v", err)
	}
	if other != 1 {
		t.Fatalf("new day should start at 1, got %d", other)
	}
}

func TestDeliveryNoRepositoryReserveRejectsInvalidInput(t *testing.T) {
	db := setupRepositoryTestDB(t, "delivery_no_invalid")
	repo := NewDeliveryNoRepository(db)
	if _, err := repo.Reserve("", 1); err == nil {
		t.Fatalf("expected empty prefix error")
	}
	if _, err := repo.Reserve("20250101", 0); err == nil {
		t.Fatalf("expected invalid count error")
	}
}
