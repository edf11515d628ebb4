package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/shiling-next/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupRepositoryTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.UserAddress{},
		&models.UserRelation{},
		&models.Product{},
		&models.SubscriptionProduct{},
		&models.SolarTerm{},
		&models.Order{},
		&models.OrderItem{},
		&models.DeliveryPlan{},
		&models.DeliveryNoSequence{},
		&models.SubscriptionPermission{},
		&models.NotificationOutbox{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return db
}

func createRepositoryTestOrder(t *testing.T, db *gorm.DB, orderNo string, items int) *models.Order {
	t.Helper()
	paidAt := time.Now().Add(-time.Hour)
	order := &models.Order{
		OrderNo:  orderNo,
		UserID:   1,
		Status:   1,
		IsGift:   true,
		GiftType: 2,
		PaidAt:   &paidAt,
	}
	rows := make([]models.OrderItem, 0, items)
	for i := 0; i < items; i++ {
		rows = append(rows, models.OrderItem{
			ProductID:       uint(i + 1),
			ProductName:     fmt.Sprintf("节气花束 %d", i+1),
			Quantity:        1,
			TotalDeliveries: 2,
			DeliveryType:    "interval",
		})
	}
	if err := NewOrderRepository(db).Create(order, rows); err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	return order
}
