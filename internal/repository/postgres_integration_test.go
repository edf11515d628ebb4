//go:build integration
// +build integration

package repository

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shiling-next/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupPostgresIntegrationDB 初始化 PostgreSQL 集成测试数据库。
func setupPostgresIntegrationDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := strings.TrimSpace(os.Getenv("TEST_POSTGRES_DSN"))
	if dsn == "" {
		t.Skip("skip postgres integration test: TEST_POSTGRES_DSN is empty")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open postgres failed: %v", err)
	}

	cleanupModels := []interface{}{
		&models.DeliveryPlan{},
		&models.DeliveryNoSequence{},
		&models.SubscriptionPermission{},
	}
	_ = db.Migrator().DropTable(cleanupModels...)
	if err := db.AutoMigrate(cleanupModels...); err != nil {
		t.Fatalf("migrate postgres models failed: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Migrator().DropTable(cleanupModels...)
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func TestPostgresDeliveryNoReserveConcurrent(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	prefix := time.Now().Format("20060102")

	const workers = 8
	starts := make([]int64, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			errs[idx] = db.Transaction(func(tx *gorm.DB) error {
				start, err := NewDeliveryNoRepository(db).WithTx(tx).Reserve(prefix, 5)
				starts[idx] = start
				return err
			})
		}(i)
	}
	wg.Wait()

	seen := make(map[int64]bool, workers*5)
	for i := 0; i < workers; i++ {
		if errs[i] != nil {
			t.Fatalf("worker %d reserve failed: %v", i, errs[i])
		}
		for n := starts[i]; n < starts[i]+5; n++ {
			if seen[n] {
				t.Fatalf("sequence %d reserved twice", n)
			}
			seen[n] = true
		}
	}
	if len(seen) != workers*5 {
		t.Fatalf("expected %d distinct numbers, got %d", workers*5, len(seen))
	}
}

func TestPostgresSubscriptionPermissionGrantUpsert(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewSubscriptionPermissionRepository(db)
	templateID := fmt.Sprintf("tpl-%d", time.Now().UnixNano())

	if err := repo.Grant(1, templateID, 1); err != nil {
		t.Fatalf("grant failed: %v", err)
	}
	if err := repo.Grant(1, templateID, 4); err != nil {
		t.Fatalf("grant upsert failed: %v", err)
	}
	perm, err := repo.Get(1, templateID)
	if err != nil || perm == nil {
		t.Fatalf("get permission failed: %v", err)
	}
	if perm.AvailableCount != 5 {
		t.Fatalf("expected 5 credits, got %d", perm.AvailableCount)
	}
}
