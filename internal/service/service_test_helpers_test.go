package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shiling-next/internal/config"
	"github.com/shiling-next/internal/constants"
	"github.com/shiling-next/internal/models"
	"github.com/shiling-next/internal/queue"
	"github.com/shiling-next/internal/repository"
	"github.com/shiling-next/internal/wechat"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var testLocation = time.FixedZone("CST", 8*3600)

func setupServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:service_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db failed: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(
		&models.Admin{},
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
		&models.NotificationLog{},
		&models.NotificationOutbox{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	prev := models.DB
	models.DB = db
	t.Cleanup(func() {
		models.DB = prev
		_ = sqlDB.Close()
	})
	return db
}

// fakeTransport 记录发送的订阅消息
type fakeTransport struct {
	mu   sync.Mutex
	sent []wechat.SubscribeMessage
	err  error
}

func (f *fakeTransport) SendSubscribeMessage(_ context.Context, msg wechat.SubscribeMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	return f.err
}

func (f *fakeTransport) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

// fakeCalendar 固定返回节气或错误
type fakeCalendar struct {
	terms []models.SolarTerm
	err   error
}

func (f fakeCalendar) ListActiveFrom(from time.Time, _ []int, limit int) ([]models.SolarTerm, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]models.SolarTerm, 0, len(f.terms))
	for _, term := range f.terms {
		if !term.StartTime.Before(from) {
			out = append(out, term)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

var errCalendarDown = errors.New("calendar down")

func testFulfillmentConfig() config.FulfillmentConfig {
	return config.FulfillmentConfig{
		GiftExpireHours:               48,
		OnceCutoffHour:                16,
		OnceWindowDays:                3,
		IntervalWindowDays:            7,
		SolarTermFallbackIntervalDays: 90,
		DeliveryNoPrefix:              "SL",
		Timezone:                      "Asia/Shanghai",
		GiftExpiryBatchSize:           50,
	}
}

func testNotificationConfig() config.NotificationConfig {
	return config.NotificationConfig{
		Enabled:           true,
		Timezone:          "Asia/Shanghai",
		RelayDelaySeconds: 60,
		RelayBatchSize:    50,
		MaxAttempts:       3,
		Templates: map[string]config.NotificationTemplateConfig{
			constants.NotificationScenePaymentSuccess: {
				TemplateID: "tpl-pay",
				Fields: []config.NotificationFieldConfig{
					{Key: "character_string1", Source: "order_no", Class: "character_string"},
					{Key: "thing2", Source: "product_names", Class: "thing"},
					{Key: "amount3", Source: "amount", Class: "amount"},
					{Key: "time4", Source: "paid_at", Class: "time"},
				},
			},
			constants.NotificationSceneGiftReceived: {
				TemplateID: "tpl-gift",
				Fields: []config.NotificationFieldConfig{
					{Key: "name1", Source: "receiver_name", Class: "name"},
					{Key: "thing2", Source: "product_names", Class: "thing"},
				},
			},
			constants.NotificationSceneDeliveryPreparing: {
				TemplateID: "tpl-prep",
				Fields: []config.NotificationFieldConfig{
					{Key: "character_string1", Source: "delivery_no", Class: "character_string"},
					{Key: "date2", Source: "plan_start_at", Class: "date"},
				},
			},
		},
	}
}

// testServices 装配与生产一致的服务，队列关闭时通知在当前进程派发
type testServices struct {
	db          *gorm.DB
	transport   *fakeTransport
	generator   *DeliveryPlanGenerator
	permissions *NotificationPermissionService
	outbox      *NotificationOutboxService
	fulfillment *OrderFulfillmentService
	gifts       *GiftReceiptService
	batches     *DeliveryBatchService
	expiry      *GiftExpiryService
}

func newTestServices(t *testing.T, calendar CalendarProvider) *testServices {
	t.Helper()
	db := setupServiceTestDB(t)
	fcfg := testFulfillmentConfig()
	ncfg := testNotificationConfig()
	queueClient, err := queue.NewClient(&config.QueueConfig{Enabled: false})
	if err != nil {
		t.Fatalf("new queue client failed: %v", err)
	}

	orderRepo := repository.NewOrderRepository(db)
	planRepo := repository.NewDeliveryPlanRepository(db)
	userRepo := repository.NewUserRepository(db)
	if calendar == nil {
		calendar = repository.NewSolarTermRepository(db)
	}
	transport := &fakeTransport{}
	generator := NewDeliveryPlanGenerator(calendar, fcfg)
	permissions := NewNotificationPermissionService(
		repository.NewSubscriptionPermissionRepository(db),
		repository.NewNotificationLogRepository(db),
		userRepo,
		transport,
		ncfg,
	)
	outbox := NewNotificationOutboxService(repository.NewNotificationOutboxRepository(db), queueClient, permissions, ncfg)
	return &testServices{
		db:          db,
		transport:   transport,
		generator:   generator,
		permissions: permissions,
		outbox:      outbox,
		fulfillment: NewOrderFulfillmentService(orderRepo, repository.NewProductRepository(db), planRepo, generator, outbox),
		gifts: NewGiftReceiptService(
			orderRepo,
			planRepo,
			repository.NewUserRelationRepository(db),
			repository.NewUserAddressRepository(db),
			userRepo,
			generator,
			outbox,
			fcfg,
		),
		batches: NewDeliveryBatchService(
			planRepo,
			orderRepo,
			repository.NewDeliveryNoRepository(db),
			repository.NewSubscriptionProductRepository(db),
			outbox,
			fcfg,
		),
		expiry: NewGiftExpiryService(orderRepo, outbox, fcfg),
	}
}

func createTestUser(t *testing.T, db *gorm.DB, nickname, openID string) *models.User {
	t.Helper()
	user := &models.User{Nickname: nickname, OpenID: openID}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	return user
}

func createTestProduct(t *testing.T, db *gorm.DB, product models.Product) *models.Product {
	t.Helper()
	if product.Name == "" {
		product.Name = "测试商品"
	}
	if product.DeliveryType == "" {
		product.DeliveryType = constants.DeliveryTypeOnce
	}
	if product.MaxDeliveries == 0 {
		product.MaxDeliveries = 1
	}
	product.IsActive = true
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	return &product
}

type testOrderOption func(order *models.Order)

func withGift(giftType int) testOrderOption {
	return func(order *models.Order) {
		order.IsGift = true
		order.GiftType = giftType
	}
}

func withStatus(status int, paidAt *time.Time) testOrderOption {
	return func(order *models.Order) {
		order.Status = status
		order.PaidAt = paidAt
	}
}

func withoutAddress() testOrderOption {
	return func(order *models.Order) {
		order.ReceiverName = ""
		order.ReceiverPhone = ""
		order.ReceiverAddress = ""
	}
}

func createTestOrder(t *testing.T, db *gorm.DB, orderNo string, userID uint, products []*models.Product, quantities []int, opts ...testOrderOption) (*models.Order, []models.OrderItem) {
	t.Helper()
	order := &models.Order{
		OrderNo:          orderNo,
		UserID:           userID,
		Status:           constants.OrderStatusCreated,
		TotalAmount:      models.NewMoneyFromDecimal(decimal.RequireFromString("199.00")),
		ReceiverName:     "张三",
		ReceiverPhone:    "13800000000",
		ReceiverProvince: "浙江省",
		ReceiverCity:     "杭州市",
		ReceiverDistrict: "西湖区",
		ReceiverAddress:  "文三路 1 号",
	}
	for _, opt := range opts {
		opt(order)
	}
	items := make([]models.OrderItem, 0, len(products))
	for i, product := range products {
		qty := 1
		if i < len(quantities) {
			qty = quantities[i]
		}
		item := models.OrderItem{
			ProductID:         product.ID,
			ProductName:       product.Name,
			UnitPrice:         product.PriceAmount,
			Quantity:          qty,
			IsSubscription:    product.IsSubscription,
			DeliveriesPerUnit: product.MaxDeliveries,
			TotalDeliveries:   product.MaxDeliveries * qty,
			DeliveryType:      product.DeliveryType,
			DeliveryInterval:  product.DeliveryInterval,
		}
		if order.Status != constants.OrderStatusCreated && !order.IsGift {
			item.GiftStatus = constants.GiftStatusClaimed
			receiver := userID
			item.ReceiverID = &receiver
		}
		items = append(items, item)
	}
	if err := repository.NewOrderRepository(db).Create(order, items); err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	return order, items
}

func grantTestPermission(t *testing.T, db *gorm.DB, userID uint, templateID string, count int) {
	t.Helper()
	if err := repository.NewSubscriptionPermissionRepository(db).Grant(userID, templateID, count); err != nil {
		t.Fatalf("grant permission failed: %v", err)
	}
}

func testAddress() models.ShippingAddress {
	return models.ShippingAddress{
		Name:     "李四",
		Phone:    "13900000000",
		Province: "上海市",
		City:     "上海市",
		District: "徐汇区",
		Detail:   "漕溪北路 2 号",
	}
}

func listPlans(t *testing.T, db *gorm.DB, orderID uint) []models.DeliveryPlan {
	t.Helper()
	var plans []models.DeliveryPlan
	if err := db.Where("order_id = ?", orderID).Order("id ASC").Find(&plans).Error; err != nil {
		t.Fatalf("list plans failed: %v", err)
	}
	return plans
}

func reloadOrder(t *testing.T, db *gorm.DB, id uint) models.Order {
	t.Helper()
	var order models.Order
	if err := db.First(&order, id).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	return order
}

func reloadItem(t *testing.T, db *gorm.DB, id uint) models.OrderItem {
	t.Helper()
	var item models.OrderItem
	if err := db.First(&item, id).Error; err != nil {
		t.Fatalf("reload item failed: %v", err)
	}
	return item
}

func countLogs(t *testing.T, db *gorm.DB, status string) int64 {
	t.Helper()
	var count int64
	if err := db.Model(&models.NotificationLog{}).Where("status = ?", status).Count(&count).Error; err != nil {
		t.Fatalf("count logs failed: %v", err)
	}
	return count
}
