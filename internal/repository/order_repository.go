package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/shiling-next/internal/constants"
	"github.com/shiling-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderRepository 订单数据访问接口
type OrderRepository interface {
	Create(order *models.Order, items []models.OrderItem) error
	GetByID(id uint) (*models.Order, error)
	GetByOrderNo(orderNo string) (*models.Order, error)
	GetByOrderNoForUpdate(orderNo string) (*models.Order, error)
	ListItems(orderID uint) ([]models.OrderItem, error)
	ListItemsByIDs(ids []uint) ([]models.OrderItem, error)
	UpdateFields(id uint, updates map[string]interface{}) error
	TransitionStatus(id uint, from []int, to int, updates map[string]interface{}) (int64, error)
	UpdateItemFields(itemID uint, updates map[string]interface{}) error
	ClaimItem(itemID, receiverID uint, receivedAt time.Time) (int64, error)
	HasClaimByReceiver(orderID, receiverID uint) (bool, error)
	CountUnclaimedItems(orderID uint) (int64, error)
	CountUndeliveredItems(orderID uint) (int64, error)
	IncrementDelivered(itemID uint, count int) (int64, error)
	ListUnclaimedGiftOrders(paidBefore time.Time, limit int) ([]models.Order, error)
	MarkGiftExpired(id uint, at time.Time) (int64, error)
	WithTx(tx *gorm.DB) *GormOrderRepository
}

// GormOrderRepository GORM 实现
type GormOrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓库
func NewOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// WithTx 绑定事务
func (r *GormOrderRepository) WithTx(tx *gorm.DB) *GormOrderRepository {
	if tx == nil {
		return r
	}
	return &GormOrderRepository{db: tx}
}

func preloadItems(db *gorm.DB) *gorm.DB {
	return db.Order("order_items.id ASC")
}

// Create 创建订单与订单项
func (r *GormOrderRepository) Create(order *models.Order, items []models.OrderItem) error {
	if err := r.db.Omit("Items").Create(order).Error; err != nil {
		return err
	}
	for i := range items {
		items[i].OrderID = order.ID
	}
	if len(items) > 0 {
		if err := r.db.Omit("Product").Create(&items).Error; err != nil {
			return err
		}
	}
	order.Items = items
	return nil
}

// GetByID 根据 ID 获取订单
func (r *GormOrderRepository) GetByID(id uint) (*models.Order, error) {
	var order models.Order
	if err := r.db.Preload("Items", preloadItems).First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByOrderNo 根据订单号获取订单
func (r *GormOrderRepository) GetByOrderNo(orderNo string) (*models.Order, error) {
	orderNo = strings.TrimSpace(orderNo)
	if orderNo == "" {
		return nil, nil
	}
	var order models.Order
	if err := r.db.Preload("Items", preloadItems).Where("order_no = ?", orderNo).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByOrderNoForUpdate 加行锁读取订单，同一订单上的支付确认与领取串行执行
func (r *GormOrderRepository) GetByOrderNoForUpdate(orderNo string) (*models.Order, error) {
	orderNo = strings.TrimSpace(orderNo)
	if orderNo == "" {
		return nil, nil
	}
	var order models.Order
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("order_no = ?", orderNo).
		First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// ListItems 获取订单项（按创建顺序）
func (r *GormOrderRepository) ListItems(orderID uint) ([]models.OrderItem, error) {
	var items []models.OrderItem
	if err := r.db.Where("order_id = ?", orderID).
		Order("id ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// ListItemsByIDs 批量获取订单项
func (r *GormOrderRepository) ListItemsByIDs(ids []uint) ([]models.OrderItem, error) {
	if len(ids) == 0 {
		return []models.OrderItem{}, nil
	}
	var items []models.OrderItem
	if err := r.db.Where("id IN ?", ids).Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// UpdateFields 更新订单字段
func (r *GormOrderRepository) UpdateFields(id uint, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	updates["updated_at"] = time.Now()
	return r.db.Model(&models.Order{}).Where("id = ?", id).Updates(updates).Error
}

// TransitionStatus 仅当订单处于 from 状态之一时迁移到 to，返回受影响行数
func (r *GormOrderRepository) TransitionStatus(id uint, from []int, to int, updates map[string]interface{}) (int64, error) {
	values := map[string]interface{}{}
	for key, value := range updates {
		values[key] = value
	}
	values["status"] = to
	values["updated_at"] = time.Now()
	query := r.db.Model(&models.Order{}).Where("id = ?", id)
	if len(from) > 0 {
		query = query.Where("status IN ?", from)
	}
	result := query.Updates(values)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// UpdateItemFields 更新订单项字段
func (r *GormOrderRepository) UpdateItemFields(itemID uint, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	updates["updated_at"] = time.Now()
	return r.db.Model(&models.OrderItem{}).Where("id = ?", itemID).Updates(updates).Error
}

// ClaimItem 领取订单项，gift_status 0 -> 1 作为唯一的领取闸门
func (r *GormOrderRepository) ClaimItem(itemID, receiverID uint, receivedAt time.Time) (int64, error) {
	result := r.db.Model(&models.OrderItem{}).
		Where("id = ? AND gift_status = ?", itemID, constants.GiftStatusUnclaimed).
		Updates(map[string]interface{}{
			"gift_status": constants.GiftStatusClaimed,
			"receiver_id": receiverID,
			"received_at": receivedAt,
			"updated_at":  receivedAt,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// HasClaimByReceiver 判断用户是否已领取过该订单中的任一礼物
func (r *GormOrderRepository) HasClaimByReceiver(orderID, receiverID uint) (bool, error) {
	var count int64
	if err := r.db.Model(&models.OrderItem{}).
		Where("order_id = ? AND receiver_id = ? AND gift_status = ?", orderID, receiverID, constants.GiftStatusClaimed).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountUnclaimedItems 统计未领取的订单项
func (r *GormOrderRepository) CountUnclaimedItems(orderID uint) (int64, error) {
	var count int64
	if err := r.db.Model(&models.OrderItem{}).
		Where("order_id = ? AND gift_status = ?", orderID, constants.GiftStatusUnclaimed).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountUndeliveredItems 统计尚未配送完成的订单项
func (r *GormOrderRepository) CountUndeliveredItems(orderID uint) (int64, error) {
	var count int64
	if err := r.db.Model(&models.OrderItem{}).
		Where("order_id = ? AND delivered_count < total_deliveries", orderID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// IncrementDelivered 原子累加已发货次数，不允许超过总配送次数
func (r *GormOrderRepository) IncrementDelivered(itemID uint, count int) (int64, error) {
	if count <= 0 {
		return 0, nil
	}
	result := r.db.Model(&models.OrderItem{}).
		Where("id = ? AND delivered_count + ? <= total_deliveries", itemID, count).
		Updates(map[string]interface{}{
			"delivered_count": gorm.Expr("delivered_count + ?", count),
			"updated_at":      time.Now(),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// ListUnclaimedGiftOrders 查询超过领取期限且仍有未领取订单项的礼物订单
func (r *GormOrderRepository) ListUnclaimedGiftOrders(paidBefore time.Time, limit int) ([]models.Order, error) {
	if limit <= 0 {
		limit = 100
	}
	unclaimed := r.db.Model(&models.OrderItem{}).
		Select("1").
		Where("order_items.order_id = orders.id AND order_items.gift_status = ? AND order_items.deleted_at IS NULL", constants.GiftStatusUnclaimed)
	var orders []models.Order
	if err := r.db.
		Where("status = ? AND is_gift = ? AND gift_expired_at IS NULL AND paid_at <= ?", constants.OrderStatusPaid, true, paidBefore).
		Where("EXISTS (?)", unclaimed).
		Order("id ASC").
		Limit(limit).
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// MarkGiftExpired 标记礼物过期，只生效一次
func (r *GormOrderRepository) MarkGiftExpired(id uint, at time.Time) (int64, error) {
	result := r.db.Model(&models.Order{}).
		Where("id = ? AND gift_expired_at IS NULL", id).
		Updates(map[string]interface{}{
			"gift_expired_at": at,
			"updated_at":      at,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
