package repository

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shiling-next/internal/constants"
	"github.com/shiling-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DeliveryPlanRepository 配送计划数据访问接口
type DeliveryPlanRepository interface {
	CreateBatch(plans []models.DeliveryPlan) error
	GetByID(id uint) (*models.DeliveryPlan, error)
	ListByIDs(ids []uint) ([]models.DeliveryPlan, error)
	ListConfirmableForUpdate(ids []uint) ([]models.DeliveryPlan, error)
	ListShippableForUpdate(ids []uint) ([]models.DeliveryPlan, error)
	AssignDeliveryNo(id uint, deliveryNo string, subscriptionProductID *uint, confirmedAt time.Time) (int64, error)
	MarkShipped(ids []uint, carrierName, trackingNo string, shippedAt time.Time) (int64, error)
	CountByOrderItem(orderItemID uint) (int64, error)
	CountByDeliveryNoPrefix(prefix string) (int64, error)
	ListAdmin(filter DeliveryPlanListFilter) ([]models.DeliveryPlan, int64, error)
	ListByUser(userID uint, page, pageSize int) ([]models.DeliveryPlan, int64, error)
	WithTx(tx *gorm.DB) *GormDeliveryPlanRepository
}

// GormDeliveryPlanRepository GORM 实现
type GormDeliveryPlanRepository struct {
	db *gorm.DB
}

// NewDeliveryPlanRepository 创建配送计划仓库
func NewDeliveryPlanRepository(db *gorm.DB) *GormDeliveryPlanRepository {
	return &GormDeliveryPlanRepository{db: db}
}

// WithTx 绑定事务
func (r *GormDeliveryPlanRepository) WithTx(tx *gorm.DB) *GormDeliveryPlanRepository {
	if tx == nil {
		return r
	}
	return &GormDeliveryPlanRepository{db: tx}
}

// CreateBatch 批量写入配送计划
func (r *GormDeliveryPlanRepository) CreateBatch(plans []models.DeliveryPlan) error {
	if len(plans) == 0 {
		return nil
	}
	return r.db.CreateInBatches(&plans, 100).Error
}

// GetByID 获取配送计划
func (r *GormDeliveryPlanRepository) GetByID(id uint) (*models.DeliveryPlan, error) {
	var plan models.DeliveryPlan
	if err := r.db.First(&plan, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &plan, nil
}

// ListByIDs 批量获取配送计划
func (r *GormDeliveryPlanRepository) ListByIDs(ids []uint) ([]models.DeliveryPlan, error) {
	if len(ids) == 0 {
		return []models.DeliveryPlan{}, nil
	}
	var plans []models.DeliveryPlan
	if err := r.db.Where("id IN ?", ids).Order("id ASC").Find(&plans).Error; err != nil {
		return nil, err
	}
	return plans, nil
}

// ListConfirmableForUpdate 锁定待确认且未分配单号的计划
func (r *GormDeliveryPlanRepository) ListConfirmableForUpdate(ids []uint) ([]models.DeliveryPlan, error) {
	if len(ids) == 0 {
		return []models.DeliveryPlan{}, nil
	}
	var plans []models.DeliveryPlan
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ? AND status = ? AND delivery_no IS NULL", ids, constants.DeliveryPlanStatusPending).
		Order("id ASC").
		Find(&plans).Error; err != nil {
		return nil, err
	}
	return plans, nil
}

// ListShippableForUpdate 锁定已确认的计划
func (r *GormDeliveryPlanRepository) ListShippableForUpdate(ids []uint) ([]models.DeliveryPlan, error) {
	if len(ids) == 0 {
		return []models.DeliveryPlan{}, nil
	}
	var plans []models.DeliveryPlan
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ? AND status = ?", ids, constants.DeliveryPlanStatusConfirmed).
		Order("id ASC").
		Find(&plans).Error; err != nil {
		return nil, err
	}
	return plans, nil
}

// AssignDeliveryNo 写入配送单号并确认，单号只允许写入一次
func (r *GormDeliveryPlanRepository) AssignDeliveryNo(id uint, deliveryNo string, subscriptionProductID *uint, confirmedAt time.Time) (int64, error) {
	updates := map[string]interface{}{
		"delivery_no":  deliveryNo,
		"status":       constants.DeliveryPlanStatusConfirmed,
		"confirmed_at": confirmedAt,
		"updated_at":   confirmedAt,
	}
	if subscriptionProductID != nil {
		updates["subscription_product_id"] = *subscriptionProductID
	}
	result := r.db.Model(&models.DeliveryPlan{}).
		Where("id = ? AND status = ? AND delivery_no IS NULL", id, constants.DeliveryPlanStatusPending).
		Updates(updates)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// MarkShipped 批量发货
func (r *GormDeliveryPlanRepository) MarkShipped(ids []uint, carrierName, trackingNo string, shippedAt time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.Model(&models.DeliveryPlan{}).
		Where("id IN ? AND status = ?", ids, constants.DeliveryPlanStatusConfirmed).
		Updates(map[string]interface{}{
			"status":       constants.DeliveryPlanStatusShipped,
			"carrier_name": carrierName,
			"tracking_no":  trackingNo,
			"shipped_at":   shippedAt,
			"updated_at":   shippedAt,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// CountByOrderItem 统计订单项下的配送计划
func (r *GormDeliveryPlanRepository) CountByOrderItem(orderItemID uint) (int64, error) {
	var count int64
	if err := r.db.Model(&models.DeliveryPlan{}).Where("order_item_id = ?", orderItemID).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountByDeliveryNoPrefix 统计已使用某日期前缀的单号数量
func (r *GormDeliveryPlanRepository) CountByDeliveryNoPrefix(prefix string) (int64, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return 0, nil
	}
	var count int64
	if err := r.db.Unscoped().Model(&models.DeliveryPlan{}).
		Where("delivery_no LIKE ? ESCAPE '\\'", escapeLike(prefix)+"%").
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ListAdmin 运营端配送计划列表
func (r *GormDeliveryPlanRepository) ListAdmin(filter DeliveryPlanListFilter) ([]models.DeliveryPlan, int64, error) {
	query := r.db.Model(&models.DeliveryPlan{})
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.OrderID != 0 {
		query = query.Where("order_id = ?", filter.OrderID)
	}
	if filter.PlanStartFrom != nil {
		query = query.Where("plan_start_at >= ?", *filter.PlanStartFrom)
	}
	if filter.PlanStartTo != nil {
		query = query.Where("plan_start_at < ?", *filter.PlanStartTo)
	}
	if keyword := strings.TrimSpace(filter.Keyword); keyword != "" {
		operator := likeOperatorByDialect(dbDialectName(r.db))
		like := "%" + escapeLike(keyword) + "%"
		query = query.Where(
			fmt.Sprintf("(receiver_name %[1]s ? ESCAPE '\\' OR receiver_phone %[1]s ? ESCAPE '\\' OR delivery_no %[1]s ? ESCAPE '\\')", operator),
			like, like, like,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var plans []models.DeliveryPlan
	if err := applyPagination(query.Order("plan_start_at ASC, id ASC"), filter.Page, filter.PageSize).Find(&plans).Error; err != nil {
		return nil, 0, err
	}
	return plans, total, nil
}

// ListByUser 收货人查看自己的配送计划
func (r *GormDeliveryPlanRepository) ListByUser(userID uint, page, pageSize int) ([]models.DeliveryPlan, int64, error) {
	query := r.db.Model(&models.DeliveryPlan{}).Where("user_id = ?", userID)
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var plans []models.DeliveryPlan
	if err := applyPagination(query.Order("plan_start_at ASC, id ASC"), page, pageSize).Find(&plans).Error; err != nil {
		return nil, 0, err
	}
	return plans, total, nil
}
