package repository

import (
	"errors"

	"github.com/shiling-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SubscriptionProductRepository 订阅轮换内容数据访问接口
type SubscriptionProductRepository interface {
	GetByIDForUpdate(id uint) (*models.SubscriptionProduct, error)
	DecrementStock(id uint) (int64, error)
	WithTx(tx *gorm.DB) *GormSubscriptionProductRepository
}

// GormSubscriptionProductRepository GORM 实现
type GormSubscriptionProductRepository struct {
	db *gorm.DB
}

// NewSubscriptionProductRepository 创建订阅内容仓库
func NewSubscriptionProductRepository(db *gorm.DB) *GormSubscriptionProductRepository {
	return &GormSubscriptionProductRepository{db: db}
}

// WithTx 绑定事务
func (r *GormSubscriptionProductRepository) WithTx(tx *gorm.DB) *GormSubscriptionProductRepository {
	if tx == nil {
		return r
	}
	return &GormSubscriptionProductRepository{db: tx}
}

// GetByIDForUpdate 加锁读取订阅内容
func (r *GormSubscriptionProductRepository) GetByIDForUpdate(id uint) (*models.SubscriptionProduct, error) {
	var product models.SubscriptionProduct
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

// DecrementStock 原子扣减一件库存，库存为 0 或已停用时不更新
func (r *GormSubscriptionProductRepository) DecrementStock(id uint) (int64, error) {
	result := r.db.Model(&models.SubscriptionProduct{}).
		Where("id = ? AND is_active = ? AND stock > 0", id, true).
		Update("stock", gorm.Expr("stock - ?", 1))
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
