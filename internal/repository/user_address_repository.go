package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/shiling-next/internal/models"

	"gorm.io/gorm"
)

// UserAddressRepository 收货地址数据访问接口
type UserAddressRepository interface {
	GetDefault(userID uint) (*models.UserAddress, error)
	UpsertDefault(userID uint, addr models.ShippingAddress) (*models.UserAddress, error)
	WithTx(tx *gorm.DB) *GormUserAddressRepository
}

// GormUserAddressRepository GORM 实现
type GormUserAddressRepository struct {
	db *gorm.DB
}

// NewUserAddressRepository 创建收货地址仓库
func NewUserAddressRepository(db *gorm.DB) *GormUserAddressRepository {
	return &GormUserAddressRepository{db: db}
}

// WithTx 绑定事务
func (r *GormUserAddressRepository) WithTx(tx *gorm.DB) *GormUserAddressRepository {
	if tx == nil {
		return r
	}
	return &GormUserAddressRepository{db: tx}
}

// GetDefault 获取默认地址
func (r *GormUserAddressRepository) GetDefault(userID uint) (*models.UserAddress, error) {
	var address models.UserAddress
	if err := r.db.Where("user_id = ? AND is_default = ?", userID, true).
		Order("id DESC").
		First(&address).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &address, nil
}

// UpsertDefault 将地址设为默认，相同地址复用已有记录
func (r *GormUserAddressRepository) UpsertDefault(userID uint, addr models.ShippingAddress) (*models.UserAddress, error) {
	now := time.Now()
	if err := r.db.Model(&models.UserAddress{}).
		Where("user_id = ? AND is_default = ?", userID, true).
		Updates(map[string]interface{}{"is_default": false, "updated_at": now}).Error; err != nil {
		return nil, err
	}

	var existing models.UserAddress
	result := r.db.Where(
		"user_id = ? AND name = ? AND phone = ? AND province = ? AND city = ? AND district = ? AND detail = ?",
		userID,
		strings.TrimSpace(addr.Name),
		strings.TrimSpace(addr.Phone),
		strings.TrimSpace(addr.Province),
		strings.TrimSpace(addr.City),
		strings.TrimSpace(addr.District),
		strings.TrimSpace(addr.Detail),
	).Limit(1).Find(&existing)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected > 0 {
		if err := r.db.Model(&existing).Updates(map[string]interface{}{"is_default": true, "updated_at": now}).Error; err != nil {
			return nil, err
		}
		existing.IsDefault = true
		return &existing, nil
	}

	address := models.UserAddress{
		UserID:    userID,
		Name:      strings.TrimSpace(addr.Name),
		Phone:     strings.TrimSpace(addr.Phone),
		Province:  strings.TrimSpace(addr.Province),
		City:      strings.TrimSpace(addr.City),
		District:  strings.TrimSpace(addr.District),
		Detail:    strings.TrimSpace(addr.Detail),
		IsDefault: true,
	}
	if err := r.db.Create(&address).Error; err != nil {
		return nil, err
	}
	return &address, nil
}
