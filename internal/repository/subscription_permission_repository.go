package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/shiling-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SubscriptionPermissionRepository 订阅消息授权次数数据访问接口
type SubscriptionPermissionRepository interface {
	Get(userID uint, templateID string) (*models.SubscriptionPermission, error)
	ListByUser(userID uint) ([]models.SubscriptionPermission, error)
	Consume(userID uint, templateID string) (int64, error)
	Grant(userID uint, templateID string, count int) error
}

// GormSubscriptionPermissionRepository GORM 实现
type GormSubscriptionPermissionRepository struct {
	db *gorm.DB
}

// NewSubscriptionPermissionRepository 创建授权次数仓库
func NewSubscriptionPermissionRepository(db *gorm.DB) *GormSubscriptionPermissionRepository {
	return &GormSubscriptionPermissionRepository{db: db}
}

// Get 获取用户某模板的授权次数
func (r *GormSubscriptionPermissionRepository) Get(userID uint, templateID string) (*models.SubscriptionPermission, error) {
	var perm models.SubscriptionPermission
	if err := r.db.Where("user_id = ? AND template_id = ?", userID, strings.TrimSpace(templateID)).
		First(&perm).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &perm, nil
}

// ListByUser 获取用户全部模板授权
func (r *GormSubscriptionPermissionRepository) ListByUser(userID uint) ([]models.SubscriptionPermission, error) {
	var perms []models.SubscriptionPermission
	if err := r.db.Where("user_id = ?", userID).Order("template_id ASC").Find(&perms).Error; err != nil {
		return nil, err
	}
	return perms, nil
}

// Consume 原子扣减一次授权，余额不足时不更新
func (r *GormSubscriptionPermissionRepository) Consume(userID uint, templateID string) (int64, error) {
	result := r.db.Model(&models.SubscriptionPermission{}).
		Where("user_id = ? AND template_id = ? AND available_count > 0", userID, strings.TrimSpace(templateID)).
		Updates(map[string]interface{}{
			"available_count": gorm.Expr("available_count - ?", 1),
			"updated_at":      time.Now(),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// Grant 增加授权次数，记录不存在时创建
func (r *GormSubscriptionPermissionRepository) Grant(userID uint, templateID string, count int) error {
	if count <= 0 {
		return nil
	}
	now := time.Now()
	perm := models.SubscriptionPermission{
		UserID:         userID,
		TemplateID:     strings.TrimSpace(templateID),
		AvailableCount: count,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "template_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"available_count": gorm.Expr("subscription_permissions.available_count + ?", count),
			"updated_at":      now,
		}),
	}).Create(&perm).Error
}
