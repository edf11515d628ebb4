package repository

import (
	"github.com/shiling-next/internal/models"

	"gorm.io/gorm"
)

// NotificationLogRepository 订阅消息发送记录数据访问接口
type NotificationLogRepository interface {
	Create(log *models.NotificationLog) error
	ListByBiz(scene, bizID string) ([]models.NotificationLog, error)
}

// GormNotificationLogRepository GORM 实现
type GormNotificationLogRepository struct {
	db *gorm.DB
}

// NewNotificationLogRepository 创建发送记录仓库
func NewNotificationLogRepository(db *gorm.DB) *GormNotificationLogRepository {
	return &GormNotificationLogRepository{db: db}
}

// Create 写入发送记录
func (r *GormNotificationLogRepository) Create(log *models.NotificationLog) error {
	return r.db.Create(log).Error
}

// ListByBiz 按业务查询发送记录
func (r *GormNotificationLogRepository) ListByBiz(scene, bizID string) ([]models.NotificationLog, error) {
	var logs []models.NotificationLog
	if err := r.db.Where("scene = ? AND biz_id = ?", scene, bizID).Order("id ASC").Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}
