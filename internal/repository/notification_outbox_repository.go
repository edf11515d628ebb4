package repository

import (
	"errors"
	"time"

	"github.com/shiling-next/internal/constants"
	"github.com/shiling-next/internal/models"

	"gorm.io/gorm"
)

// NotificationOutboxRepository 通知发件箱数据访问接口
type NotificationOutboxRepository interface {
	CreateBatch(rows []models.NotificationOutbox) error
	GetByID(id uint) (*models.NotificationOutbox, error)
	Claim(id uint, now time.Time) (int64, error)
	MarkDone(id uint, now time.Time) error
	Release(id uint, lastError string, availableAt time.Time) error
	ListDue(filter OutboxListFilter) ([]models.NotificationOutbox, error)
	ResetStale(staleBefore time.Time) (int64, error)
	WithTx(tx *gorm.DB) *GormNotificationOutboxRepository
}

// GormNotificationOutboxRepository GORM 实现
type GormNotificationOutboxRepository struct {
	db *gorm.DB
}

// NewNotificationOutboxRepository 创建发件箱仓库
func NewNotificationOutboxRepository(db *gorm.DB) *GormNotificationOutboxRepository {
	return &GormNotificationOutboxRepository{db: db}
}

// WithTx 绑定事务
func (r *GormNotificationOutboxRepository) WithTx(tx *gorm.DB) *GormNotificationOutboxRepository {
	if tx == nil {
		return r
	}
	return &GormNotificationOutboxRepository{db: tx}
}

// CreateBatch 批量写入发件箱，rows 的 ID 会被回填
func (r *GormNotificationOutboxRepository) CreateBatch(rows []models.NotificationOutbox) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.Create(&rows).Error
}

// GetByID 获取发件箱记录
func (r *GormNotificationOutboxRepository) GetByID(id uint) (*models.NotificationOutbox, error) {
	var row models.NotificationOutbox
	if err := r.db.First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// Claim 抢占一条待派发记录，pending -> processing
func (r *GormNotificationOutboxRepository) Claim(id uint, now time.Time) (int64, error) {
	result := r.db.Model(&models.NotificationOutbox{}).
		Where("id = ? AND status = ?", id, constants.OutboxStatusPending).
		Updates(map[string]interface{}{
			"status":     constants.OutboxStatusProcessing,
			"attempts":   gorm.Expr("attempts + ?", 1),
			"updated_at": now,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// MarkDone 标记派发完成
func (r *GormNotificationOutboxRepository) MarkDone(id uint, now time.Time) error {
	return r.db.Model(&models.NotificationOutbox{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     constants.OutboxStatusDone,
			"last_error": "",
			"updated_at": now,
		}).Error
}

// Release 派发失败时放回待派发状态
func (r *GormNotificationOutboxRepository) Release(id uint, lastError string, availableAt time.Time) error {
	if runes := []rune(lastError); len(runes) > 250 {
		lastError = string(runes[:250])
	}
	return r.db.Model(&models.NotificationOutbox{}).
		Where("id = ? AND status = ?", id, constants.OutboxStatusProcessing).
		Updates(map[string]interface{}{
			"status":       constants.OutboxStatusPending,
			"last_error":   lastError,
			"available_at": availableAt,
			"updated_at":   time.Now(),
		}).Error
}

// ListDue 获取到期仍未派发的记录
func (r *GormNotificationOutboxRepository) ListDue(filter OutboxListFilter) ([]models.NotificationOutbox, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	var rows []models.NotificationOutbox
	if err := r.db.Where("status = ? AND available_at <= ?", constants.OutboxStatusPending, filter.AvailableBefore).
		Order("id ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ResetStale 将长时间停留在 processing 的记录放回 pending
func (r *GormNotificationOutboxRepository) ResetStale(staleBefore time.Time) (int64, error) {
	result := r.db.Model(&models.NotificationOutbox{}).
		Where("status = ? AND updated_at <= ?", constants.OutboxStatusProcessing, staleBefore).
		Updates(map[string]interface{}{
			"status":     constants.OutboxStatusPending,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
