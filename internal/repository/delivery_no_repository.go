package repository

import (
	"fmt"
	"strings"
	"time"

	"github.com/shiling-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DeliveryNoRepository 配送单号日序列
type DeliveryNoRepository interface {
	Reserve(dayPrefix string, count int) (int64, error)
	WithTx(tx *gorm.DB) *GormDeliveryNoRepository
}

// GormDeliveryNoRepository GORM 实现
type GormDeliveryNoRepository struct {
	db *gorm.DB
}

// NewDeliveryNoRepository 创建单号序列仓库
func NewDeliveryNoRepository(db *gorm.DB) *GormDeliveryNoRepository {
	return &GormDeliveryNoRepository{db: db}
}

// WithTx 绑定事务
func (r *GormDeliveryNoRepository) WithTx(tx *gorm.DB) *GormDeliveryNoRepository {
	if tx == nil {
		return r
	}
	return &GormDeliveryNoRepository{db: tx}
}

// Reserve 为当日前缀预留 count 个连续序号，返回第一个序号
// 计数行不存在时按已使用该前缀的单号数量初始化，之后只做原子自增
func (r *GormDeliveryNoRepository) Reserve(dayPrefix string, count int) (int64, error) {
	dayPrefix = strings.TrimSpace(dayPrefix)
	if dayPrefix == "" {
		return 0, fmt.Errorf("delivery no prefix is empty")
	}
	if count <= 0 {
		return 0, fmt.Errorf("invalid reserve count: %d", count)
	}

	affected, err := r.advance(dayPrefix, count)
	if err != nil {
		return 0, err
	}
	if affected == 0 {
		used, err := NewDeliveryPlanRepository(r.db).CountByDeliveryNoPrefix(dayPrefix)
		if err != nil {
			return 0, err
		}
		seed := models.DeliveryNoSequence{DayPrefix: dayPrefix, LastValue: used, UpdatedAt: time.Now()}
		if err := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
			return 0, err
		}
		affected, err = r.advance(dayPrefix, count)
		if err != nil {
			return 0, err
		}
		if affected == 0 {
			return 0, fmt.Errorf("reserve delivery no failed for prefix %s", dayPrefix)
		}
	}

	var seq models.DeliveryNoSequence
	if err := r.db.Where("day_prefix = ?", dayPrefix).First(&seq).Error; err != nil {
		return 0, err
	}
	return seq.LastValue - int64(count) + 1, nil
}

func (r *GormDeliveryNoRepository) advance(dayPrefix string, count int) (int64, error) {
	result := r.db.Model(&models.DeliveryNoSequence{}).
		Where("day_prefix = ?", dayPrefix).
		Updates(map[string]interface{}{
			"last_value": gorm.Expr("last_value + ?", count),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
