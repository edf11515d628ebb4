package repository

import (
	"time"

	"github.com/shiling-next/internal/models"

	"gorm.io/gorm"
)

// SolarTermRepository 节气日历数据访问接口
type SolarTermRepository interface {
	ListActiveFrom(from time.Time, years []int, limit int) ([]models.SolarTerm, error)
	CreateBatch(terms []models.SolarTerm) error
	WithTx(tx *gorm.DB) *GormSolarTermRepository
}

// GormSolarTermRepository GORM 实现
type GormSolarTermRepository struct {
	db *gorm.DB
}

// NewSolarTermRepository 创建节气仓库
func NewSolarTermRepository(db *gorm.DB) *GormSolarTermRepository {
	return &GormSolarTermRepository{db: db}
}

// WithTx 绑定事务
func (r *GormSolarTermRepository) WithTx(tx *gorm.DB) *GormSolarTermRepository {
	if tx == nil {
		return r
	}
	return &GormSolarTermRepository{db: tx}
}

// ListActiveFrom 获取 from 之后开始的启用节气，按开始时间升序
func (r *GormSolarTermRepository) ListActiveFrom(from time.Time, years []int, limit int) ([]models.SolarTerm, error) {
	query := r.db.Model(&models.SolarTerm{}).
		Where("is_active = ? AND start_time >= ?", true, from)
	if len(years) > 0 {
		query = query.Where("year IN ?", years)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	var terms []models.SolarTerm
	if err := query.Order("start_time ASC, id ASC").Find(&terms).Error; err != nil {
		return nil, err
	}
	return terms, nil
}

// CreateBatch 批量写入节气
func (r *GormSolarTermRepository) CreateBatch(terms []models.SolarTerm) error {
	if len(terms) == 0 {
		return nil
	}
	return r.db.Create(&terms).Error
}
