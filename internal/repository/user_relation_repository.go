package repository

import (
	"time"

	"github.com/shiling-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRelationRepository 用户关系数据访问接口
type UserRelationRepository interface {
	EnsurePair(userID, relatedUserID uint, relationType string, sourceOrderID uint) error
	Exists(userID, relatedUserID uint) (bool, error)
	WithTx(tx *gorm.DB) *GormUserRelationRepository
}

// GormUserRelationRepository GORM 实现
type GormUserRelationRepository struct {
	db *gorm.DB
}

// NewUserRelationRepository 创建用户关系仓库
func NewUserRelationRepository(db *gorm.DB) *GormUserRelationRepository {
	return &GormUserRelationRepository{db: db}
}

// WithTx 绑定事务
func (r *GormUserRelationRepository) WithTx(tx *gorm.DB) *GormUserRelationRepository {
	if tx == nil {
		return r
	}
	return &GormUserRelationRepository{db: tx}
}

// EnsurePair 建立双向关系，已存在时忽略
func (r *GormUserRelationRepository) EnsurePair(userID, relatedUserID uint, relationType string, sourceOrderID uint) error {
	now := time.Now()
	rows := []models.UserRelation{
		{UserID: userID, RelatedUserID: relatedUserID, RelationType: relationType, SourceOrderID: sourceOrderID, CreatedAt: now},
		{UserID: relatedUserID, RelatedUserID: userID, RelationType: relationType, SourceOrderID: sourceOrderID, CreatedAt: now},
	}
	return r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}

// Exists 判断关系是否存在
func (r *GormUserRelationRepository) Exists(userID, relatedUserID uint) (bool, error) {
	var count int64
	if err := r.db.Model(&models.UserRelation{}).
		Where("user_id = ? AND related_user_id = ?", userID, relatedUserID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
