package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/shiling-next/internal/models"

	"gorm.io/gorm"
)

// UserRepository 用户数据访问接口
type UserRepository interface {
	GetByID(id uint) (*models.User, error)
	FillProfile(id uint, nickname, avatar string) (int64, error)
	WithTx(tx *gorm.DB) *GormUserRepository
}

// GormUserRepository GORM 实现
type GormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建用户仓库
func NewUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// WithTx 绑定事务
func (r *GormUserRepository) WithTx(tx *gorm.DB) *GormUserRepository {
	if tx == nil {
		return r
	}
	return &GormUserRepository{db: tx}
}

// GetByID 根据 ID 获取用户
func (r *GormUserRepository) GetByID(id uint) (*models.User, error) {
	if id == 0 {
		return nil, nil
	}
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// FillProfile 仅补全为空的昵称与头像，不覆盖用户已有资料
func (r *GormUserRepository) FillProfile(id uint, nickname, avatar string) (int64, error) {
	nickname = strings.TrimSpace(nickname)
	avatar = strings.TrimSpace(avatar)
	if id == 0 || (nickname == "" && avatar == "") {
		return 0, nil
	}
	var affected int64
	if nickname != "" {
		result := r.db.Model(&models.User{}).
			Where("id = ? AND (nickname IS NULL OR nickname = '')", id).
			Updates(map[string]interface{}{"nickname": nickname, "updated_at": time.Now()})
		if result.Error != nil {
			return 0, result.Error
		}
		affected += result.RowsAffected
	}
	if avatar != "" {
		result := r.db.Model(&models.User{}).
			Where("id = ? AND (avatar IS NULL OR avatar = '')", id).
			Updates(map[string]interface{}{"avatar": avatar, "updated_at": time.Now()})
		if result.Error != nil {
			return 0, result.Error
		}
		affected += result.RowsAffected
	}
	return affected, nil
}
