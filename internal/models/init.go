package models

import (
	"strings"

	"github.com/shiling-next/internal/logger"
)

// InitDefaultAdmin 初始化默认运营账号
// 账号不存在时创建超级管理员记录，已有账号时保证其超级管理员标记
func InitDefaultAdmin(username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		username = "admin"
	}

	var existing Admin
	result := DB.Where("username = ?", username).Limit(1).Find(&existing)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		if !existing.IsSuper {
			if err := DB.Model(&Admin{}).Where("id = ?", existing.ID).Update("is_super", true).Error; err != nil {
				logger.Warnw("ensure_default_admin_super_failed", "username", username, "error", err)
			}
		}
		return nil
	}

	admin := Admin{Username: username, IsSuper: true}
	if err := DB.Create(&admin).Error; err != nil {
		return err
	}
	logger.Warnw("default_admin_created", "username", username, "admin_id", admin.ID)
	return nil
}
