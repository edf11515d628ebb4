package models

import (
	"time"

	"gorm.io/gorm"
)

// User 用户表（只保留履约与通知需要的字段）
type User struct {
	ID        uint           `gorm:"primarykey" json:"id"`                          // 主键
	Nickname  string         `gorm:"type:varchar(64);default:''" json:"nickname"`   // 昵称
	Avatar    string         `gorm:"type:varchar(500);default:''" json:"avatar"`    // 头像
	Phone     string         `gorm:"type:varchar(32);index" json:"phone,omitempty"` // 手机号
	OpenID    string         `gorm:"type:varchar(64);index" json:"-"`               // 小程序 openid
	Locale    string         `gorm:"type:varchar(20);default:'zh-CN'" json:"locale"` // 语言偏好
	CreatedAt time.Time      `gorm:"index" json:"created_at"`                       // 创建时间
	UpdatedAt time.Time      `gorm:"index" json:"updated_at"`                       // 更新时间
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`                                // 软删除时间
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}
