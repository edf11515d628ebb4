package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// ShippingAddress 收货信息
type ShippingAddress struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Province string `json:"province"`
	City     string `json:"city"`
	District string `json:"district"`
	Detail   string `json:"detail"`
}

// IsEmpty 是否缺少必要的收货信息
func (a ShippingAddress) IsEmpty() bool {
	return strings.TrimSpace(a.Name) == "" || strings.TrimSpace(a.Phone) == "" || strings.TrimSpace(a.Detail) == ""
}

// UserAddress 用户收货地址
type UserAddress struct {
	ID        uint           `gorm:"primarykey" json:"id"`                      // 主键
	UserID    uint           `gorm:"index;not null" json:"user_id"`             // 用户ID
	Name      string         `gorm:"type:varchar(64);not null" json:"name"`     // 收货人
	Phone     string         `gorm:"type:varchar(32);not null" json:"phone"`    // 电话
	Province  string         `gorm:"type:varchar(64)" json:"province"`          // 省
	City      string         `gorm:"type:varchar(64)" json:"city"`              // 市
	District  string         `gorm:"type:varchar(64)" json:"district"`          // 区
	Detail    string         `gorm:"type:varchar(255);not null" json:"detail"`  // 详细地址
	IsDefault bool           `gorm:"index;not null;default:false" json:"is_default"` // 是否默认
	CreatedAt time.Time      `gorm:"index" json:"created_at"`                   // 创建时间
	UpdatedAt time.Time      `gorm:"index" json:"updated_at"`                   // 更新时间
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`                            // 软删除时间
}

// TableName 指定表名
func (UserAddress) TableName() string {
	return "user_addresses"
}
