package models

import (
	"time"

	"gorm.io/gorm"
)

// SubscriptionProduct 订阅轮换内容（每期配送的具体商品）
type SubscriptionProduct struct {
	ID        uint           `gorm:"primarykey" json:"id"`                   // 主键
	Name      string         `gorm:"type:varchar(128);not null" json:"name"` // 名称
	Stock     int            `gorm:"not null;default:0" json:"stock"`        // 库存
	IsActive  bool           `gorm:"not null;default:true" json:"is_active"` // 是否启用
	SortOrder int            `gorm:"default:0;index" json:"sort_order"`      // 排序
	CreatedAt time.Time      `gorm:"index" json:"created_at"`                // 创建时间
	UpdatedAt time.Time      `gorm:"index" json:"updated_at"`                // 更新时间
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`                         // 软删除时间
}

// TableName 指定表名
func (SubscriptionProduct) TableName() string {
	return "subscription_products"
}
