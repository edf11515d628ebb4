package models

import (
	"time"

	"gorm.io/gorm"
)

// Product 商品表（只保留履约需要的订阅策略字段）
type Product struct {
	ID               uint           `gorm:"primarykey" json:"id"`                                          // 主键
	Name             string         `gorm:"type:varchar(128);not null" json:"name"`                        // 商品名称
	PriceAmount      Money          `gorm:"type:decimal(20,2);not null;default:0" json:"price_amount"`     // 售价
	IsSubscription   bool           `gorm:"not null;default:false" json:"is_subscription"`                 // 是否订阅商品
	MaxDeliveries    int            `gorm:"not null;default:1" json:"max_deliveries"`                      // 配送次数
	DeliveryType     string         `gorm:"type:varchar(20);not null;default:'once'" json:"delivery_type"` // 配送方式
	DeliveryInterval int            `gorm:"not null;default:0" json:"delivery_interval"`                   // 配送间隔（天）
	IsActive         bool           `gorm:"not null;default:true" json:"is_active"`                        // 是否上架
	CreatedAt        time.Time      `gorm:"index" json:"created_at"`                                       // 创建时间
	UpdatedAt        time.Time      `gorm:"index" json:"updated_at"`                                       // 更新时间
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`                                                // 软删除时间
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}
