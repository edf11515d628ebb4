package models

import (
	"time"

	"gorm.io/gorm"
)

// OrderItem 订单项表
// 订阅字段在支付确认时从商品复制，之后商品变更不影响已购订单项
type OrderItem struct {
	ID                uint           `gorm:"primarykey" json:"id"`                                          // 主键
	OrderID           uint           `gorm:"index;not null" json:"order_id"`                                // 订单ID
	ProductID         uint           `gorm:"index;not null" json:"product_id"`                              // 商品ID
	ProductName       string         `gorm:"type:varchar(128);not null" json:"product_name"`                // 商品名称快照
	UnitPrice         Money          `gorm:"type:decimal(20,2);not null;default:0" json:"unit_price"`       // 单价
	Quantity          int            `gorm:"not null;default:1" json:"quantity"`                            // 数量
	GiftStatus        int            `gorm:"index;not null;default:0" json:"gift_status"`                   // 领取状态：0 待领取 1 已领取
	ReceiverID        *uint          `gorm:"index" json:"receiver_id,omitempty"`                            // 领取人ID
	ReceivedAt        *time.Time     `json:"received_at,omitempty"`                                         // 领取时间
	IsSubscription    bool           `gorm:"not null;default:false" json:"is_subscription"`                 // 是否订阅商品
	DeliveriesPerUnit int            `gorm:"not null;default:1" json:"deliveries_per_unit"`                 // 每份配送次数
	TotalDeliveries   int            `gorm:"not null;default:1" json:"total_deliveries"`                    // 总配送次数，生成计划后等于计划数
	DeliveredCount    int            `gorm:"not null;default:0" json:"delivered_count"`                     // 已发货次数
	DeliveryType      string         `gorm:"type:varchar(20);not null;default:'once'" json:"delivery_type"` // 配送方式
	DeliveryInterval  int            `gorm:"not null;default:0" json:"delivery_interval"`                   // 配送间隔（天）
	CreatedAt         time.Time      `gorm:"index" json:"created_at"`                                       // 创建时间
	UpdatedAt         time.Time      `gorm:"index" json:"updated_at"`                                       // 更新时间
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`                                                // 软删除时间

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"` // 商品
}

// TableName 指定表名
func (OrderItem) TableName() string {
	return "order_items"
}

// FullyDelivered 是否已完成全部配送
func (i *OrderItem) FullyDelivered() bool {
	if i == nil {
		return false
	}
	return i.DeliveredCount >= i.TotalDeliveries
}
