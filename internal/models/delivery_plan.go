package models

import (
	"time"

	"gorm.io/gorm"
)

// DeliveryPlan 配送计划表
// delivery_no 仅在运营确认后写入，且 status >= 1 时必然存在
type DeliveryPlan struct {
	ID                    uint           `gorm:"primarykey" json:"id"`                                    // 主键
	DeliveryNo            *string        `gorm:"type:varchar(32);uniqueIndex" json:"delivery_no"`         // 配送单号
	OrderID               uint           `gorm:"index;not null" json:"order_id"`                          // 订单ID
	OrderItemID           uint           `gorm:"index;not null" json:"order_item_id"`                     // 订单项ID
	UserID                uint           `gorm:"index;not null" json:"user_id"`                           // 收货用户ID
	Status                int            `gorm:"index;not null;default:0" json:"status"`                  // 状态
	DeliverySequence      int            `gorm:"not null;default:1" json:"delivery_sequence"`             // 第几次配送
	PlanStartAt           time.Time      `gorm:"index;not null" json:"plan_start_at"`                     // 计划开始
	PlanEndAt             time.Time      `gorm:"not null" json:"plan_end_at"`                             // 计划结束
	ReceiverName          string         `gorm:"type:varchar(64)" json:"receiver_name"`                   // 收货人
	ReceiverPhone         string         `gorm:"type:varchar(32)" json:"receiver_phone"`                  // 收货电话
	ReceiverProvince      string         `gorm:"type:varchar(64)" json:"receiver_province"`               // 省
	ReceiverCity          string         `gorm:"type:varchar(64)" json:"receiver_city"`                   // 市
	ReceiverDistrict      string         `gorm:"type:varchar(64)" json:"receiver_district"`               // 区
	ReceiverAddress       string         `gorm:"type:varchar(255)" json:"receiver_address"`               // 详细地址
	SolarTermID           *uint          `gorm:"index" json:"solar_term_id,omitempty"`                    // 节气ID
	SubscriptionProductID *uint          `gorm:"index" json:"subscription_product_id,omitempty"`          // 本期配送内容
	CarrierName           string         `gorm:"type:varchar(64)" json:"carrier_name,omitempty"`          // 承运商
	TrackingNo            string         `gorm:"type:varchar(64)" json:"tracking_no,omitempty"`           // 运单号
	Note                  string         `gorm:"type:varchar(255)" json:"note,omitempty"`                 // 备注
	ConfirmedAt           *time.Time     `json:"confirmed_at,omitempty"`                                  // 确认时间
	ShippedAt             *time.Time     `json:"shipped_at,omitempty"`                                    // 发货时间
	CreatedAt             time.Time      `gorm:"index" json:"created_at"`                                 // 创建时间
	UpdatedAt             time.Time      `gorm:"index" json:"updated_at"`                                 // 更新时间
	DeletedAt             gorm.DeletedAt `gorm:"index" json:"-"`                                          // 软删除时间
}

// TableName 指定表名
func (DeliveryPlan) TableName() string {
	return "delivery_plans"
}

// ApplyAddress 写入收货信息快照
func (p *DeliveryPlan) ApplyAddress(addr ShippingAddress) {
	p.ReceiverName = addr.Name
	p.ReceiverPhone = addr.Phone
	p.ReceiverProvince = addr.Province
	p.ReceiverCity = addr.City
	p.ReceiverDistrict = addr.District
	p.ReceiverAddress = addr.Detail
}
