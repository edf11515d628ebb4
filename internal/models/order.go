package models

import (
	"time"

	"gorm.io/gorm"
)

// Order 订单表
// 收货信息快照在下单时写入，支付确认时只读
type Order struct {
	ID                   uint           `gorm:"primarykey" json:"id"`                                      // 主键
	OrderNo              string         `gorm:"uniqueIndex;not null" json:"order_no"`                      // 订单编号
	UserID               uint           `gorm:"index;not null" json:"user_id"`                             // 下单用户ID（赠礼人）
	Status               int            `gorm:"index;not null;default:0" json:"status"`                    // 订单状态
	IsGift               bool           `gorm:"not null;default:false" json:"is_gift"`                     // 是否礼物订单
	GiftType             int            `gorm:"not null;default:0" json:"gift_type"`                       // 礼物类型：1 单人专属 2 多人领取
	GiftMessage          string         `gorm:"type:varchar(255)" json:"gift_message,omitempty"`           // 赠言
	TotalAmount          Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"` // 实付金额
	PaymentTransactionID string         `gorm:"type:varchar(64);index" json:"payment_transaction_id"`      // 支付渠道交易号
	PayerIdentity        string         `gorm:"type:varchar(128)" json:"payer_identity,omitempty"`         // 付款方标识
	ReceiverName         string         `gorm:"type:varchar(64)" json:"receiver_name"`                     // 收货人快照
	ReceiverPhone        string         `gorm:"type:varchar(32)" json:"receiver_phone"`                    // 收货电话快照
	ReceiverProvince     string         `gorm:"type:varchar(64)" json:"receiver_province"`                 // 省
	ReceiverCity         string         `gorm:"type:varchar(64)" json:"receiver_city"`                     // 市
	ReceiverDistrict     string         `gorm:"type:varchar(64)" json:"receiver_district"`                 // 区
	ReceiverAddress      string         `gorm:"type:varchar(255)" json:"receiver_address"`                 // 详细地址
	PaidAt               *time.Time     `gorm:"index" json:"paid_at"`                                      // 支付时间
	GiftExpiredAt        *time.Time     `gorm:"index" json:"gift_expired_at,omitempty"`                    // 礼物过期标记时间
	CompletedAt          *time.Time     `json:"completed_at,omitempty"`                                    // 完成时间
	CanceledAt           *time.Time     `json:"canceled_at,omitempty"`                                     // 取消时间
	CreatedAt            time.Time      `gorm:"index" json:"created_at"`                                   // 创建时间
	UpdatedAt            time.Time      `gorm:"index" json:"updated_at"`                                   // 更新时间
	DeletedAt            gorm.DeletedAt `gorm:"index" json:"-"`                                            // 软删除时间

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"` // 订单项
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}

// AddressSnapshot 返回下单时的收货信息快照
func (o *Order) AddressSnapshot() ShippingAddress {
	if o == nil {
		return ShippingAddress{}
	}
	return ShippingAddress{
		Name:     o.ReceiverName,
		Phone:    o.ReceiverPhone,
		Province: o.ReceiverProvince,
		City:     o.ReceiverCity,
		District: o.ReceiverDistrict,
		Detail:   o.ReceiverAddress,
	}
}
