package models

import "time"

// DeliveryNoSequence 配送单号日序列
type DeliveryNoSequence struct {
	DayPrefix string    `gorm:"primaryKey;type:varchar(24)" json:"day_prefix"` // 日期前缀
	LastValue int64     `gorm:"not null;default:0" json:"last_value"`          // 当日已分配的最大序号
	UpdatedAt time.Time `json:"updated_at"`                                    // 更新时间
}

// TableName 指定表名
func (DeliveryNoSequence) TableName() string {
	return "delivery_no_sequences"
}
