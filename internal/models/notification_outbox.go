package models

import "time"

// NotificationOutbox 通知发件箱，随业务事务写入，提交后异步派发
type NotificationOutbox struct {
	ID          uint      `gorm:"primarykey" json:"id"`                                     // 主键
	Scene       string    `gorm:"type:varchar(40);not null" json:"scene"`                   // 业务场景
	UserID      uint      `gorm:"index;not null" json:"user_id"`                            // 接收用户ID
	BizID       string    `gorm:"type:varchar(64)" json:"biz_id"`                           // 业务ID
	Payload     JSON      `gorm:"type:json" json:"payload"`                                 // 业务载荷
	Status      string    `gorm:"type:varchar(20);index;not null;default:'pending'" json:"status"` // 状态
	Attempts    int       `gorm:"not null;default:0" json:"attempts"`                       // 派发次数
	LastError   string    `gorm:"type:varchar(500)" json:"last_error,omitempty"`            // 最近一次错误
	AvailableAt time.Time `gorm:"index" json:"available_at"`                                // 可派发时间
	CreatedAt   time.Time `gorm:"index" json:"created_at"`                                  // 创建时间
	UpdatedAt   time.Time `json:"updated_at"`                                               // 更新时间
}

// TableName 指定表名
func (NotificationOutbox) TableName() string {
	return "notification_outbox"
}
