package models

import "time"

// NotificationLog 订阅消息发送记录
type NotificationLog struct {
	ID           uint      `gorm:"primarykey" json:"id"`                           // 主键
	UserID       uint      `gorm:"index;not null" json:"user_id"`                  // 用户ID
	TemplateID   string    `gorm:"type:varchar(64);index" json:"template_id"`      // 模板ID
	Scene        string    `gorm:"type:varchar(40);index;not null" json:"scene"`   // 业务场景
	BizID        string    `gorm:"type:varchar(64);index" json:"biz_id"`           // 业务ID
	Status       string    `gorm:"type:varchar(20);index;not null" json:"status"`  // no_permission/success/failed
	Params       JSON      `gorm:"type:json" json:"params"`                        // 发送参数
	ErrorMessage string    `gorm:"type:varchar(500)" json:"error_message,omitempty"` // 失败原因
	CreatedAt    time.Time `gorm:"index" json:"created_at"`                        // 创建时间
}

// TableName 指定表名
func (NotificationLog) TableName() string {
	return "notification_logs"
}
