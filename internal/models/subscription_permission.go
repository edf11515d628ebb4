package models

import "time"

// SubscriptionPermission 用户订阅消息授权次数
type SubscriptionPermission struct {
	ID             uint      `gorm:"primarykey" json:"id"`                                                   // 主键
	UserID         uint      `gorm:"not null;uniqueIndex:idx_sub_perm_user_template" json:"user_id"`         // 用户ID
	TemplateID     string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_sub_perm_user_template" json:"template_id"` // 模板ID
	AvailableCount int       `gorm:"not null;default:0" json:"available_count"`                              // 剩余可发送次数
	CreatedAt      time.Time `json:"created_at"`                                                             // 创建时间
	UpdatedAt      time.Time `json:"updated_at"`                                                             // 更新时间
}

// TableName 指定表名
func (SubscriptionPermission) TableName() string {
	return "subscription_permissions"
}
