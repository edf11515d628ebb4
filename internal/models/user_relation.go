package models

import "time"

// UserRelation 用户关系（赠礼双方互相关联）
type UserRelation struct {
	ID            uint      `gorm:"primarykey" json:"id"`                                             // 主键
	UserID        uint      `gorm:"not null;uniqueIndex:idx_user_relation_pair" json:"user_id"`       // 用户ID
	RelatedUserID uint      `gorm:"not null;uniqueIndex:idx_user_relation_pair" json:"related_user_id"` // 关联用户ID
	RelationType  string    `gorm:"type:varchar(20);not null" json:"relation_type"`                   // 关系类型
	SourceOrderID uint      `gorm:"index" json:"source_order_id"`                                     // 首次建立关系的订单
	CreatedAt     time.Time `json:"created_at"`                                                       // 创建时间
}

// TableName 指定表名
func (UserRelation) TableName() string {
	return "user_relations"
}
