package models

import "time"

// SolarTerm 节气
type SolarTerm struct {
	ID        uint      `gorm:"primarykey" json:"id"`                       // 主键
	Name      string    `gorm:"type:varchar(32);not null" json:"name"`      // 名称，例如 立春
	Year      int       `gorm:"index;not null" json:"year"`                 // 年份
	StartTime time.Time `gorm:"index;not null" json:"start_time"`           // 开始时间
	EndTime   time.Time `gorm:"not null" json:"end_time"`                   // 结束时间
	IsActive  bool      `gorm:"index;not null;default:true" json:"is_active"` // 是否参与排期
	SortOrder int       `gorm:"default:0" json:"sort_order"`                // 排序
	CreatedAt time.Time `json:"created_at"`                                 // 创建时间
	UpdatedAt time.Time `json:"updated_at"`                                 // 更新时间
}

// TableName 指定表名
func (SolarTerm) TableName() string {
	return "solar_terms"
}
