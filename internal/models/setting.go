package models

import "time"

// Setting 本地键值存储表
type Setting struct {
	Key       string    `gorm:"primarykey;type:varchar(120)" json:"key"` // 键
	Value     string    `gorm:"type:text" json:"value"`                  // 序列化后的值
	UpdatedAt time.Time `json:"updated_at"`                              // 更新时间
}

// TableName 指定表名
func (Setting) TableName() string {
	return "settings"
}
