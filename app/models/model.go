// Package models 模型通用属性和方法
package models

import "time"

// CommonTimestampsField 通用时间戳字段
type CommonTimestampsField struct {
	CreatedAt time.Time `gorm:"column:created_at;index" json:"created_at,omitempty"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at,omitempty"`
}
