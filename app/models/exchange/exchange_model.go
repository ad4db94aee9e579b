// Package exchange 消息交换记录
package exchange

import (
	"difypipe/app/models"
)

// 交换状态
const (
	StatusOK    = "ok"    // 正常完成
	StatusError = "error" // 上游返回了错误片段
)

// Exchange 一次消息交换的审计记录
type Exchange struct {
	ID         uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	UserEmail  string `gorm:"type:varchar(255);index" json:"user"`     // 调用方邮箱
	Mode       string `gorm:"type:varchar(20);index" json:"mode"`      // 请求模式
	Question   string `gorm:"type:text" json:"question"`               // 用户消息
	AnswerSize int    `json:"answer_size"`                             // 产出内容总长度
	Fragments  int    `json:"fragments"`                               // 片段数量
	Status     string `gorm:"type:varchar(20);index" json:"status"`    // 完成状态
	DurationMS int64  `json:"duration_ms"`                             // 耗时，毫秒

	models.CommonTimestampsField
}

// TableName 指定表名
func (Exchange) TableName() string {
	return "pipeline_exchanges"
}
