// Package migrations 注册需要自动迁移的数据表
package migrations

import (
	"difypipe/app/models/exchange"
)

// RegisterTables 返回所有需要 AutoMigrate 的模型
func RegisterTables() []interface{} {
	return []interface{}{
		&exchange.Exchange{},
	}
}
