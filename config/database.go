// Package config 站点配置信息
package config

import "difypipe/pkg/config"

func init() {
	config.Add("database", func() map[string]interface{} {
		return map[string]interface{}{

			// 交换记录使用的数据库，可选：off（不落库）, sqlite, postgresql
			"connection": config.Env("DB_CONNECTION", "off"),

			"sqlite": map[string]interface{}{
				"database": config.Env("DB_SQL_FILE", "storage/database.db"),
			},

			"postgresql": map[string]interface{}{
				"host":     config.Env("DB_HOST", "127.0.0.1"),
				"port":     config.Env("DB_PORT", "5432"),
				"database": config.Env("DB_DATABASE", "difypipe"),
				"username": config.Env("DB_USERNAME", ""),
				"password": config.Env("DB_PASSWORD", ""),

				// 连接池配置
				"max_idle_connections": config.Env("DB_MAX_IDLE_CONNECTIONS", 25),
				"max_open_connections": config.Env("DB_MAX_OPEN_CONNECTIONS", 50),
				"max_life_seconds":     config.Env("DB_MAX_LIFE_SECONDS", 300),
			},
		}
	})
}
