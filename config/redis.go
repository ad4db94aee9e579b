// Package config 站点配置信息
package config

import "difypipe/pkg/config"

func init() {
	config.Add("redis", func() map[string]interface{} {
		return map[string]interface{}{

			// Redis 仅用于限流存储，host 为空时退化为内存限流
			"host":     config.Env("REDIS_HOST", ""),
			"port":     config.Env("REDIS_PORT", "6379"),
			"username": config.Env("REDIS_USERNAME", ""),
			"password": config.Env("REDIS_PASSWORD", ""),
			"database": config.Env("REDIS_MAIN_DB", 0),
		}
	})
}
