package bootstrap

import (
	"fmt"

	"difypipe/pkg/config"
	"difypipe/pkg/logger"
	"difypipe/pkg/redis"
)

// SetupRedis 初始化 Redis
// Redis 仅用于限流存储，未配置 host 时跳过，限流退化为内存模式
func SetupRedis() {
	host := config.GetString("redis.host")
	if host == "" {
		logger.InfoString("Redis", "Setup", "未配置 Redis，限流使用内存存储")
		return
	}

	redis.ConnectRedis(
		fmt.Sprintf("%v:%v", host, config.GetString("redis.port")),
		config.GetString("redis.username"),
		config.GetString("redis.password"),
		config.GetInt("redis.database"),
	)
}
