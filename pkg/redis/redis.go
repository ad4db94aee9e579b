// Package redis 提供 Redis 连接的工具包，本项目仅用于限流存储
package redis

import (
	"context"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"

	"difypipe/pkg/logger"
)

// 关键配置常量
const (
	// DefaultPoolSize Redis 连接池大小
	DefaultPoolSize = 50
	// DefaultMinIdleConns 最小空闲连接数
	DefaultMinIdleConns = 5
	// DefaultTimeout 默认操作超时时间
	DefaultTimeout = 5 * time.Second
)

// RedisClient Redis 客户端封装
type RedisClient struct {
	Client  *redis.Client
	Context context.Context
}

var (
	once sync.Once
	// Redis 全局客户端对象，未配置 Redis 时为 nil
	Redis *RedisClient
)

// ConnectRedis 初始化 Redis 连接
func ConnectRedis(address, username, password string, db int) {
	once.Do(func() {
		Redis = NewClient(address, username, password, db)
	})
}

// NewClient 创建新的 Redis 客户端
func NewClient(address, username, password string, db int) *RedisClient {
	rds := &RedisClient{
		Context: context.Background(),
	}

	rds.Client = redis.NewClient(&redis.Options{
		Addr:         address,
		Username:     username,
		Password:     password,
		DB:           db,
		PoolSize:     DefaultPoolSize,
		MinIdleConns: DefaultMinIdleConns,
		PoolTimeout:  DefaultTimeout,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	// 测试连接，失败只记录日志，限流会退化为内存存储
	if err := rds.Ping(rds.Context); err != nil {
		logger.ErrorString("Redis", "连接", err.Error())
	}

	return rds
}

// Ping 检测 Redis 连接是否正常
func (rds *RedisClient) Ping(ctx context.Context) error {
	return rds.Client.Ping(ctx).Err()
}
