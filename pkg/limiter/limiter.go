// Package limiter 处理限流逻辑
package limiter

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	limiterlib "github.com/ulule/limiter/v3"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"difypipe/pkg/config"
	"difypipe/pkg/logger"
	"difypipe/pkg/redis"
)

// Rate 限流速率，折算为每秒请求数
type Rate struct {
	Rate float64
}

// ParseLimit 解析限流配置字符串
// 支持的格式: "5-S"、"10-M"、"1000-H"、"2000-D"
func ParseLimit(limit string) (*Rate, error) {
	// ulule 的格式与我们一致，直接交给它解析
	rate, err := limiterlib.NewRateFromFormatted(limit)
	if err != nil {
		return nil, fmt.Errorf("invalid limit format %q: %w", limit, err)
	}

	return &Rate{
		Rate: float64(rate.Limit) / rate.Period.Seconds(),
	}, nil
}

// GetKeyIP 获取限流的 Key，IP
func GetKeyIP(c *gin.Context) string {
	return c.ClientIP()
}

// GetKeyRouteWithIP 限流的 Key，路由+IP，针对单个路由做限流
func GetKeyRouteWithIP(c *gin.Context) string {
	return routeToKeyString(c.FullPath()) + c.ClientIP()
}

// CheckRate 基于 Redis 存储检测请求是否超额
// 仅在 Redis 已连接时可用，调用方需要自行降级
func CheckRate(c *gin.Context, key string, formatted string) (limiterlib.Context, error) {
	var context limiterlib.Context

	rate, err := limiterlib.NewRateFromFormatted(formatted)
	if err != nil {
		logger.LogIf(err)
		return context, err
	}

	// 使用程序里共用的 redis.Redis 对象初始化存储
	store, err := sredis.NewStoreWithOptions(redis.Redis.Client, limiterlib.StoreOptions{
		// 为 limiter 设置前缀，保持 redis 里数据的整洁
		Prefix: config.GetString("app.name") + ":limiter",
	})
	if err != nil {
		logger.LogIf(err)
		return context, err
	}

	limiterObj := limiterlib.New(store, rate)

	// 确保多个路由组里调用限流时，只增加一次访问次数
	if c.GetBool("limiter-once") {
		// Peek() 取结果，不增加访问次数
		return limiterObj.Peek(c, key)
	}
	c.Set("limiter-once", true)

	// Get() 取结果且增加访问次数
	return limiterObj.Get(c, key)
}

// routeToKeyString 辅助方法，将 URL 中的 / 格式为 -
func routeToKeyString(routeName string) string {
	routeName = strings.ReplaceAll(routeName, "/", "-")
	routeName = strings.ReplaceAll(routeName, ":", "_")
	return routeName
}
