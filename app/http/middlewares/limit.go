package middlewares

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"
	"golang.org/x/time/rate"

	"difypipe/pkg/app"
	"difypipe/pkg/limiter"
	"difypipe/pkg/logger"
	"difypipe/pkg/redis"
	"difypipe/pkg/response"
)

// DefaultBurst 内存限流的默认突发请求数量
const DefaultBurst = 20

// 内存限流器缓存，key 为限流键
var limiters sync.Map

// LimitIP 全局限流中间件，针对 IP 进行限流
//
// 支持的限流格式:
// - 5 reqs/second:   "5-S"
// - 10 reqs/minute:  "10-M"
// - 1000 reqs/hour:  "1000-H"
// - 2000 reqs/day:   "2000-D"
//
// Redis 已连接时使用 Redis 存储（多实例共享计数），
// 否则退化为进程内的令牌桶
func LimitIP(limit string) gin.HandlerFunc {
	// 测试环境使用较大限制
	if app.IsTesting() {
		limit = "1000000-H"
	}

	return func(c *gin.Context) {
		if !allow(c, limiter.GetKeyIP(c), limit) {
			return
		}
		c.Next()
	}
}

// LimitPerRoute 针对单个路由的限流中间件，基于 IP + 路由路径
func LimitPerRoute(limit string) gin.HandlerFunc {
	if app.IsTesting() {
		limit = "1000000-H"
	}

	return func(c *gin.Context) {
		if !allow(c, limiter.GetKeyRouteWithIP(c), limit) {
			return
		}
		c.Next()
	}
}

// allow 执行一次限流判定，超额时直接响应 429 并中止请求
func allow(c *gin.Context, key string, limit string) bool {
	if redis.Redis != nil {
		return allowByRedis(c, key, limit)
	}
	return allowByMemory(c, key, limit)
}

// allowByRedis 使用 Redis 存储的限流判定
func allowByRedis(c *gin.Context, key string, limit string) bool {
	result, err := limiter.CheckRate(c, key, limit)
	if err != nil {
		logger.ErrorString("限流器", "Redis 判定失败", err.Error())
		// 降级处理：允许请求通过
		return true
	}

	c.Header("X-RateLimit-Limit", cast.ToString(result.Limit))
	c.Header("X-RateLimit-Remaining", cast.ToString(result.Remaining))
	c.Header("X-RateLimit-Reset", cast.ToString(result.Reset))

	if result.Reached {
		abortTooManyRequests(c)
		return false
	}
	return true
}

// allowByMemory 进程内令牌桶的限流判定
func allowByMemory(c *gin.Context, key string, limit string) bool {
	lim, err := getMemoryLimiter(key, limit)
	if err != nil {
		logger.ErrorString("限流器", "创建失败", err.Error())
		// 降级处理：允许请求通过
		return true
	}

	if !lim.Allow() {
		abortTooManyRequests(c)
		return false
	}

	c.Header("X-RateLimit-Limit", cast.ToString(float64(lim.Limit())))
	c.Header("X-RateLimit-Remaining", cast.ToString(int(lim.Tokens())))
	c.Header("X-RateLimit-Reset", cast.ToString(time.Now().Add(time.Second).Unix()))
	return true
}

// getMemoryLimiter 获取或创建内存限流器
func getMemoryLimiter(key string, limit string) (*rate.Limiter, error) {
	if lim, exists := limiters.Load(key); exists {
		return lim.(*rate.Limiter), nil
	}

	r, err := limiter.ParseLimit(limit)
	if err != nil {
		return nil, err
	}

	lim := rate.NewLimiter(rate.Limit(r.Rate), DefaultBurst)
	actual, _ := limiters.LoadOrStore(key, lim)
	return actual.(*rate.Limiter), nil
}

func abortTooManyRequests(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusTooManyRequests, response.Response{
		Status:  response.Error,
		Message: "请求太频繁，请稍后再试",
	})
}
