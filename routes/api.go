package routes

import (
	"github.com/gin-gonic/gin"

	"difypipe/app/http/controllers/api/v1/pipeline"
	"difypipe/app/http/middlewares"
	"difypipe/pkg/config"
)

// RegisterAPIRoutes 注册所有 API 路由
func RegisterAPIRoutes(r *gin.Engine) {
	v1 := r.Group("/v1")

	v1.Use(
		middlewares.SecurityHeaders(),
		middlewares.LimitIP(config.GetString("app.api_rate_limit")+"-H"),
		middlewares.Cors(),
	)

	cc := pipeline.NewChatController()
	pc := pipeline.NewPipelineController()

	// 聊天补全，走 Dify 管道
	// POST /v1/chat/completions
	v1.POST("/chat/completions",
		middlewares.LimitPerRoute(config.GetString("app.chat_rate_limit")+"-M"),
		cc.Completions,
	)

	// 管道信息
	// GET /v1/pipelines
	v1.GET("/pipelines", pc.Index)

	// 健康检查
	// GET /v1/health
	v1.GET("/health", pc.Health)
}
