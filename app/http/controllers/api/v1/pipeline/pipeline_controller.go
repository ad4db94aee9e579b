package pipeline

import (
	"time"

	"github.com/gin-gonic/gin"

	"difypipe/pkg/dify"
	"difypipe/pkg/redis"
	"difypipe/pkg/response"
)

// PipelineController 管道信息与健康检查
type PipelineController struct{}

// NewPipelineController 创建控制器实例
func NewPipelineController() *PipelineController {
	return &PipelineController{}
}

// Index 列出当前配置的管道
// GET /v1/pipelines
func (pc *PipelineController) Index(c *gin.Context) {
	if dify.Pipe == nil {
		response.Data(c, gin.H{"pipelines": []gin.H{}})
		return
	}

	response.Data(c, gin.H{
		"pipelines": []gin.H{
			{
				"id":        "dify-pipeline",
				"name":      dify.Pipe.Name(),
				"mode":      dify.Pipe.Mode(),
				"streaming": dify.Pipe.Streaming(),
			},
		},
	})
}

// Health 健康检查端点
// GET /v1/health
func (pc *PipelineController) Health(c *gin.Context) {
	if dify.Pipe == nil {
		response.Abort500(c, "管道未初始化")
		return
	}

	// Redis 是可选组件，配置了才检查
	if redis.Redis != nil {
		if err := redis.Redis.Ping(c.Request.Context()); err != nil {
			response.Abort500(c, "Redis 连接异常")
			return
		}
	}

	response.Data(c, gin.H{
		"status": "ok",
		"time":   time.Now().Unix(),
	})
}
