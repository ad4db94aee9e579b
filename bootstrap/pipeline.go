package bootstrap

import (
	"fmt"
	"time"

	"difypipe/pkg/config"
	"difypipe/pkg/dify"
	"difypipe/pkg/logger"
)

// SetupPipeline 初始化 Dify 管道
func SetupPipeline() {
	logger.InfoString("Pipeline", "Setup", "正在初始化 Dify 管道...")

	mode, err := dify.ParseMode(config.GetString("pipeline.mode"))
	if err != nil {
		logger.ErrorString("Pipeline", "Config", "DIFY_TYPE 配置无效: "+err.Error())
		return
	}

	pipe, err := dify.NewPipeline(&dify.Config{
		AppName:      config.GetString("app.name"),
		HostURL:      config.GetString("pipeline.host_url"),
		APIKey:       config.GetString("pipeline.api_key"),
		UserInputKey: config.GetString("pipeline.user_input_key"),
		UserInputs:   config.GetString("pipeline.user_inputs"),
		Mode:         mode,
		ResponseMode: config.GetString("pipeline.response_mode"),
		VerifySSL:    config.GetBool("pipeline.verify_ssl"),
		Timeout:      time.Duration(config.GetInt("pipeline.timeout")) * time.Second,
	})
	if err != nil {
		logger.ErrorString("Pipeline", "Setup", "Dify 管道初始化失败: "+err.Error())
		return
	}

	dify.Pipe = pipe
	pipe.OnStart()

	logger.InfoString("Pipeline", "Setup", fmt.Sprintf(
		"Dify 管道初始化成功 [模式: %s, 响应: %s, 地址: %s, 密钥: %s]",
		mode,
		config.GetString("pipeline.response_mode"),
		config.GetString("pipeline.host_url"),
		maskKey(config.GetString("pipeline.api_key")),
	))
}

// maskKey 日志里只展示密钥的首尾字符
func maskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "****" + key[len(key)-4:]
}
