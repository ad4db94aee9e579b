// Package config 站点配置信息
package config

import "difypipe/pkg/config"

func init() {
	config.Add("pipeline", func() map[string]interface{} {
		return map[string]interface{}{

			// Dify 服务基础地址
			"host_url": config.Env("HOST_URL", "http://host.docker.internal"),

			// Dify API 密钥
			"api_key": config.Env("DIFY_API_KEY", "YOUR_DIFY_API_KEY"),

			// 用户消息写入 inputs 时使用的键名
			"user_input_key": config.Env("USER_INPUT_KEY", "input"),

			// 额外静态输入，JSON 对象字符串，会合并进每次请求的 inputs
			"user_inputs": config.Env("USER_INPUTS", "{}"),

			// 请求模式：workflow, agent, chat, completion
			"mode": config.Env("DIFY_TYPE", "workflow"),

			// 响应模式：streaming 或 blocking
			"response_mode": config.Env("RESPONSE_MODE", "streaming"),

			// 是否校验上游 TLS 证书，默认开启，自签名证书环境下可关闭
			"verify_ssl": config.Env("VERIFY_SSL", true),

			// 单次请求超时时间，单位：秒
			"timeout": config.Env("DIFY_TIMEOUT", 90),
		}
	})
}
