// Package config 站点配置信息
package config

// Initialize 触发加载本目录下的所有配置文件
// 各配置文件通过 init() 向 pkg/config 注册自己，这里只需要被导入
func Initialize() {
	// 空函数，保证 config 目录下所有 init() 已执行
}
