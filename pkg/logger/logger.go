// Package logger 处理日志相关逻辑
package logger

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger 全局 Logger 对象
var Logger *zap.Logger

// InitLogger 日志初始化
// 参数说明：
// - filename: 日志文件路径
// - maxSize: 每个日志文件保存的最大尺寸，单位：MB
// - maxBackup: 日志文件最多保存多少个备份
// - maxAge: 文件最多保存多少天
// - compress: 是否压缩归档的日志文件
// - logType: 日志记录类型，可选 daily（按天）、single（单文件）
// - level: 日志级别，可选 debug, info, warn, error
func InitLogger(filename string, maxSize, maxBackup, maxAge int, compress bool, logType string, level string) {
	// 获取日志写入介质
	writeSyncer := getLogWriter(filename, maxSize, maxBackup, maxAge, compress, logType)

	// 设置日志等级
	logLevel := new(zapcore.Level)
	if err := logLevel.UnmarshalText([]byte(level)); err != nil {
		fmt.Println("日志初始化错误，日志级别设置有误。请修改 config/log.go 文件中的 log.level 配置项")
	}

	// 初始化 core
	core := zapcore.NewCore(getEncoder(), writeSyncer, logLevel)

	// 初始化 Logger
	Logger = zap.New(core,
		zap.AddCaller(),                   // 调用文件和行号
		zap.AddCallerSkip(1),              // 封装了一层，跳过一层调用
		zap.AddStacktrace(zap.ErrorLevel), // Error 时才显示 stacktrace
	)

	// 将自定义的 logger 替换为全局的 logger
	zap.ReplaceGlobals(Logger)
}

// getEncoder 设置日志存储格式
func getEncoder() zapcore.Encoder {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     customTimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
	return zapcore.NewJSONEncoder(encoderConfig)
}

// customTimeEncoder 自定义友好的时间格式
func customTimeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.Format("2006-01-02 15:04:05"))
}

// getLogWriter 日志记录介质，使用 lumberjack 进行日志滚动
func getLogWriter(filename string, maxSize, maxBackup, maxAge int, compress bool, logType string) zapcore.WriteSyncer {
	// 按天记录日志
	if logType == "daily" {
		logname := time.Now().Format("2006-01-02.log")
		filename = strings.ReplaceAll(filename, "logs.log", logname)
	}

	lumberJackLogger := &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    maxSize,
		MaxBackups: maxBackup,
		MaxAge:     maxAge,
		Compress:   compress,
	}

	// 同时输出到日志文件和终端
	return zapcore.NewMultiWriteSyncer(
		zapcore.AddSync(lumberJackLogger),
		zapcore.AddSync(os.Stdout),
	)
}

// Dump 调试专用，会以 warning 级别输出传参
func Dump(value interface{}, msg ...string) {
	valueString := jsonString(value)
	if len(msg) > 0 {
		getLogger().Warn("Dump", zap.String(msg[0], valueString))
	} else {
		getLogger().Warn("Dump", zap.String("data", valueString))
	}
}

// LogIf 当 err != nil 时记录 error 级别的日志
func LogIf(err error) {
	if err != nil {
		getLogger().Error("Error Occurred:", zap.Error(err))
	}
}

// LogWarnIf 当 err != nil 时记录 warning 级别的日志
func LogWarnIf(err error) {
	if err != nil {
		getLogger().Warn("Error Occurred:", zap.Error(err))
	}
}

// Debug 调试日志
func Debug(moduleName string, fields ...zap.Field) {
	getLogger().Debug(moduleName, fields...)
}

// Info 告知类日志
func Info(moduleName string, fields ...zap.Field) {
	getLogger().Info(moduleName, fields...)
}

// Warn 警告类日志
func Warn(moduleName string, fields ...zap.Field) {
	getLogger().Warn(moduleName, fields...)
}

// Error 错误日志，不应该中断程序
func Error(moduleName string, fields ...zap.Field) {
	getLogger().Error(moduleName, fields...)
}

// DebugString 记录一条字符串类型的 debug 日志
func DebugString(moduleName, name, msg string) {
	getLogger().Debug(moduleName, zap.String(name, msg))
}

// InfoString 记录一条字符串类型的 info 日志
func InfoString(moduleName, name, msg string) {
	getLogger().Info(moduleName, zap.String(name, msg))
}

// WarnString 记录一条字符串类型的 warning 日志
func WarnString(moduleName, name, msg string) {
	getLogger().Warn(moduleName, zap.String(name, msg))
}

// ErrorString 记录一条字符串类型的 error 日志
func ErrorString(moduleName, name, msg string) {
	getLogger().Error(moduleName, zap.String(name, msg))
}

// DebugJSON 记录对象类型的 debug 日志，使用 json.Marshal 进行编码
func DebugJSON(moduleName, name string, value interface{}) {
	getLogger().Debug(moduleName, zap.String(name, jsonString(value)))
}

// getLogger 获取 Logger，未初始化时（如单元测试）退化为不输出
func getLogger() *zap.Logger {
	if Logger == nil {
		return zap.NewNop()
	}
	return Logger
}

func jsonString(value interface{}) string {
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprintf("%v", value)
	}
	return string(b)
}
