package dify

import "fmt"

// InvalidModeError 无法识别的请求模式
// 在构建请求体或解析接口地址时立刻返回，不会发起任何网络请求
type InvalidModeError struct {
	Mode string
}

func (e *InvalidModeError) Error() string {
	return fmt.Sprintf("invalid dify mode: %q, must be 'completion', 'workflow', 'agent', or 'chat'", e.Mode)
}

// MissingCallerIdentityError 调用方身份缺失
// 上游要求 user 字段必须是调用方邮箱，缺失视为违反调用契约
type MissingCallerIdentityError struct{}

func (e *MissingCallerIdentityError) Error() string {
	return "caller identity is required: user email is empty"
}

// InvalidExtraInputsError 配置的额外静态输入不是合法的 JSON
// 在发送请求前返回，本次调用直接失败
type InvalidExtraInputsError struct {
	Raw string
	Err error
}

func (e *InvalidExtraInputsError) Error() string {
	return fmt.Sprintf("invalid extra inputs %q: %v", e.Raw, e.Err)
}

func (e *InvalidExtraInputsError) Unwrap() error {
	return e.Err
}
