package errors

import "errors"

// ErrStatusSentLocked 已发送记录禁止手动切换就绪状态
var ErrStatusSentLocked = errors.New("成绩已发送至 SMS，不能手动切换状态")

// ErrInvalidStatus 状态码不在合法取值范围内
var ErrInvalidStatus = errors.New("无效的成绩传输状态码")
