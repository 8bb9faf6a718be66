package ecos

import (
	"errors"
	"fmt"
)

// ErrMalformedFrame 无法解析的线路文本
var ErrMalformedFrame = errors.New("malformed frame")

// ParseError 解析失败的详细信息
//
// errors.Is(err, ErrMalformedFrame) 对所有 *ParseError 成立。
type ParseError struct {
	// Raw 原始帧文本
	Raw string
	// Token 出错的参数片段；帧级错误时为空
	Token string
	// Reason 失败原因
	Reason string
}

// Error 实现 error 接口
func (e *ParseError) Error() string {
	if e.Token != "" {
		return fmt.Sprintf("malformed frame %q: %s: %q", e.Raw, e.Reason, e.Token)
	}
	return fmt.Sprintf("malformed frame %q: %s", e.Raw, e.Reason)
}

// Unwrap 返回 ErrMalformedFrame
func (e *ParseError) Unwrap() error {
	return ErrMalformedFrame
}
