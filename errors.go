package ecosgate

import "errors"

// 公共错误定义
var (
	// ────────────────────────────────────────────────────────────────────────
	// 网关生命周期错误
	// ────────────────────────────────────────────────────────────────────────

	// ErrNotStarted 网关未启动
	ErrNotStarted = errors.New("gateway not started")

	// ErrAlreadyStarted 网关已启动
	ErrAlreadyStarted = errors.New("gateway already started")

	// ErrGatewayClosed 网关已关闭
	ErrGatewayClosed = errors.New("gateway closed")

	// ────────────────────────────────────────────────────────────────────────
	// 构建错误
	// ────────────────────────────────────────────────────────────────────────

	// ErrNilConfig 未提供配置
	ErrNilConfig = errors.New("nil config")

	// ErrNilOption 选项为 nil
	ErrNilOption = errors.New("nil option")
)
