package listener

import "errors"

var (
	// ErrSessionClosed 会话已关闭
	ErrSessionClosed = errors.New("session closed")

	// ErrQueueFull 会话发送队列已满，帧被丢弃
	ErrQueueFull = errors.New("session send queue full")

	// ErrUnknownSession 会话不存在
	ErrUnknownSession = errors.New("unknown session")

	// ErrServerClosed 监听服务已关闭
	ErrServerClosed = errors.New("listener closed")
)
