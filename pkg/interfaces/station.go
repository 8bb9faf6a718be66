package interfaces

import (
	"context"

	"github.com/dep2p/go-ecosgate/pkg/types"
)

// ConnectionObserver 接收站点连接生命周期回调
//
// 回调在 Supervisor 的读循环 goroutine 中执行，实现不得长时间阻塞。
type ConnectionObserver interface {
	// OnConnected 传输建立且握手帧已发送
	OnConnected(addr string)

	// OnFailed 连接 I/O 失败，Supervisor 随后重新进入探测
	OnFailed(addr string, err error)

	// OnMessage 收到一条完整的站点消息（多行块已重组，行间以 CRLF 分隔）
	OnMessage(msg string)
}

// StationLink 站点侧双工通道
type StationLink interface {
	// Start 启动探测/重连循环，立即返回
	Start(ctx context.Context) error

	// Stop 停止循环并关闭连接
	Stop() error

	// Send 发送一帧；未连接时为空操作并返回 nil
	Send(frame string) error

	// State 返回当前连接状态
	State() types.ConnState

	// SetObserver 设置连接观察者，应在 Start 之前调用
	SetObserver(o ConnectionObserver)
}
