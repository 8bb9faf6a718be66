package interfaces

// SessionBroadcaster 向控制端会话投递消息
type SessionBroadcaster interface {
	// Broadcast 投递到所有已连接会话，返回成功入队的会话数
	Broadcast(msg string) int

	// SendTo 投递到指定会话
	SendTo(sessionID, msg string) error

	// SessionCount 返回当前会话数
	SessionCount() int
}

// SnapshotProvider 提供所有已配置反馈模块的当前状态块
//
// 会话建立时和周期刷新时调用。
type SnapshotProvider interface {
	Snapshot() []string
}

// FrameHandler 处理一条来自控制端会话的帧
type FrameHandler interface {
	HandleFrame(sessionID, frame string)
}
