package interfaces

// BroadcastSink 被动观察者推送通道
//
// 接收与控制端相同的反馈状态变化，以 JSON 形式推送。
type BroadcastSink interface {
	// Publish 推送一条反馈变化；objectID 用于为新观察者缓存最后一条载荷
	Publish(objectID int, payload []byte)

	// ObserverCount 返回当前观察者数量
	ObserverCount() int
}
