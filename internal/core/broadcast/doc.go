// Package broadcast 实现被动观察者的 WebSocket 推送
//
// Hub 实现 interfaces.BroadcastSink：每次反馈变化以 JSON 推送给所有观察者，
// 并按模块缓存最后一条载荷，新观察者连接时按对象 id 顺序补发。
//
// Server 是承载 Hub 和 Prometheus 指标的 HTTP 服务，两者各自可选。
package broadcast
