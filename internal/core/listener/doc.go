// Package listener 实现控制端（Rocrail）TCP 监听
//
// 每个接入的连接成为一个 Session：
//
//   - 读 goroutine：按行读取帧（可选速率限制），交给 FrameHandler
//   - 写 goroutine：唯一的写者，按 FIFO 排空有界发送队列
//   - 刷新 goroutine：每 RefreshInterval 重发完整反馈快照
//
// 三者由 errgroup 管理，任一退出即取消其余两个。会话登记在 Registry 中
// （id → 会话与其刷新取消函数，单把读写锁保护）。断开时依次：取消刷新、
// 从 Registry 移除、关闭 socket。
//
// 入队从不阻塞调用方，队列满时丢弃并告警。
package listener
