// Package metrics 提供网关的监控指标
//
// 两部分：
//   - Traffic: 按链路（controller/station/device）统计收发字节与最近 60 秒速率
//   - Metrics: Prometheus 指标（帧处理结果、站点状态、会话、反馈变化、设备行），
//     通过 Handler() 暴露给 promhttp
//
// *Metrics 的所有记录方法对 nil 接收者是空操作，组件可以在未启用指标时
// 直接持有 nil。
//
// 站点状态和会话数由事件总线驱动：Module 订阅 EvtStationState、
// EvtSessionOpened、EvtSessionClosed 并更新对应的 gauge。
package metrics
