// Package eventbus 实现进程内事件总线
//
// 网关各组件通过总线发布可观察事件（站点状态变化、设备失败、会话开闭、
// 反馈变化），由指标模块和外层进程订阅，组件之间不直接互相回调。
//
// # 快速开始
//
//	bus := eventbus.NewBus()
//
//	sub, _ := bus.Subscribe(new(types.EvtStationState))
//	defer sub.Close()
//
//	em, _ := bus.Emitter(new(types.EvtStationState), eventbus.Stateful())
//	defer em.Close()
//	em.Emit(types.NewEvtStationState(addr, prev, cur, nil))
//
// # 投递语义
//
// 投递是非阻塞的：订阅者缓冲区满时事件被丢弃，每丢弃 100 个事件告警一次。
// 有状态发射器（Stateful）保留最后一个事件，新订阅者立即收到它。
package eventbus
