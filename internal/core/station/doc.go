// Package station 实现到 ECoS 站点的连接监管
//
// Supervisor 维护唯一一条到站点的 TCP 连接：
//
//	Disconnected → Probing → Connected → Failed → Probing → ...
//
// Probing 阶段每 ProbeInterval 探测一次站点可达性（ICMP echo、短 TCP 连接
// 或不探测），可达后拨号并发送握手帧 get(1, info)、get(1, status)。
// 读循环把站点发来的行交给 ecos.Assembler 重组，完整消息经
// ConnectionObserver.OnMessage 交付。任何 I/O 失败都以 fatal 级别记录，
// 发布 EvtStationState 事件，回调 OnFailed，然后重新进入探测。
//
// Start 立即返回，循环在后台运行直到 Stop。
package station
