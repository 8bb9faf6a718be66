// Package device 实现反馈设备数据源
//
// Serial 驱动 HSI-88-USB：打开串口后依次发送
//
//	t1\r          打开终端模式
//	v\r           查询版本
//	s<LL><MM><RR>\r 设置左中右三段的模块数
//
// 之后按轮询间隔发送 m\r。设备输出以 \r 分行。
//
// Simulator 不需要硬件，交替输出 i01020000 与 i01020001。
//
// Service 在后台运行一个数据源，把行交给路由，并在事件总线上发布
// EvtDeviceOpened/EvtDeviceFailed。设备失败后不重试：反馈功能停止，
// 网关其余部分照常运行。
package device
