// Package feedback 实现反馈模块的去抖状态机
//
// 每个 HSI-88 反馈模块有 16 个引脚，状态以 4 位大写十六进制表示（MSB 在前）。
// ModuleState.Update 对每个引脚实现非对称去抖：
//
//	旧位 == 新位      刷新该引脚的时间戳，保持不变
//	0 → 1            距上次时间戳 > On  才接受
//	1 → 0            距上次时间戳 > Off 才接受
//
// 接受的跳变提交新位、记录时间戳并计数；被拒绝的跳变不改时间戳。
// 时间源是 clock.Clock，测试中使用 clock.NewMock() 精确推进。
//
// Pool 持有固定的 32 个模块（对象 ID 100..131），启动时分配，进程生命周期内存在。
// ParseDeviceLine 把设备输出的 i/m 行解码为 (设备模块号, 十六进制状态) 读数。
package feedback
