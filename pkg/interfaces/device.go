package interfaces

import "context"

// LineHandler 接收反馈设备输出的一行 ASCII 文本（不含行结束符）
type LineHandler func(line string)

// DeviceSource 反馈设备行数据源
//
// 串口 HSI-88-USB 驱动和模拟器都实现该接口。调用顺序为 Open、Run、Close。
type DeviceSource interface {
	// Name 返回数据源名称（用于日志和事件）
	Name() string

	// Open 打开设备并完成初始化
	Open() error

	// Run 持续投递行，直到 ctx 取消（返回 nil）或设备失败
	Run(ctx context.Context, handler LineHandler) error

	// Close 释放设备
	Close() error
}
