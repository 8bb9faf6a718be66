package config

import "time"

const (
	// MaxModules HSI-88 最多支持的反馈模块数（左中右三段合计）
	MaxModules = 32

	// minCheckInterval 低于该值的轮询间隔视为未配置
	minCheckInterval = 10 * time.Millisecond
	// fallbackCheckInterval 未配置时使用的轮询间隔
	fallbackCheckInterval = 50 * time.Millisecond
)

// HSIConfig HSI-88-USB 反馈设备配置
type HSIConfig struct {
	// Left 左段模块数
	Left int `json:"left" yaml:"left"`

	// Middle 中段模块数
	Middle int `json:"middle" yaml:"middle"`

	// Right 右段模块数
	Right int `json:"right" yaml:"right"`

	// DevicePath 串口设备路径
	DevicePath string `json:"devicePath" yaml:"devicePath"`

	// BaudRate 串口波特率
	BaudRate int `json:"baudRate" yaml:"baudRate"`
}

// DefaultHSIConfig 返回默认设备配置
func DefaultHSIConfig() HSIConfig {
	return HSIConfig{
		DevicePath: "/dev/ttyUSB0",
		BaudRate:   9600,
	}
}

// Total 返回已配置的模块总数
func (c HSIConfig) Total() int {
	return c.Left + c.Middle + c.Right
}

// Validate 验证设备配置
func (c HSIConfig) Validate() error {
	if c.Left < 0 || c.Middle < 0 || c.Right < 0 {
		return invalid("hsi", "module counts must not be negative")
	}
	if c.Total() > MaxModules {
		return invalid("hsi", "left+middle+right = %d exceeds %d modules", c.Total(), MaxModules)
	}
	if c.BaudRate <= 0 {
		return invalid("hsi.baudRate", "must be positive")
	}
	return nil
}

// DebounceConfig 去抖配置，裸数字按毫秒解析
type DebounceConfig struct {
	// On 低→高 跳变需要的最小间隔
	On Millis `json:"on" yaml:"on"`

	// Off 高→低 跳变需要的最小间隔
	Off Millis `json:"off" yaml:"off"`

	// CheckInterval 设备轮询间隔；小于 10ms 时使用 50ms
	CheckInterval Millis `json:"checkInterval" yaml:"checkInterval"`
}

// DefaultDebounceConfig 返回默认去抖配置
func DefaultDebounceConfig() DebounceConfig {
	return DebounceConfig{
		On:            Millis(100 * time.Millisecond), // 占用尽快上报
		Off:           Millis(500 * time.Millisecond), // 释放需要稳定更久
		CheckInterval: Millis(fallbackCheckInterval),
	}
}

// PollInterval 返回实际使用的设备轮询间隔
func (c DebounceConfig) PollInterval() time.Duration {
	if c.CheckInterval.Duration() < minCheckInterval {
		return fallbackCheckInterval
	}
	return c.CheckInterval.Duration()
}

// Validate 验证去抖配置
func (c DebounceConfig) Validate() error {
	if err := validateNonNegative("debounce.on", Duration(c.On)); err != nil {
		return err
	}
	if err := validateNonNegative("debounce.off", Duration(c.Off)); err != nil {
		return err
	}
	return validateNonNegative("debounce.checkInterval", Duration(c.CheckInterval))
}
