package config

import "time"

// FilterConfig 对象过滤规则
//
// 被过滤的命令不会转发到站点。
type FilterConfig struct {
	// Enabled 是否启用过滤
	Enabled bool `json:"enabled" yaml:"enabled"`

	// ObjectIDs 显式过滤的对象 ID
	ObjectIDs []int `json:"objectIds" yaml:"objectIds"`

	// ObjectIDRanges 范围表达式，如 "<50"、">=1000"、"==5"
	ObjectIDRanges []string `json:"objectIdRanges" yaml:"objectIdRanges"`
}

// DefaultFilterConfig 返回默认过滤配置（禁用）
func DefaultFilterConfig() FilterConfig {
	return FilterConfig{}
}

// RuntimeConfig 运行时开关
type RuntimeConfig struct {
	// IsSimulation 不打开任何反馈设备
	IsSimulation bool `json:"isSimulation" yaml:"isSimulation"`

	// IsS88Simulation 用模拟器代替 HSI-88 设备，周期性翻转模块 2 的第 1 个触点
	IsS88Simulation bool `json:"isS88Simulation" yaml:"isS88Simulation"`

	// ConnectToEcos 是否连接站点
	ConnectToEcos bool `json:"connectToEcos" yaml:"connectToEcos"`

	// SimulationInterval 模拟器输出间隔
	SimulationInterval Duration `json:"simulationInterval" yaml:"simulationInterval"`
}

// DefaultRuntimeConfig 返回默认运行时开关
func DefaultRuntimeConfig() RuntimeConfig {
	return RuntimeConfig{
		ConnectToEcos:      true,
		SimulationInterval: Duration(time.Second),
	}
}

// Validate 验证运行时开关
func (c RuntimeConfig) Validate() error {
	if c.IsS88Simulation && c.SimulationInterval <= 0 {
		return invalid("runtime.simulationInterval", "must be positive when isS88Simulation is set")
	}
	return nil
}

// UseDevice 是否需要一个反馈设备数据源（真实设备或模拟器）
func (c RuntimeConfig) UseDevice() bool {
	return c.IsS88Simulation || !c.IsSimulation
}
