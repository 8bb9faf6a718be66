// Package config 提供 ecosgate 的统一配置管理
//
// 本包采用混合配置模式：
//   - 主 Config 结构体嵌入所有子配置
//   - 每个子配置在独立文件中定义，带 DefaultXxxConfig 和 Validate
//   - 支持从 JSON 或 YAML 文件加载（按扩展名选择）
//
// 使用示例：
//
//	// 创建默认配置
//	cfg := config.NewConfig()
//	cfg.Ecos.IP = "192.168.1.10"
//	cfg.HSI.Left = 2
//
//	// 从文件加载
//	cfg, err := config.Load("ecosgate.json")
//
// 键名沿用 camelCase（bindingIp、listenPort、isS88Simulation ...），
// 与现有的网关配置文件保持兼容。
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig 配置无效
var ErrInvalidConfig = errors.New("invalid config")

// Config 是 ecosgate 的完整配置结构
//
// 配置按照功能模块组织：
//   - Server: 控制端监听
//   - Ecos: 站点连接与探测
//   - HSI: 反馈设备与模块数量
//   - Debounce: 去抖阈值与轮询间隔
//   - Filter: 对象过滤规则
//   - Runtime: 模拟与功能开关
//   - Broadcast / Metrics: 被动观察者推送与指标
//   - Log: 日志
type Config struct {
	// Server 控制端监听配置
	Server ServerConfig `json:"server" yaml:"server"`

	// Ecos 站点连接配置
	Ecos EcosConfig `json:"ecos" yaml:"ecos"`

	// HSI 反馈设备配置
	HSI HSIConfig `json:"hsi" yaml:"hsi"`

	// Debounce 去抖配置
	Debounce DebounceConfig `json:"debounce" yaml:"debounce"`

	// Filter 对象过滤配置
	Filter FilterConfig `json:"filter" yaml:"filter"`

	// Runtime 运行时开关
	Runtime RuntimeConfig `json:"runtime" yaml:"runtime"`

	// Broadcast WebSocket 推送配置
	Broadcast BroadcastConfig `json:"broadcast" yaml:"broadcast"`

	// Metrics 指标配置
	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`

	// Log 日志配置
	Log LogConfig `json:"log" yaml:"log"`
}

// NewConfig 创建默认配置
func NewConfig() *Config {
	return &Config{
		Server:    DefaultServerConfig(),
		Ecos:      DefaultEcosConfig(),
		HSI:       DefaultHSIConfig(),
		Debounce:  DefaultDebounceConfig(),
		Filter:    DefaultFilterConfig(),
		Runtime:   DefaultRuntimeConfig(),
		Broadcast: DefaultBroadcastConfig(),
		Metrics:   DefaultMetricsConfig(),
		Log:       DefaultLogConfig(),
	}
}

// Validate 验证配置的有效性
//
// 过滤规则中格式错误的范围表达式不在此处拒绝，运行时记录警告并跳过。
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: config is nil", ErrInvalidConfig)
	}
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := c.Ecos.Validate(c.Runtime.ConnectToEcos); err != nil {
		return err
	}
	if err := c.HSI.Validate(); err != nil {
		return err
	}
	if err := c.Debounce.Validate(); err != nil {
		return err
	}
	if err := c.Runtime.Validate(); err != nil {
		return err
	}
	if err := c.Broadcast.Validate(c.Metrics.Enabled); err != nil {
		return err
	}
	if err := c.Metrics.Validate(); err != nil {
		return err
	}
	return c.Log.Validate()
}

// FromJSON 从 JSON 数据创建配置，未出现的字段保留默认值
func FromJSON(data []byte) (*Config, error) {
	cfg := NewConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// FromYAML 从 YAML 数据创建配置，未出现的字段保留默认值
func FromYAML(data []byte) (*Config, error) {
	cfg := NewConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// Load 从文件加载配置
//
// .yaml/.yml 按 YAML 解析，其余按 JSON 解析。加载后执行 Validate。
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg *Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		cfg, err = FromYAML(data)
	default:
		cfg, err = FromJSON(data)
	}
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ToJSON 序列化为带缩进的 JSON
func (c *Config) ToJSON() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

// invalid 构造带字段路径的配置错误
func invalid(field, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidConfig, field, fmt.Sprintf(format, args...))
}

// validatePort 端口必须在 1..65535
func validatePort(field string, port int) error {
	if port < 1 || port > 65535 {
		return invalid(field, "port %d out of range 1..65535", port)
	}
	return nil
}

// validateNonNegative 时长不能为负
func validateNonNegative(field string, d Duration) error {
	if d < 0 {
		return invalid(field, "negative duration %s", d)
	}
	return nil
}
