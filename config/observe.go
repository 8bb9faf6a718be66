package config

import (
	"net"
	"strings"
)

// BroadcastConfig 被动观察者 WebSocket 推送配置
type BroadcastConfig struct {
	// Enabled 是否启用
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Addr HTTP 监听地址
	Addr string `json:"addr" yaml:"addr"`

	// Path WebSocket 路径
	Path string `json:"path" yaml:"path"`
}

// DefaultBroadcastConfig 返回默认推送配置
func DefaultBroadcastConfig() BroadcastConfig {
	return BroadcastConfig{
		Enabled: false,
		Addr:    ":15472",
		Path:    "/s88/",
	}
}

// Validate 验证推送配置；withMetrics 表示指标服务也需要该 HTTP 地址
func (c BroadcastConfig) Validate(withMetrics bool) error {
	if !c.Enabled && !withMetrics {
		return nil
	}
	if _, _, err := net.SplitHostPort(c.Addr); err != nil {
		return invalid("broadcast.addr", "%v", err)
	}
	if c.Enabled && !strings.HasPrefix(c.Path, "/") {
		return invalid("broadcast.path", "must start with '/'")
	}
	return nil
}

// MetricsConfig Prometheus 指标配置
//
// 指标挂在推送服务的 HTTP server 上；推送关闭时单独监听 broadcast.addr。
type MetricsConfig struct {
	// Enabled 是否启用
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Path 指标路径
	Path string `json:"path" yaml:"path"`
}

// DefaultMetricsConfig 返回默认指标配置
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Enabled: false,
		Path:    "/metrics",
	}
}

// Validate 验证指标配置
func (c MetricsConfig) Validate() error {
	if c.Enabled && !strings.HasPrefix(c.Path, "/") {
		return invalid("metrics.path", "must start with '/'")
	}
	return nil
}

// LogConfig 日志配置
type LogConfig struct {
	// Level 默认级别，或 ECOSGATE_LOG_LEVEL 语法（station=debug,info）
	Level string `json:"level" yaml:"level"`

	// Format text 或 json
	Format string `json:"format" yaml:"format"`

	// File 日志文件，为空时输出到 stderr
	File string `json:"file" yaml:"file"`
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:  "info",
		Format: "text",
	}
}

// Validate 验证日志配置
func (c LogConfig) Validate() error {
	switch strings.ToLower(c.Format) {
	case "", "text", "json":
		return nil
	default:
		return invalid("log.format", "unknown format %q", c.Format)
	}
}
