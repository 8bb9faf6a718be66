// Package logger 提供统一的日志接口
//
// 支持通过环境变量配置日志级别：
//   - ECOSGATE_LOG_LEVEL: 设置日志级别，支持按子系统配置
//     格式: 子系统=级别,子系统=级别,默认级别
//     示例: station=debug,listener=warn,info
//   - ECOSGATE_LOG_FORMAT: 日志格式 (text 或 json)
package logger

import (
	"log/slog"
	"os"
	"strings"
	"sync"
)

// LevelFatal 致命级别
//
// 高于 Error，用于报告令某项功能在进程生命周期内失效的事件
// （站点连接断开、反馈设备失败）。记录 Fatal 不会退出进程。
const LevelFatal = slog.Level(12)

// LogFormat 日志输出格式
type LogFormat int

const (
	// FormatText 文本格式（默认）
	FormatText LogFormat = iota
	// FormatJSON JSON 格式
	FormatJSON
)

// Config 日志配置
type Config struct {
	// DefaultLevel 默认日志级别
	DefaultLevel slog.Level

	// SubsystemLevels 各子系统的日志级别
	SubsystemLevels map[string]slog.Level

	// Format 输出格式
	Format LogFormat

	// AddSource 是否添加源码位置
	AddSource bool
}

// LevelForSubsystem 获取指定子系统的日志级别
func (c *Config) LevelForSubsystem(subsystem string) slog.Level {
	if level, ok := c.SubsystemLevels[subsystem]; ok {
		return level
	}
	return c.DefaultLevel
}

// configCache 缓存配置，避免重复解析
var (
	configCache *Config
	configOnce  sync.Once
)

// ConfigFromEnv 从环境变量解析配置
//
// 环境变量:
//   - ECOSGATE_LOG_LEVEL: 日志级别配置
//   - ECOSGATE_LOG_FORMAT: text 或 json
//   - ECOSGATE_LOG_ADD_SOURCE: true 或 false
func ConfigFromEnv() *Config {
	configOnce.Do(func() {
		configCache = parseConfig()
		globalFormat.Store(int32(configCache.Format))
	})
	return configCache
}

// parseConfig 解析环境变量配置
func parseConfig() *Config {
	cfg := &Config{
		DefaultLevel:    slog.LevelInfo,
		SubsystemLevels: make(map[string]slog.Level),
		Format:          FormatText,
		AddSource:       false,
	}

	if levelStr := os.Getenv("ECOSGATE_LOG_LEVEL"); levelStr != "" {
		parseLevelConfig(cfg, levelStr)
	}

	if formatStr := os.Getenv("ECOSGATE_LOG_FORMAT"); formatStr != "" {
		cfg.Format = ParseFormat(formatStr)
	}

	if addSourceStr := os.Getenv("ECOSGATE_LOG_ADD_SOURCE"); addSourceStr != "" {
		cfg.AddSource = addSourceStr != "false" && addSourceStr != "0"
	}

	return cfg
}

// parseLevelConfig 解析日志级别配置字符串
// 格式: subsystem=level,subsystem=level,defaultLevel
func parseLevelConfig(cfg *Config, levelStr string) {
	parts := strings.Split(levelStr, ",")
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		if strings.Contains(part, "=") {
			kv := strings.SplitN(part, "=", 2)
			if len(kv) == 2 {
				subsystem := strings.TrimSpace(kv[0])
				levelName := strings.TrimSpace(kv[1])
				if level, ok := ParseLevel(levelName); ok {
					cfg.SubsystemLevels[subsystem] = level
				}
			}
		} else {
			if level, ok := ParseLevel(part); ok {
				cfg.DefaultLevel = level
			}
		}
	}
}

// ParseLevel 解析日志级别名称
func ParseLevel(name string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	case "fatal":
		return LevelFatal, true
	default:
		return slog.LevelInfo, false
	}
}

// ParseFormat 解析日志格式名称，未知格式按文本处理
func ParseFormat(name string) LogFormat {
	if strings.EqualFold(strings.TrimSpace(name), "json") {
		return FormatJSON
	}
	return FormatText
}

// ResetConfig 重置配置缓存（仅用于测试）
func ResetConfig() {
	configOnce = sync.Once{}
	configCache = nil
}
