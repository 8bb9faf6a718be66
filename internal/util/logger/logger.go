// Package logger 提供 ecosgate 的统一日志系统
//
// 基于标准库 log/slog，支持：
//   - 按子系统配置日志级别
//   - 环境变量配置（ECOSGATE_LOG_LEVEL, ECOSGATE_LOG_FORMAT）
//   - 结构化日志
//   - fatal 级别（只记录，不退出进程）
//
// 使用示例:
//
//	package station
//
//	import "github.com/dep2p/go-ecosgate/internal/util/logger"
//
//	var log = logger.Logger("station")
//
//	func foo() {
//	    log.Info("probe ok", "addr", addr)
//	    logger.Fatal(log, "station connection lost", "err", err)
//	}
//
// 环境变量配置:
//
//	# 所有模块为 info，station 模块为 debug
//	ECOSGATE_LOG_LEVEL=station=debug,info
//
//	# 使用 JSON 格式输出
//	ECOSGATE_LOG_FORMAT=json
package logger

import (
	"context"
	"io"
	"log/slog"
	"sync"
)

var (
	// loggers 缓存各子系统的 Logger
	loggers sync.Map // map[string]*slog.Logger

	// handlers 缓存各子系统的 Handler（用于动态调整级别）
	handlers sync.Map // map[string]*subsystemHandler
)

// defaultSubsystem Fatal 未指定 Logger 时使用的子系统
const defaultSubsystem = "ecosgate"

// Logger 获取指定子系统的 Logger
//
// 同一子系统多次调用会返回相同的 Logger 实例。
func Logger(subsystem string) *slog.Logger {
	if l, ok := loggers.Load(subsystem); ok {
		return l.(*slog.Logger)
	}

	cfg := ConfigFromEnv()
	level := cfg.LevelForSubsystem(subsystem)

	handler := newHandler(subsystem, level)
	logger := slog.New(handler)

	actual, loaded := loggers.LoadOrStore(subsystem, logger)
	if !loaded {
		handlers.Store(subsystem, handler)
	}

	return actual.(*slog.Logger)
}

// SetLevel 动态设置子系统的日志级别
func SetLevel(subsystem string, level slog.Level) {
	if h, ok := handlers.Load(subsystem); ok {
		h.(*subsystemHandler).SetLevel(level)
	}
}

// SetGlobalLevel 设置所有子系统的默认日志级别
//
// 通过 ECOSGATE_LOG_LEVEL 单独配置过的子系统保持原级别。
func SetGlobalLevel(level slog.Level) {
	cfg := ConfigFromEnv()
	cfg.DefaultLevel = level
	handlers.Range(func(key, value any) bool {
		if _, pinned := cfg.SubsystemLevels[key.(string)]; pinned {
			return true
		}
		value.(*subsystemHandler).SetLevel(level)
		return true
	})
}

// ApplyLevels 按 ECOSGATE_LOG_LEVEL 的语法调整级别
//
// 格式: subsystem=level,...,defaultLevel。单独指定的子系统不受默认级别影响。
func ApplyLevels(levels string) {
	cfg := ConfigFromEnv()
	parsed := &Config{
		DefaultLevel:    cfg.DefaultLevel,
		SubsystemLevels: make(map[string]slog.Level),
	}
	parseLevelConfig(parsed, levels)

	for name, level := range parsed.SubsystemLevels {
		cfg.SubsystemLevels[name] = level
		SetLevel(name, level)
	}
	SetGlobalLevel(parsed.DefaultLevel)
}

// SetFormat 设置输出格式，对已创建的 Logger 同样生效
func SetFormat(format LogFormat) {
	ConfigFromEnv().Format = format
	globalFormat.Store(int32(format))
}

// Discard 返回一个丢弃所有日志的 Logger
//
// 用于调用方需要静默某个组件的场景，例如过滤器的逐条警告。
func Discard() *slog.Logger {
	return slog.New(discardHandler{})
}

// With 创建带有预设属性的 Logger
//
// 级别仍跟随 subsystem，SetLevel 对返回的 Logger 同样生效。
func With(subsystem string, args ...any) *slog.Logger {
	return Logger(subsystem).With(args...)
}

// Fatal 以 fatal 级别记录日志
//
// 与 log.Fatal 不同，这里不会退出进程：网关在站点或设备失效时继续降级运行。
func Fatal(l *slog.Logger, msg string, args ...any) {
	if l == nil {
		l = Logger(defaultSubsystem)
	}
	l.Log(context.Background(), LevelFatal, msg, args...)
}

// SetOutput 设置全局日志输出目标
//
// 由于使用了 dynamicWriter，已创建的 Logger 也会输出到新的 writer。
func SetOutput(w io.Writer) {
	globalOutputMu.Lock()
	globalOutput = w
	globalOutputMu.Unlock()
}
