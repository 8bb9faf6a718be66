// Package main 提供 ecosgate 命令行入口
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/multierr"

	"github.com/dep2p/go-ecosgate"
	"github.com/dep2p/go-ecosgate/config"
	"github.com/dep2p/go-ecosgate/internal/util/logger"
)

var log = logger.Logger("ecosgate/cmd")

// ═══════════════════════════════════════════════════════════════════════════
// 命令行参数
// ═══════════════════════════════════════════════════════════════════════════
//
//   命令行参数：运行时覆盖 / 快速测试
//   配置文件：站点地址、模块数量、去抖阈值、过滤规则等固定配置
//
// ═══════════════════════════════════════════════════════════════════════════
var (
	// ─────────────────────────────────────────────────────────────────────
	// 运行时参数
	// ─────────────────────────────────────────────────────────────────────
	configFile = flag.String("config", "ecosgate.json", "配置文件路径（.json/.yaml）")
	ecosIP     = flag.String("ecos", "", "覆盖站点地址 ecos.ip")
	listenPort = flag.Int("port", 0, "覆盖控制端监听端口 server.listenPort")
	device     = flag.String("device", "", "覆盖 HSI-88 串口 hsi.devicePath")
	simulate   = flag.Bool("s88-sim", false, "用模拟器代替 HSI-88 设备")
	noStation  = flag.Bool("no-ecos", false, "不连接站点")

	// ─────────────────────────────────────────────────────────────────────
	// 日志参数
	// ─────────────────────────────────────────────────────────────────────
	logLevel  = flag.String("log-level", "", "日志级别（station=debug,info 语法）")
	logFormat = flag.String("log-format", "", "日志格式 text/json")
	logFile   = flag.String("log", "", "日志文件路径")

	// ─────────────────────────────────────────────────────────────────────
	// 信息显示
	// ─────────────────────────────────────────────────────────────────────
	showVersion = flag.Bool("version", false, "显示版本信息")
	dumpConfig  = flag.Bool("dump-config", false, "打印合并后的配置并退出")
)

// shutdownTimeout 收到信号后等待网关停止的时间
const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flag.Parse()

	if *showVersion {
		fmt.Println(ecosgate.VersionInfo())
		return nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("配置错误: %w", err)
	}

	if *dumpConfig {
		data, err := cfg.ToJSON()
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	logHandle, err := setupLogging(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "警告: %v\n", err)
		fmt.Fprintln(os.Stderr, "将继续使用控制台输出日志")
	}

	var opts []ecosgate.Option
	if logHandle != nil {
		opts = append(opts, ecosgate.WithCloser(logHandle))
	}

	log.Info("启动 ecosgate",
		"version", ecosgate.Version,
		"commit", ecosgate.GitCommit,
		"buildDate", ecosgate.BuildDate)

	gw, err := ecosgate.New(cfg, opts...)
	if err != nil {
		if logHandle != nil {
			_ = logHandle.Close()
		}
		return fmt.Errorf("创建网关失败: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := gw.Start(ctx); err != nil {
		_ = gw.Close()
		return fmt.Errorf("启动失败: %w", err)
	}

	fmt.Printf("ecosgate 已启动，监听 %s，按 Ctrl+C 退出\n", gw.ListenAddr())
	<-ctx.Done()
	fmt.Println("\n正在关闭网关...")

	stopCtx, stopCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stopCancel()
	err = gw.Stop(stopCtx)
	return multierr.Append(err, gw.Close())
}

// loadConfig 加载配置文件并应用命令行覆盖
//
// 未显式指定 -config 且默认文件不存在时使用默认配置。
func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	if _, err := os.Stat(*configFile); err == nil || isFlagSet("config") {
		cfg, err = config.Load(*configFile)
		if err != nil {
			return nil, err
		}
	} else {
		cfg = config.NewConfig()
	}

	if *ecosIP != "" {
		cfg.Ecos.IP = *ecosIP
	}
	if isFlagSet("port") {
		cfg.Server.ListenPort = *listenPort
	}
	if *device != "" {
		cfg.HSI.DevicePath = *device
	}
	if *simulate {
		cfg.Runtime.IsS88Simulation = true
	}
	if *noStation {
		cfg.Runtime.ConnectToEcos = false
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	if *logFile != "" {
		cfg.Log.File = *logFile
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setupLogging 按配置设置日志级别、格式与输出
//
// ECOSGATE_LOG_LEVEL 已设置且未使用 -log-level 时，环境变量优先于配置文件。
func setupLogging(c config.LogConfig) (*os.File, error) {
	if os.Getenv("ECOSGATE_LOG_LEVEL") == "" || isFlagSet("log-level") {
		logger.ApplyLevels(c.Level)
	}
	if os.Getenv("ECOSGATE_LOG_FORMAT") == "" || isFlagSet("log-format") {
		logger.SetFormat(logger.ParseFormat(c.Format))
	}
	if c.File == "" {
		return nil, nil
	}

	if err := os.MkdirAll(filepath.Dir(c.File), 0750); err != nil {
		return nil, fmt.Errorf("创建日志目录失败: %w", err)
	}
	file, err := os.OpenFile(c.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("打开日志文件失败: %w", err)
	}
	logger.SetOutput(file)
	return file, nil
}

// isFlagSet 检查命令行参数是否被显式设置
func isFlagSet(name string) bool {
	found := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}
