package broadcast

import (
	"context"

	"go.uber.org/fx"

	"github.com/dep2p/go-ecosgate/config"
	"github.com/dep2p/go-ecosgate/internal/core/metrics"
	pkgif "github.com/dep2p/go-ecosgate/pkg/interfaces"
)

// ============================================================================
//                              模块输入依赖
// ============================================================================

// ModuleInput 定义模块输入依赖
type ModuleInput struct {
	fx.In

	Config  *config.Config
	Metrics *metrics.Metrics `optional:"true"`
}

// ModuleOutput 定义模块输出服务
type ModuleOutput struct {
	fx.Out

	Server *Server

	// Sink 推送未启用时为 nil
	Sink pkgif.BroadcastSink
}

// ProvideServer 提供 HTTP 服务与推送 Hub
//
// 推送关闭而指标开启时，服务只挂载指标路径。
func ProvideServer(input ModuleInput) ModuleOutput {
	cfg := input.Config

	var (
		hub  *Hub
		sink pkgif.BroadcastSink
	)
	if cfg.Broadcast.Enabled {
		hub = NewHub(input.Metrics)
		sink = hub
	}

	return ModuleOutput{
		Server: NewServer(cfg.Broadcast, cfg.Metrics, hub, input.Metrics),
		Sink:   sink,
	}
}

// Module 返回 fx 模块配置
//
// broadcast.enabled 与 metrics.enabled 都为 false 时网关不装配本模块。
func Module() fx.Option {
	return fx.Module("broadcast",
		fx.Provide(ProvideServer),
		fx.Invoke(registerLifecycle),
	)
}

// lifecycleInput 生命周期输入参数
type lifecycleInput struct {
	fx.In

	LC     fx.Lifecycle
	Server *Server
}

// registerLifecycle 注册生命周期
func registerLifecycle(input lifecycleInput) {
	input.LC.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return input.Server.Start(ctx)
		},
		OnStop: func(_ context.Context) error {
			return input.Server.Stop()
		},
	})
}

// 模块元信息常量
const (
	// Version 模块版本
	Version = "1.0.0"
	// Name 模块名称
	Name = "broadcast"
	// Description 模块描述
	Description = "被动观察者 WebSocket 推送与指标 HTTP 服务"
)
