package listener

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

	Config   *config.Config
	EventBus pkgif.EventBus   `optional:"true"`
	Metrics  *metrics.Metrics `optional:"true"`
}

// ModuleOutput 定义模块输出服务
type ModuleOutput struct {
	fx.Out

	Server      *Server
	Broadcaster pkgif.SessionBroadcaster
}

// ProvideServer 提供控制端监听服务
//
// 帧处理器和快照提供者由路由模块通过 SetHandler/SetSnapshotProvider 注入。
func ProvideServer(input ModuleInput) ModuleOutput {
	s := NewServer(input.Config.Server,
		WithEventBus(input.EventBus),
		WithMetrics(input.Metrics),
	)
	return ModuleOutput{Server: s, Broadcaster: s}
}

// Module 返回 fx 模块配置
func Module() fx.Option {
	return fx.Module("listener",
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
	Name = "listener"
	// Description 模块描述
	Description = "控制端 TCP 监听、会话注册表与周期快照刷新"
)
