package station

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

	Link pkgif.StationLink
}

// ProvideSupervisor 提供站点连接监管者
func ProvideSupervisor(input ModuleInput) ModuleOutput {
	s := NewSupervisor(input.Config.Ecos,
		WithEventBus(input.EventBus),
		WithMetrics(input.Metrics),
	)
	return ModuleOutput{Link: s}
}

// Module 返回 fx 模块配置
//
// runtime.connectToEcos 为 false 时网关不装配本模块。
func Module() fx.Option {
	return fx.Module("station",
		fx.Provide(ProvideSupervisor),
		fx.Invoke(registerLifecycle),
	)
}

// lifecycleInput 生命周期输入参数
type lifecycleInput struct {
	fx.In

	LC   fx.Lifecycle
	Link pkgif.StationLink
}

// registerLifecycle 注册生命周期
func registerLifecycle(input lifecycleInput) {
	input.LC.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return input.Link.Start(ctx)
		},
		OnStop: func(_ context.Context) error {
			return input.Link.Stop()
		},
	})
}

// 模块元信息常量
const (
	// Version 模块版本
	Version = "1.0.0"
	// Name 模块名称
	Name = "station"
	// Description 模块描述
	Description = "站点连接监管：探测、握手、消息重组与重连"
)
