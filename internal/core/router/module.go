package router

import (
	"context"

	"go.uber.org/fx"

	"github.com/dep2p/go-ecosgate/config"
	"github.com/dep2p/go-ecosgate/internal/core/device"
	"github.com/dep2p/go-ecosgate/internal/core/feedback"
	"github.com/dep2p/go-ecosgate/internal/core/listener"
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
	Pool     *feedback.Pool
	Server   *listener.Server
	Link     pkgif.StationLink   `optional:"true"`
	Sink     pkgif.BroadcastSink `optional:"true"`
	Device   *device.Service     `optional:"true"`
	EventBus pkgif.EventBus      `optional:"true"`
	Metrics  *metrics.Metrics    `optional:"true"`
}

// ModuleOutput 定义模块输出服务
type ModuleOutput struct {
	fx.Out

	Router *Router
}

// ProvideRouter 创建路由并接入监听、站点和设备
//
// 注入发生在任何 OnStart 之前，组件启动时回调目标已就绪。
func ProvideRouter(input ModuleInput) ModuleOutput {
	r := New(input.Config, input.Pool, input.Server,
		WithStation(input.Link),
		WithSink(input.Sink),
		WithEventBus(input.EventBus),
		WithMetrics(input.Metrics),
	)

	input.Server.SetHandler(r)
	input.Server.SetSnapshotProvider(r)
	if input.Link != nil {
		input.Link.SetObserver(r)
	}
	if input.Device != nil {
		input.Device.SetHandler(r.HandleDeviceLine)
	}
	return ModuleOutput{Router: r}
}

// Module 返回 fx 模块配置
func Module() fx.Option {
	return fx.Module("router",
		fx.Provide(ProvideRouter),
		fx.Invoke(registerLifecycle),
	)
}

// lifecycleInput 生命周期输入参数
type lifecycleInput struct {
	fx.In

	LC     fx.Lifecycle
	Router *Router
}

// registerLifecycle 注册生命周期
func registerLifecycle(input lifecycleInput) {
	input.LC.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return input.Router.Close()
		},
	})
}

// 模块元信息常量
const (
	// Version 模块版本
	Version = "1.0.0"
	// Name 模块名称
	Name = "router"
	// Description 模块描述
	Description = "网关路由：反馈拦截、对象过滤、站点转发与设备事件分发"
)
