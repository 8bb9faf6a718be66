package metrics

import (
	"context"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"

	"github.com/dep2p/go-ecosgate/config"
	"github.com/dep2p/go-ecosgate/internal/core/eventbus"
	"github.com/dep2p/go-ecosgate/internal/util/logger"
	pkgif "github.com/dep2p/go-ecosgate/pkg/interfaces"
	"github.com/dep2p/go-ecosgate/pkg/types"
)

var log = logger.Logger("metrics")

// ============================================================================
//                              模块输入依赖
// ============================================================================

// ModuleInput 定义模块输入依赖
type ModuleInput struct {
	fx.In

	Config   *config.Config
	EventBus pkgif.EventBus `optional:"true"`
	Clock    clock.Clock    `optional:"true"`
}

// ModuleOutput 定义模块输出服务
type ModuleOutput struct {
	fx.Out

	// Metrics 指标未启用时为 nil，记录方法为空操作
	Metrics *Metrics
}

// ProvideMetrics 提供指标集合
func ProvideMetrics(input ModuleInput) ModuleOutput {
	if !input.Config.Metrics.Enabled {
		return ModuleOutput{}
	}
	return ModuleOutput{Metrics: New(input.Clock)}
}

// Module 返回 fx 模块配置
func Module() fx.Option {
	return fx.Module("metrics",
		fx.Provide(ProvideMetrics),
		fx.Invoke(registerLifecycle),
	)
}

// lifecycleInput 生命周期注册输入
type lifecycleInput struct {
	fx.In

	LC       fx.Lifecycle
	Metrics  *Metrics
	EventBus pkgif.EventBus `optional:"true"`
}

// registerLifecycle 注册事件订阅
func registerLifecycle(input lifecycleInput) {
	if input.Metrics == nil || input.EventBus == nil {
		return
	}

	var cancel context.CancelFunc
	input.LC.Append(fx.Hook{
		OnStart: func(context.Context) error {
			var ctx context.Context
			ctx, cancel = context.WithCancel(context.Background())
			if err := Subscribe(ctx, input.EventBus, input.Metrics); err != nil {
				cancel()
				return err
			}
			log.Debug("指标事件订阅已启动")
			return nil
		},
		OnStop: func(context.Context) error {
			if cancel != nil {
				cancel()
			}
			return nil
		},
	})
}

// Subscribe 把事件总线上的状态事件映射到指标
//
// ctx 取消后订阅自动关闭。
func Subscribe(ctx context.Context, bus pkgif.EventBus, m *Metrics) error {
	if err := eventbus.Consume(ctx, bus, func(e types.EvtStationState) {
		m.StationState(e.Current)
	}); err != nil {
		return err
	}
	if err := eventbus.Consume(ctx, bus, func(types.EvtSessionOpened) {
		m.SessionDelta(1)
	}); err != nil {
		return err
	}
	if err := eventbus.Consume(ctx, bus, func(types.EvtSessionClosed) {
		m.SessionDelta(-1)
	}); err != nil {
		return err
	}
	if err := eventbus.Consume(ctx, bus, func(e types.EvtFeedbackChanged) {
		m.FeedbackChanged(e.ObjectID)
	}); err != nil {
		return err
	}
	return eventbus.Consume(ctx, bus, func(types.EvtDeviceFailed) {
		m.DeviceFailure()
	})
}

// 模块元信息常量
const (
	// Version 模块版本
	Version = "1.0.0"
	// Name 模块名称
	Name = "metrics"
	// Description 模块描述
	Description = "Prometheus 指标与链路流量统计"
)
