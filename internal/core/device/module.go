package device

import (
	"context"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"

	"github.com/dep2p/go-ecosgate/config"
	pkgif "github.com/dep2p/go-ecosgate/pkg/interfaces"
)

// ============================================================================
//                              模块输入依赖
// ============================================================================

// ModuleInput 定义模块输入依赖
type ModuleInput struct {
	fx.In

	Config   *config.Config
	EventBus pkgif.EventBus `optional:"true"`
	Clock    clock.Clock    `optional:"true"`

	// Source 外部注入的数据源（可选，测试时使用）
	Source pkgif.DeviceSource `optional:"true"`
}

// ModuleOutput 定义模块输出服务
type ModuleOutput struct {
	fx.Out

	Service *Service
}

// NewSource 按运行时开关选择数据源
func NewSource(cfg *config.Config, clk clock.Clock) pkgif.DeviceSource {
	if cfg.Runtime.IsS88Simulation {
		return NewSimulator(cfg.Runtime.SimulationInterval.Duration(), clk)
	}
	return NewSerial(cfg.HSI, cfg.Debounce.PollInterval())
}

// ProvideService 提供设备服务
func ProvideService(input ModuleInput) ModuleOutput {
	source := input.Source
	if source == nil {
		source = NewSource(input.Config, input.Clock)
	}
	return ModuleOutput{Service: NewService(source, input.EventBus)}
}

// Module 返回 fx 模块配置
//
// runtime.isSimulation 为 true 且未开启 S88 模拟时网关不装配本模块。
func Module() fx.Option {
	return fx.Module("device",
		fx.Provide(ProvideService),
		fx.Invoke(registerLifecycle),
	)
}

// lifecycleInput 生命周期输入参数
type lifecycleInput struct {
	fx.In

	LC      fx.Lifecycle
	Service *Service
}

// registerLifecycle 注册生命周期
func registerLifecycle(input lifecycleInput) {
	input.LC.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return input.Service.Start(ctx)
		},
		OnStop: func(_ context.Context) error {
			return input.Service.Stop()
		},
	})
}

// 模块元信息常量
const (
	// Version 模块版本
	Version = "1.0.0"
	// Name 模块名称
	Name = "device"
	// Description 模块描述
	Description = "HSI-88-USB 串口驱动、S88 模拟器与设备服务"
)
