package feedback

import (
	"github.com/benbjohnson/clock"
	"go.uber.org/fx"

	"github.com/dep2p/go-ecosgate/config"
)

// ============================================================================
//                              模块输入依赖
// ============================================================================

// ModuleInput 定义模块输入依赖
type ModuleInput struct {
	fx.In

	Config *config.Config

	// Clock 时间源（可选，测试时注入 clock.NewMock()）
	Clock clock.Clock `optional:"true"`
}

// ModuleOutput 定义模块输出服务
type ModuleOutput struct {
	fx.Out

	Pool *Pool
}

// ProvidePool 由配置创建模块池
func ProvidePool(input ModuleInput) ModuleOutput {
	cfg := input.Config
	th := Thresholds{
		On:  cfg.Debounce.On.Duration(),
		Off: cfg.Debounce.Off.Duration(),
	}

	pool := NewPool(cfg.HSI.Total(), th, input.Clock)
	log.Info("反馈模块池已分配",
		"configured", pool.Count(),
		"on", th.On,
		"off", th.Off)

	return ModuleOutput{Pool: pool}
}

// Module 返回 fx 模块配置
//
// 模块池没有后台任务，不注册生命周期钩子。
func Module() fx.Option {
	return fx.Module("feedback",
		fx.Provide(ProvidePool),
	)
}

// 模块元信息常量
const (
	// Version 模块版本
	Version = "1.0.0"
	// Name 模块名称
	Name = "feedback"
	// Description 模块描述
	Description = "反馈模块去抖状态机与模块池"
)
