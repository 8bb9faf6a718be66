package eventbus

import (
	"reflect"

	pkgif "github.com/dep2p/go-ecosgate/pkg/interfaces"
	"go.uber.org/fx"
)

// ============================================================================
// Fx 模块
// ============================================================================

// Result Fx 模块输出结果
type Result struct {
	fx.Out

	EventBus pkgif.EventBus
}

// Module 返回 Fx 模块
func Module() fx.Option {
	return fx.Module("eventbus",
		fx.Provide(ProvideEventBus),
	)
}

// ProvideEventBus 提供 EventBus 实例
//
// 总线本身无后台任务，不需要生命周期钩子。
func ProvideEventBus() Result {
	return Result{
		EventBus: NewBus(),
	}
}

// Publish 用一次性发射器发布单个事件
//
// 供低频事件（设备打开/失败）使用；高频路径应持有自己的 Emitter。
func Publish(bus pkgif.EventBus, evt interface{}) error {
	if evt == nil {
		return ErrInvalidEventType
	}
	em, err := bus.Emitter(reflect.New(reflect.TypeOf(evt)).Interface())
	if err != nil {
		return err
	}
	defer em.Close()
	return em.Emit(evt)
}

// ============================================================================
// 模块元信息
// ============================================================================

const (
	// Version 模块版本
	Version = "1.0.0"
	// Name 模块名称
	Name = "eventbus"
	// Description 模块描述
	Description = "事件总线模块，发布站点、设备、会话和反馈事件"
)
