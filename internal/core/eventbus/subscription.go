package eventbus

import (
	"context"
	"reflect"
	"sync"
	"sync/atomic"

	pkgif "github.com/dep2p/go-ecosgate/pkg/interfaces"
)

// ============================================================================
// Subscription 实现
// ============================================================================

// Subscription 订阅
type Subscription struct {
	bus       *Bus
	typ       reflect.Type
	out       chan interface{}
	closeOnce sync.Once
}

// Out 返回事件通道；Close 之后通道被关闭
func (s *Subscription) Out() <-chan interface{} {
	return s.out
}

// Close 取消订阅，可重复调用
func (s *Subscription) Close() error {
	s.closeOnce.Do(func() {
		// removeSub 返回后不会再有写入
		s.bus.removeSub(s)
		close(s.out)
	})
	return nil
}

// ============================================================================
// Emitter 实现
// ============================================================================

// Emitter 事件发射器
type Emitter struct {
	bus       *Bus
	node      *node
	closed    atomic.Bool
	closeOnce sync.Once
}

// Emit 发射事件
func (e *Emitter) Emit(event interface{}) error {
	if e.closed.Load() {
		return ErrEmitterClosed
	}
	e.node.emit(event)
	return nil
}

// Close 关闭发射器，可重复调用
func (e *Emitter) Close() error {
	e.closeOnce.Do(func() {
		e.closed.Store(true)
		if e.node.emitters.Add(-1) == 0 {
			e.bus.tryDropNode(e.node.typ)
		}
	})
	return nil
}

// ============================================================================
// 类型化消费
// ============================================================================

// Consume 订阅类型 T 的事件并在新 goroutine 中逐个交给 fn
//
// ctx 取消时订阅被关闭、goroutine 退出。T 必须与发射时的值类型一致。
func Consume[T any](ctx context.Context, bus pkgif.EventBus, fn func(T), opts ...pkgif.SubscriptionOpt) error {
	sub, err := bus.Subscribe(new(T), opts...)
	if err != nil {
		return err
	}

	go func() {
		defer sub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case raw, ok := <-sub.Out():
				if !ok {
					return
				}
				if evt, ok := raw.(T); ok {
					fn(evt)
				}
			}
		}
	}()
	return nil
}
