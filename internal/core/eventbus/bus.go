package eventbus

import (
	"errors"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/dep2p/go-ecosgate/internal/util/logger"
	pkgif "github.com/dep2p/go-ecosgate/pkg/interfaces"
)

var log = logger.Logger("eventbus")

// ============================================================================
// 错误定义
// ============================================================================

var (
	// ErrInvalidEventType 无效的事件类型
	ErrInvalidEventType = errors.New("invalid event type")
	// ErrNonPointerType 非指针类型
	ErrNonPointerType = errors.New("event type must be a pointer")
	// ErrEmitterClosed 发射器已关闭
	ErrEmitterClosed = errors.New("emitter is closed")
)

// defaultBufSize 订阅默认缓冲区大小
const defaultBufSize = 16

// ============================================================================
// Bus 实现
// ============================================================================

// Bus 事件总线
type Bus struct {
	mu    sync.Mutex
	nodes map[reflect.Type]*node
}

var _ pkgif.EventBus = (*Bus)(nil)

// node 单个事件类型的订阅者集合
type node struct {
	mu        sync.Mutex
	typ       reflect.Type
	sinks     []*Subscription
	emitters  atomic.Int32
	keepLast  bool
	last      interface{}
	dropCount atomic.Int64
}

// NewBus 创建新的事件总线
func NewBus() *Bus {
	return &Bus{
		nodes: make(map[reflect.Type]*node),
	}
}

// Subscribe 订阅事件
//
// eventType 必须是事件类型的指针，如 new(types.EvtStationState)。
func (b *Bus) Subscribe(eventType interface{}, opts ...pkgif.SubscriptionOpt) (pkgif.Subscription, error) {
	typ, err := elemType(eventType)
	if err != nil {
		return nil, err
	}

	settings := pkgif.SubscriptionSettings{Buffer: defaultBufSize}
	for _, opt := range opts {
		opt(&settings)
	}
	if settings.Buffer < 0 {
		settings.Buffer = 0
	}

	sub := &Subscription{
		bus: b,
		typ: typ,
		out: make(chan interface{}, settings.Buffer),
	}

	b.withNode(typ, func(n *node) {
		n.sinks = append(n.sinks, sub)

		// 有状态节点：立即补发最后一个事件
		if n.keepLast && n.last != nil {
			select {
			case sub.out <- n.last:
			default:
			}
		}
	})

	return sub, nil
}

// Emitter 获取发射器
func (b *Bus) Emitter(eventType interface{}, opts ...pkgif.EmitterOpt) (pkgif.Emitter, error) {
	typ, err := elemType(eventType)
	if err != nil {
		return nil, err
	}

	var settings pkgif.EmitterSettings
	for _, opt := range opts {
		opt(&settings)
	}

	var n *node
	b.withNode(typ, func(nd *node) {
		n = nd
		n.emitters.Add(1)
		if settings.Stateful {
			n.keepLast = true
		}
	})

	return &Emitter{bus: b, node: n}, nil
}

// GetAllEventTypes 返回所有已注册的事件类型（零值实例）
func (b *Bus) GetAllEventTypes() []interface{} {
	b.mu.Lock()
	defer b.mu.Unlock()

	types := make([]interface{}, 0, len(b.nodes))
	for typ := range b.nodes {
		types = append(types, reflect.Zero(typ).Interface())
	}
	return types
}

// ============================================================================
// 内部方法
// ============================================================================

// elemType 校验事件类型参数并返回元素类型
func elemType(eventType interface{}) (reflect.Type, error) {
	if eventType == nil {
		return nil, ErrInvalidEventType
	}
	typ := reflect.TypeOf(eventType)
	if typ.Kind() != reflect.Ptr {
		return nil, ErrNonPointerType
	}
	return typ.Elem(), nil
}

// withNode 在持有节点锁的情况下执行 cb，节点不存在时创建
func (b *Bus) withNode(typ reflect.Type, cb func(*node)) {
	b.mu.Lock()
	n, ok := b.nodes[typ]
	if !ok {
		n = &node{typ: typ}
		b.nodes[typ] = n
	}
	n.mu.Lock()
	b.mu.Unlock()

	cb(n)
	n.mu.Unlock()
}

// tryDropNode 没有订阅者和发射器时删除节点
func (b *Bus) tryDropNode(typ reflect.Type) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n, ok := b.nodes[typ]
	if !ok {
		return
	}

	n.mu.Lock()
	idle := len(n.sinks) == 0 && n.emitters.Load() == 0 && !n.keepLast
	n.mu.Unlock()

	if idle {
		delete(b.nodes, typ)
	}
}

// removeSub 从节点移除订阅
//
// 在节点锁内完成移除，保证之后不会再有 emit 向 sub.out 写入。
func (b *Bus) removeSub(sub *Subscription) {
	b.mu.Lock()
	n, ok := b.nodes[sub.typ]
	if !ok {
		b.mu.Unlock()
		return
	}
	n.mu.Lock()
	b.mu.Unlock()

	for i, s := range n.sinks {
		if s == sub {
			n.sinks = append(n.sinks[:i], n.sinks[i+1:]...)
			break
		}
	}
	n.mu.Unlock()

	b.tryDropNode(sub.typ)
}

// emit 非阻塞地投递到所有订阅者
func (n *node) emit(event interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.keepLast {
		n.last = event
	}

	for _, sub := range n.sinks {
		select {
		case sub.out <- event:
		default:
			dropped := n.dropCount.Add(1)
			// 每丢弃 100 个事件警告一次，避免日志泛滥
			if dropped%100 == 1 {
				log.Warn("慢消费者检测",
					"dropped", dropped,
					"type", n.typ.String())
			}
		}
	}
}

// ============================================================================
// 选项
// ============================================================================

// BufSize 设置订阅缓冲区大小
func BufSize(size int) pkgif.SubscriptionOpt {
	return pkgif.BufSize(size)
}

// Stateful 设置发射器为有状态模式
func Stateful() pkgif.EmitterOpt {
	return pkgif.Stateful()
}
