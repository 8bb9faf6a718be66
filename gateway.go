package ecosgate

import (
	"io"
	"net"
	"sync"
	"time"

	"go.uber.org/fx"

	"github.com/dep2p/go-ecosgate/config"
	"github.com/dep2p/go-ecosgate/internal/core/broadcast"
	"github.com/dep2p/go-ecosgate/internal/core/device"
	"github.com/dep2p/go-ecosgate/internal/core/feedback"
	"github.com/dep2p/go-ecosgate/internal/core/listener"
	"github.com/dep2p/go-ecosgate/internal/core/metrics"
	"github.com/dep2p/go-ecosgate/internal/core/router"
	"github.com/dep2p/go-ecosgate/internal/util/logger"
	pkgif "github.com/dep2p/go-ecosgate/pkg/interfaces"
	"github.com/dep2p/go-ecosgate/pkg/types"
)

var log = logger.Logger("ecosgate")

// ════════════════════════════════════════════════════════════════════════════
//                              网关状态
// ════════════════════════════════════════════════════════════════════════════

// GatewayState 网关状态
type GatewayState int

const (
	// StateIdle 空闲状态（已创建，未启动）
	StateIdle GatewayState = iota

	// StateInitializing 初始化中（Fx App 启动中）
	StateInitializing

	// StateRunning 运行中
	StateRunning

	// StateStopping 停止中
	StateStopping

	// StateStopped 已停止
	StateStopped
)

// String 返回状态的字符串表示
func (s GatewayState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateInitializing:
		return "initializing"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// 超时配置
const (
	// initializeTimeout 初始化超时（Fx App Start）
	initializeTimeout = 30 * time.Second

	// stopTimeout Close 内部停止 Fx App 的超时
	stopTimeout = 10 * time.Second
)

// Gateway ECoS/HSI-88 协议网关
//
// Gateway 是一个门面，聚合监听、路由、站点连接、反馈设备和推送组件。
// 同一进程可以创建多个 Gateway，各自持有独立的组件和状态。
//
// 一个 Gateway 只能启动一次；Stop 后组件不可重用，需要重新 New。
type Gateway struct {
	// ────────────────────────────────────────────────────────────────────────
	// 配置和状态
	// ────────────────────────────────────────────────────────────────────────

	cfg     *config.Config
	closers []io.Closer

	app *fx.App

	mu      sync.RWMutex
	state   GatewayState
	started bool
	stopped bool
	closed  bool

	// ────────────────────────────────────────────────────────────────────────
	// 注入的组件
	// ────────────────────────────────────────────────────────────────────────

	bus    pkgif.EventBus
	pool   *feedback.Pool
	server *listener.Server
	router *router.Router

	// 以下组件按配置可能为 nil
	link    pkgif.StationLink
	device  *device.Service
	http    *broadcast.Server
	metrics *metrics.Metrics
}

// New 由配置创建网关
//
// 配置在此处验证；组件在 Start 之前都不会打开任何 socket 或设备。
func New(cfg *config.Config, opts ...Option) (*Gateway, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}
	o, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}

	gw := &Gateway{
		cfg:     cfg,
		closers: o.closers,
		state:   StateIdle,
	}
	app, err := buildFxApp(cfg, o, gw)
	if err != nil {
		return nil, err
	}
	gw.app = app
	return gw, nil
}

// ════════════════════════════════════════════════════════════════════════════
//                              访问器
// ════════════════════════════════════════════════════════════════════════════

// Config 返回网关配置
func (g *Gateway) Config() *config.Config {
	return g.cfg
}

// State 返回网关当前状态
func (g *Gateway) State() GatewayState {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state
}

// ListenAddr 返回控制端监听地址，未启动时为 nil
func (g *Gateway) ListenAddr() net.Addr {
	return g.server.Addr()
}

// HTTPAddr 返回推送/指标 HTTP 服务地址，未启用或未启动时为 nil
func (g *Gateway) HTTPAddr() net.Addr {
	if g.http == nil {
		return nil
	}
	return g.http.Addr()
}

// StationState 返回站点连接状态
//
// 未启用站点连接时总是 Disconnected。
func (g *Gateway) StationState() types.ConnState {
	if g.link == nil {
		return types.ConnStateDisconnected
	}
	return g.link.State()
}

// SessionCount 返回当前控制端会话数
func (g *Gateway) SessionCount() int {
	return g.server.SessionCount()
}

// DeviceFailed 反馈设备是否已失败
//
// 未使用设备时返回 false。
func (g *Gateway) DeviceFailed() bool {
	return g.device != nil && g.device.Failed()
}

// Snapshot 返回所有已配置模块的当前状态事件块
func (g *Gateway) Snapshot() []string {
	return g.router.Snapshot()
}

// Module 按对象 ID 查询反馈模块
func (g *Gateway) Module(objectID int) (*feedback.ModuleState, bool) {
	return g.pool.Get(objectID)
}

// EventBus 返回网关事件总线，可订阅 pkg/types 中的事件
func (g *Gateway) EventBus() pkgif.EventBus {
	return g.bus
}
