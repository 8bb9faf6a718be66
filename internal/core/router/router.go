package router

import (
	"sync/atomic"

	"github.com/dep2p/go-ecosgate/config"
	"github.com/dep2p/go-ecosgate/internal/core/broadcast"
	"github.com/dep2p/go-ecosgate/internal/core/feedback"
	"github.com/dep2p/go-ecosgate/internal/core/filter"
	"github.com/dep2p/go-ecosgate/internal/core/metrics"
	"github.com/dep2p/go-ecosgate/internal/util/logger"
	pkgif "github.com/dep2p/go-ecosgate/pkg/interfaces"
	"github.com/dep2p/go-ecosgate/pkg/ecos"
	"github.com/dep2p/go-ecosgate/pkg/types"
)

var log = logger.Logger("router")

// ============================================================================
//                              选项
// ============================================================================

// Option Router 选项
type Option func(*Router)

// WithStation 设置站点连接；未设置时所有非拦截帧被丢弃
func WithStation(link pkgif.StationLink) Option {
	return func(r *Router) {
		r.link = link
	}
}

// WithSink 设置推送通道
func WithSink(sink pkgif.BroadcastSink) Option {
	return func(r *Router) {
		r.sink = sink
	}
}

// WithEventBus 发布 EvtFeedbackChanged
func WithEventBus(bus pkgif.EventBus) Option {
	return func(r *Router) {
		r.bus = bus
	}
}

// WithMetrics 设置指标
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Router) {
		r.metrics = m
	}
}

// WithFilter 替换对象过滤器
func WithFilter(f *filter.Filter) Option {
	return func(r *Router) {
		r.filter = f
	}
}

// ============================================================================
//                              Router
// ============================================================================

// Router 网关路由
//
// 实现 interfaces.ConnectionObserver、FrameHandler 和 SnapshotProvider。
type Router struct {
	pool     *feedback.Pool
	sessions pkgif.SessionBroadcaster
	filter   *filter.Filter
	info     broadcast.Info

	link    pkgif.StationLink
	sink    pkgif.BroadcastSink
	bus     pkgif.EventBus
	metrics *metrics.Metrics

	changed pkgif.Emitter

	// versionShown 版本横幅只在第一次以 info 级别记录
	versionShown atomic.Bool
}

var (
	_ pkgif.ConnectionObserver = (*Router)(nil)
	_ pkgif.FrameHandler       = (*Router)(nil)
	_ pkgif.SnapshotProvider   = (*Router)(nil)
)

// New 创建路由
func New(cfg *config.Config, pool *feedback.Pool, sessions pkgif.SessionBroadcaster, opts ...Option) *Router {
	r := &Router{
		pool:     pool,
		sessions: sessions,
		filter:   filter.New(filter.RuleFromConfig(cfg.Filter)),
		info:     broadcast.InfoFromConfig(cfg.HSI),
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.bus != nil {
		em, err := r.bus.Emitter(new(types.EvtFeedbackChanged))
		if err != nil {
			log.Warn("创建反馈事件发射器失败", "err", err)
		} else {
			r.changed = em
		}
	}
	return r
}

// Close 释放事件发射器
func (r *Router) Close() error {
	if r.changed != nil {
		return r.changed.Close()
	}
	return nil
}

// ============================================================================
//                              控制端帧
// ============================================================================

// HandleFrame 处理一条控制端帧
func (r *Router) HandleFrame(sessionID, frame string) {
	cmd, err := ecos.Parse(frame)
	if err != nil {
		log.Debug("丢弃无法解析的帧", "session", sessionID, "frame", frame, "err", err)
		r.metrics.Frame(types.OutcomeMalformed)
		return
	}

	if Intercepted(cmd.ObjectID) {
		r.metrics.Frame(types.OutcomeIntercepted)
		msg, ok := r.reply(cmd)
		if !ok {
			log.Debug("丢弃不支持的反馈命令", "session", sessionID, "frame", frame)
			return
		}
		if err := r.sessions.SendTo(sessionID, msg); err != nil {
			log.Debug("回复反馈命令失败", "session", sessionID, "err", err)
		}
		return
	}

	if err := r.filter.Check(cmd); err != nil {
		log.Debug("帧被过滤", "session", sessionID, "frame", frame, "err", err)
		r.metrics.Frame(types.OutcomeFiltered)
		return
	}

	if r.link == nil || r.link.State() != types.ConnStateConnected {
		log.Debug("站点未连接，丢弃帧", "frame", frame)
		r.metrics.Frame(types.OutcomeDropped)
		return
	}
	if err := r.link.Send(frame); err != nil {
		log.Warn("转发到站点失败", "frame", frame, "err", err)
		r.metrics.Frame(types.OutcomeDropped)
		return
	}
	r.metrics.Frame(types.OutcomeForwarded)
}

// ============================================================================
//                              站点回调
// ============================================================================

// OnConnected 站点连接建立
func (r *Router) OnConnected(addr string) {
	log.Info("站点已连接，开始转发", "addr", addr)
}

// OnFailed 站点连接失败；Supervisor 负责重连
func (r *Router) OnFailed(addr string, err error) {
	log.Warn("站点连接中断，命令暂停转发", "addr", addr, "err", err)
}

// OnMessage 站点消息原样分发给所有会话
func (r *Router) OnMessage(msg string) {
	n := r.sessions.Broadcast(msg)
	log.Debug("站点消息已分发", "sessions", n)
}

// ============================================================================
//                              设备行
// ============================================================================

// HandleDeviceLine 处理一行设备输出
func (r *Router) HandleDeviceLine(line string) {
	dl, err := feedback.ParseDeviceLine(line)
	if err != nil {
		log.Debug("丢弃无法解析的设备行", "line", line, "err", err)
		r.metrics.DeviceLine(feedback.LineUnknown.String(), len(line))
		return
	}
	r.metrics.DeviceLine(dl.Kind.String(), len(line))

	switch dl.Kind {
	case feedback.LineVersion:
		if r.versionShown.CompareAndSwap(false, true) {
			log.Info("反馈设备版本", "banner", dl.Raw)
		} else {
			log.Debug("反馈设备版本", "banner", dl.Raw)
		}
	case feedback.LineEvent, feedback.LinePoll:
		for _, rd := range dl.Readings {
			m, changed, err := r.pool.Apply(rd)
			if err != nil {
				log.Debug("忽略读数", "line", dl.Raw, "err", err)
				continue
			}
			if changed {
				r.publish(m)
			}
		}
	default:
		log.Debug("忽略未知设备行", "line", dl.Raw)
	}
}

// publish 把一次模块变化发给会话、推送通道和事件总线
func (r *Router) publish(m *feedback.ModuleState) {
	id, hex, bin := m.ObjectID(), m.Hex(), m.Binary()
	log.Debug("反馈模块变化", "object", id, "state", hex)

	r.sessions.Broadcast(ecos.EventState(id, hex))

	if r.sink != nil {
		payload, err := broadcast.Encode(id, m.DeviceID(), hex, bin, r.info)
		if err != nil {
			log.Warn("编码推送载荷失败", "object", id, "err", err)
		} else {
			r.sink.Publish(id, payload)
		}
	}

	if r.changed != nil {
		_ = r.changed.Emit(types.EvtFeedbackChanged{
			BaseEvent: types.NewBaseEvent(types.EventTypeFeedbackChanged),
			ObjectID:  id,
			Port:      m.DeviceID(),
			Hex:       hex,
			Binary:    bin,
		})
	}
}

// ============================================================================
//                              快照
// ============================================================================

// Snapshot 返回所有已配置模块的状态块
func (r *Router) Snapshot() []string {
	mods := r.pool.Configured()
	out := make([]string, len(mods))
	for i, m := range mods {
		out[i] = ecos.EventState(m.ObjectID(), m.Hex())
	}
	return out
}
