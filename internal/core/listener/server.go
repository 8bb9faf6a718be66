package listener

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dep2p/go-ecosgate/config"
	"github.com/dep2p/go-ecosgate/internal/core/metrics"
	"github.com/dep2p/go-ecosgate/internal/util/logger"
	"github.com/dep2p/go-ecosgate/pkg/ecos"
	pkgif "github.com/dep2p/go-ecosgate/pkg/interfaces"
	"github.com/dep2p/go-ecosgate/pkg/types"
)

var log = logger.Logger("listener")

// quitMessage 停止时发给每个控制端的告别消息
const quitMessage = "Quit" + ecos.LineEnd + ecos.LineEnd

// ============================================================================
//                              选项
// ============================================================================

// Option Server 选项
type Option func(*Server)

// WithEventBus 发布会话事件
func WithEventBus(bus pkgif.EventBus) Option {
	return func(s *Server) {
		s.bus = bus
	}
}

// WithMetrics 设置指标
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithHandler 设置帧处理器
func WithHandler(h pkgif.FrameHandler) Option {
	return func(s *Server) {
		s.handler = h
	}
}

// WithSnapshotProvider 设置快照提供者
func WithSnapshotProvider(p pkgif.SnapshotProvider) Option {
	return func(s *Server) {
		s.snapshots = p
	}
}

// ============================================================================
//                              Server
// ============================================================================

// Server 控制端监听服务，实现 interfaces.SessionBroadcaster
type Server struct {
	cfg     config.ServerConfig
	bus     pkgif.EventBus
	metrics *metrics.Metrics

	hMu       sync.RWMutex
	handler   pkgif.FrameHandler
	snapshots pkgif.SnapshotProvider

	registry *Registry

	openedEm pkgif.Emitter
	closedEm pkgif.Emitter

	// mu 保护 ln 与 stopping；会话注册也在锁内完成，Stop 不会漏掉任何已注册会话
	mu       sync.Mutex
	ln       net.Listener
	stopping bool

	running int32
	closed  int32
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

var _ pkgif.SessionBroadcaster = (*Server)(nil)

// NewServer 创建监听服务
func NewServer(cfg config.ServerConfig, opts ...Option) *Server {
	s := &Server{
		cfg:      cfg,
		registry: NewRegistry(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetHandler 设置帧处理器
func (s *Server) SetHandler(h pkgif.FrameHandler) {
	s.hMu.Lock()
	s.handler = h
	s.hMu.Unlock()
}

// SetSnapshotProvider 设置快照提供者
func (s *Server) SetSnapshotProvider(p pkgif.SnapshotProvider) {
	s.hMu.Lock()
	s.snapshots = p
	s.hMu.Unlock()
}

// Addr 返回实际监听地址；未启动时为 nil
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Registry 返回会话注册表
func (s *Server) Registry() *Registry {
	return s.registry
}

// ============================================================================
//                              生命周期
// ============================================================================

// Start 开始监听
func (s *Server) Start(_ context.Context) error {
	if atomic.LoadInt32(&s.closed) == 1 {
		return ErrServerClosed
	}
	if !atomic.CompareAndSwapInt32(&s.running, 0, 1) {
		return nil
	}

	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		atomic.StoreInt32(&s.running, 0)
		return fmt.Errorf("listen %s: %w", s.cfg.Addr(), err)
	}
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()

	if s.bus != nil {
		if s.openedEm, err = s.bus.Emitter(new(types.EvtSessionOpened)); err != nil {
			log.Warn("创建会话事件发射器失败", "err", err)
		}
		if s.closedEm, err = s.bus.Emitter(new(types.EvtSessionClosed)); err != nil {
			log.Warn("创建会话事件发射器失败", "err", err)
		}
	}

	// Fx OnStart 的 ctx 在返回后会被取消
	s.ctx, s.cancel = context.WithCancel(context.Background())

	s.wg.Add(1)
	go s.acceptLoop(ln)

	log.Info("控制端监听已启动", "addr", ln.Addr().String())
	return nil
}

// Stop 关闭监听，通知所有会话，等待写者排空直到 ShutdownTimeout
func (s *Server) Stop() error {
	if !atomic.CompareAndSwapInt32(&s.closed, 0, 1) {
		return nil
	}
	if atomic.LoadInt32(&s.running) == 0 {
		return nil
	}

	// 置位后新连接不再注册；此前注册的会话全部进入排空
	s.mu.Lock()
	s.stopping = true
	err := s.ln.Close()
	sessions := s.registry.Sessions()
	s.mu.Unlock()

	deadline := time.Now().Add(s.cfg.ShutdownTimeout.Duration())
	for _, sess := range sessions {
		_ = sess.Enqueue(quitMessage)
		sess.shutdown(deadline)
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Until(deadline) + time.Second):
		log.Warn("会话未能按时退出，强制关闭")
		for _, sess := range s.registry.Sessions() {
			sess.close()
		}
		<-done
	}
	s.cancel()

	if s.openedEm != nil {
		_ = s.openedEm.Close()
	}
	if s.closedEm != nil {
		_ = s.closedEm.Close()
	}

	log.Info("控制端监听已停止")
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

func (s *Server) acceptLoop(ln net.Listener) {
	defer s.wg.Done()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if atomic.LoadInt32(&s.closed) == 1 || errors.Is(err, net.ErrClosed) {
				return
			}
			log.Warn("接受连接失败", "err", err)
			continue
		}

		s.wg.Add(1)
		go s.handleConn(conn)
	}
}

// handleConn 会话的完整生命周期
func (s *Server) handleConn(conn net.Conn) {
	defer s.wg.Done()

	sess := newSession(conn, s.cfg, s.metrics)
	ctx, cancel := context.WithCancel(s.ctx)
	if !s.register(sess, cancel) {
		cancel()
		sess.log.Debug("监听正在停止，拒绝连接")
		sess.close()
		return
	}

	sess.log.Info("控制端已连接")
	if s.openedEm != nil {
		_ = s.openedEm.Emit(types.EvtSessionOpened{
			BaseEvent:  types.NewBaseEvent(types.EventTypeSessionOpened),
			SessionID:  sess.ID(),
			RemoteAddr: sess.RemoteAddr(),
		})
	}

	for _, block := range s.snapshot() {
		_ = sess.Enqueue(block)
	}

	err := sess.run(ctx, s.handleFrame, s.snapshot)

	// 取消刷新 → 移除 → 关闭 socket
	s.registry.Remove(sess.ID())
	sess.close()

	if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
		err = nil
	}
	if atomic.LoadInt32(&s.closed) == 1 {
		err = ErrServerClosed
	}
	sess.log.Info("控制端已断开", "err", err)
	if s.closedEm != nil {
		_ = s.closedEm.Emit(types.EvtSessionClosed{
			BaseEvent:  types.NewBaseEvent(types.EventTypeSessionClosed),
			SessionID:  sess.ID(),
			RemoteAddr: sess.RemoteAddr(),
			Err:        err,
		})
	}
}

// register 在未停止时登记会话
func (s *Server) register(sess *Session, cancel context.CancelFunc) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopping {
		return false
	}
	s.registry.Add(sess, cancel)
	return true
}

func (s *Server) handleFrame(id, frame string) {
	s.hMu.RLock()
	h := s.handler
	s.hMu.RUnlock()
	if h == nil {
		log.Debug("无帧处理器，丢弃", "session", id, "frame", frame)
		return
	}
	h.HandleFrame(id, frame)
}

func (s *Server) snapshot() []string {
	s.hMu.RLock()
	p := s.snapshots
	s.hMu.RUnlock()
	if p == nil {
		return nil
	}
	return p.Snapshot()
}

// ============================================================================
//                              投递
// ============================================================================

// Broadcast 投递到所有会话，返回成功入队的会话数
func (s *Server) Broadcast(msg string) int {
	n := 0
	for _, sess := range s.registry.Sessions() {
		if sess.Enqueue(msg) == nil {
			n++
		}
	}
	return n
}

// SendTo 投递到指定会话
func (s *Server) SendTo(sessionID, msg string) error {
	sess, ok := s.registry.Get(sessionID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSession, sessionID)
	}
	return sess.Enqueue(msg)
}

// SessionCount 返回当前会话数
func (s *Server) SessionCount() int {
	return s.registry.Len()
}
