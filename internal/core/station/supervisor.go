package station

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dep2p/go-ecosgate/config"
	"github.com/dep2p/go-ecosgate/internal/core/eventbus"
	"github.com/dep2p/go-ecosgate/internal/core/metrics"
	"github.com/dep2p/go-ecosgate/internal/util/logger"
	pkgif "github.com/dep2p/go-ecosgate/pkg/interfaces"
	"github.com/dep2p/go-ecosgate/pkg/ecos"
	"github.com/dep2p/go-ecosgate/pkg/types"
)

var log = logger.Logger("station")

// 握手帧，连接建立后立即发送
var handshake = []string{
	"get(1, info)",
	"get(1, status)",
}

// maxLineSize 站点单行最大长度
const maxLineSize = 64 * 1024

// DialFunc 拨号函数，签名同 net.Dialer.DialContext
type DialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// ============================================================================
//                              选项
// ============================================================================

// Option Supervisor 选项
type Option func(*Supervisor)

// WithProber 替换探测器
func WithProber(p Prober) Option {
	return func(s *Supervisor) {
		s.prober = p
	}
}

// WithDialer 替换拨号函数
func WithDialer(d DialFunc) Option {
	return func(s *Supervisor) {
		s.dial = d
	}
}

// WithObserver 设置连接观察者
func WithObserver(o pkgif.ConnectionObserver) Option {
	return func(s *Supervisor) {
		s.observer = o
	}
}

// WithEventBus 在事件总线上发布 EvtStationState
func WithEventBus(bus pkgif.EventBus) Option {
	return func(s *Supervisor) {
		s.bus = bus
	}
}

// WithMetrics 设置指标
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Supervisor) {
		s.metrics = m
	}
}

// ============================================================================
//                              Supervisor
// ============================================================================

// Supervisor 站点连接监管者，实现 interfaces.StationLink
type Supervisor struct {
	cfg     config.EcosConfig
	addr    string
	prober  Prober
	dial    DialFunc
	bus     pkgif.EventBus
	metrics *metrics.Metrics

	obsMu    sync.RWMutex
	observer pkgif.ConnectionObserver

	emitter pkgif.Emitter
	state   atomic.Int32

	// connMu 保护 conn 并串行化写
	connMu sync.Mutex
	conn   net.Conn

	running int32
	closed  int32
	cancel  context.CancelFunc
	done    chan struct{}
}

var _ pkgif.StationLink = (*Supervisor)(nil)

// NewSupervisor 创建 Supervisor
func NewSupervisor(cfg config.EcosConfig, opts ...Option) *Supervisor {
	s := &Supervisor{
		cfg:  cfg,
		addr: cfg.Addr(),
		done: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.dial == nil {
		s.dial = (&net.Dialer{Timeout: cfg.DialTimeout.Duration()}).DialContext
	}
	if s.prober == nil {
		s.prober = NewProber(cfg, s.dial)
	}
	return s
}

// SetObserver 设置连接观察者
func (s *Supervisor) SetObserver(o pkgif.ConnectionObserver) {
	s.obsMu.Lock()
	s.observer = o
	s.obsMu.Unlock()
}

func (s *Supervisor) getObserver() pkgif.ConnectionObserver {
	s.obsMu.RLock()
	defer s.obsMu.RUnlock()
	return s.observer
}

// Addr 返回站点地址
func (s *Supervisor) Addr() string {
	return s.addr
}

// State 返回当前连接状态
func (s *Supervisor) State() types.ConnState {
	return types.ConnState(s.state.Load())
}

// ============================================================================
//                              生命周期
// ============================================================================

// Start 启动监管循环，立即返回
func (s *Supervisor) Start(_ context.Context) error {
	if atomic.LoadInt32(&s.closed) == 1 {
		return ErrSupervisorClosed
	}
	if !atomic.CompareAndSwapInt32(&s.running, 0, 1) {
		return nil
	}

	if s.bus != nil {
		em, err := s.bus.Emitter(new(types.EvtStationState), eventbus.Stateful())
		if err != nil {
			log.Warn("创建站点状态发射器失败", "err", err)
		} else {
			s.emitter = em
		}
	}

	// Fx OnStart 的 ctx 在返回后会被取消，循环使用独立的 ctx
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	log.Info("站点连接监管已启动", "addr", s.addr, "probe", s.cfg.ProbeMode)
	go s.run(ctx)
	return nil
}

// Stop 停止循环并关闭连接
func (s *Supervisor) Stop() error {
	if !atomic.CompareAndSwapInt32(&s.closed, 0, 1) {
		return nil
	}
	if atomic.LoadInt32(&s.running) == 0 {
		return nil
	}

	s.cancel()
	s.closeConn()
	<-s.done

	s.setState(types.ConnStateDisconnected, nil)
	if s.emitter != nil {
		_ = s.emitter.Close()
	}
	log.Info("站点连接监管已停止", "addr", s.addr)
	return nil
}

// ============================================================================
//                              发送
// ============================================================================

// Send 发送一帧（自动补 CRLF）
//
// 未连接时丢弃并返回 nil。写失败关闭连接，读循环随后进入 Failed。
func (s *Supervisor) Send(frame string) error {
	if s.State() != types.ConnStateConnected {
		log.Debug("站点未连接，丢弃帧", "frame", frame)
		return nil
	}

	s.connMu.Lock()
	defer s.connMu.Unlock()
	if s.conn == nil {
		return nil
	}
	return s.writeLocked(frame)
}

// writeLocked 写一帧，调用方持有 connMu
func (s *Supervisor) writeLocked(frame string) error {
	data := strings.TrimRight(frame, "\r\n") + ecos.LineEnd
	if timeout := s.cfg.DialTimeout.Duration(); timeout > 0 {
		_ = s.conn.SetWriteDeadline(time.Now().Add(timeout))
	}
	n, err := s.conn.Write([]byte(data))
	s.metrics.StationSent(n)
	if err != nil {
		_ = s.conn.Close()
		return fmt.Errorf("%w: write: %v", ErrTransportFailure, err)
	}
	return nil
}

// ============================================================================
//                              监管循环
// ============================================================================

func (s *Supervisor) run(ctx context.Context) {
	defer close(s.done)

	for {
		s.setState(types.ConnStateProbing, nil)
		if !s.waitReachable(ctx) {
			return
		}

		conn, err := s.dial(ctx, "tcp", s.addr)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Warn("连接站点失败", "addr", s.addr, "err", err)
			if !s.sleep(ctx) {
				return
			}
			continue
		}

		err = s.serve(ctx, conn)
		if ctx.Err() != nil {
			return
		}
		s.fail(err)
	}
}

// waitReachable 探测直到站点可达；ctx 取消时返回 false
func (s *Supervisor) waitReachable(ctx context.Context) bool {
	for {
		err := s.prober.Probe(ctx, s.addr)
		if err == nil {
			return true
		}
		if ctx.Err() != nil {
			return false
		}
		log.Debug("站点不可达", "addr", s.addr, "err", err)
		if !s.sleep(ctx) {
			return false
		}
	}
}

func (s *Supervisor) sleep(ctx context.Context) bool {
	t := time.NewTimer(s.cfg.ProbeInterval.Duration())
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// serve 握手并运行读循环，返回导致连接结束的错误
func (s *Supervisor) serve(ctx context.Context, conn net.Conn) error {
	s.connMu.Lock()
	if ctx.Err() != nil {
		s.connMu.Unlock()
		_ = conn.Close()
		return ctx.Err()
	}
	s.conn = conn
	s.setState(types.ConnStateConnected, nil)
	var err error
	for _, frame := range handshake {
		if err = s.writeLocked(frame); err != nil {
			break
		}
	}
	s.connMu.Unlock()
	defer s.closeConn()

	if err != nil {
		return err
	}

	log.Info("已连接站点", "addr", s.addr)
	if o := s.getObserver(); o != nil {
		o.OnConnected(s.addr)
	}
	return s.readLoop(conn)
}

// readLoop 读取站点行并重组为消息
func (s *Supervisor) readLoop(conn net.Conn) error {
	var asm ecos.Assembler
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 4096), maxLineSize)

	for scanner.Scan() {
		for _, msg := range asm.Feed(scanner.Text()) {
			s.metrics.StationMessage(len(msg))
			if o := s.getObserver(); o != nil {
				o.OnMessage(msg)
			}
		}
	}

	if asm.Pending() {
		log.Debug("连接断开，丢弃未完成的块", "addr", s.addr)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("%w: read: %v", ErrTransportFailure, err)
	}
	return fmt.Errorf("%w: connection closed by station", ErrTransportFailure)
}

func (s *Supervisor) closeConn() {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	if s.conn != nil {
		_ = s.conn.Close()
		s.conn = nil
	}
}

// fail 进入 Failed 状态并通知观察者
func (s *Supervisor) fail(err error) {
	logger.Fatal(log, "站点连接失败", "addr", s.addr, "err", err)
	s.setState(types.ConnStateFailed, err)
	if o := s.getObserver(); o != nil {
		o.OnFailed(s.addr, err)
	}
}

// setState 切换状态并发布事件；状态未变时不发布
func (s *Supervisor) setState(cur types.ConnState, err error) {
	prev := types.ConnState(s.state.Swap(int32(cur)))
	if prev == cur {
		return
	}
	log.Debug("站点状态变化", "from", prev, "to", cur)
	if s.emitter != nil {
		_ = s.emitter.Emit(types.NewEvtStationState(s.addr, prev, cur, err))
	}
}
