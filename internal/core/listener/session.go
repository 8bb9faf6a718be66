package listener

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/dep2p/go-ecosgate/config"
	"github.com/dep2p/go-ecosgate/internal/core/metrics"
	"github.com/dep2p/go-ecosgate/internal/util/logger"
	"github.com/dep2p/go-ecosgate/pkg/ecos"
)

// maxFrameSize 控制端单帧最大长度
const maxFrameSize = 64 * 1024

// Session 一个控制端连接
type Session struct {
	id      string
	conn    net.Conn
	remote  string
	cfg     config.ServerConfig
	queue   chan string
	limiter *rate.Limiter
	metrics *metrics.Metrics
	log     *slog.Logger

	closeOnce sync.Once
	closed    chan struct{}

	// drainBy 非零时写者在退出前排空队列，直到该时刻（UnixNano）
	drainBy atomic.Int64
}

// newSession 创建会话
func newSession(conn net.Conn, cfg config.ServerConfig, m *metrics.Metrics) *Session {
	s := &Session{
		id:      uuid.NewString(),
		conn:    conn,
		remote:  conn.RemoteAddr().String(),
		cfg:     cfg,
		queue:   make(chan string, cfg.SendQueueSize),
		metrics: m,
		closed:  make(chan struct{}),
	}
	s.log = logger.With("listener", "session", s.id, "remote", s.remote)
	if cfg.MaxFramesPerSecond > 0 {
		burst := int(cfg.MaxFramesPerSecond)
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(cfg.MaxFramesPerSecond), burst)
	}
	return s
}

// ID 返回会话 id
func (s *Session) ID() string {
	return s.id
}

// RemoteAddr 返回对端地址
func (s *Session) RemoteAddr() string {
	return s.remote
}

// Enqueue 把一条消息放入发送队列，从不阻塞
func (s *Session) Enqueue(msg string) error {
	select {
	case <-s.closed:
		return ErrSessionClosed
	default:
	}

	select {
	case s.queue <- msg:
		return nil
	default:
		s.metrics.SessionDrop()
		s.log.Warn("会话发送队列已满，丢弃消息")
		return ErrQueueFull
	}
}

// run 运行读、写、刷新三个 goroutine，直到任一退出
//
// ctx 由 Registry 条目持有的 cancel 控制，取消即停止刷新。
func (s *Session) run(ctx context.Context, handler func(id, frame string), snapshot func() []string) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.readLoop(gctx, handler)
	})
	g.Go(func() error {
		return s.writeLoop(gctx)
	})
	g.Go(func() error {
		return s.refreshLoop(gctx, snapshot)
	})

	return g.Wait()
}

// readLoop 按行读取帧
func (s *Session) readLoop(ctx context.Context, handler func(id, frame string)) error {
	// ctx 取消时让阻塞中的读立即返回
	stop := context.AfterFunc(ctx, func() {
		_ = s.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	scanner := bufio.NewScanner(s.conn)
	scanner.Buffer(make([]byte, 4096), maxFrameSize)
	for scanner.Scan() {
		raw := scanner.Text()
		s.metrics.ControllerRecv(len(raw) + 1)

		frame := strings.TrimSpace(raw)
		if frame == "" {
			continue
		}
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				return err
			}
		}
		if handler != nil {
			handler(s.id, frame)
		}
	}

	if err := scanner.Err(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("read: %w", err)
	}
	return io.EOF
}

// writeLoop 唯一写者，FIFO 排空发送队列
func (s *Session) writeLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			s.drain()
			return ctx.Err()
		case msg := <-s.queue:
			if err := s.write(msg, s.writeDeadline()); err != nil {
				return err
			}
		}
	}
}

// drain 停止时在截止时间前尽量写完队列
func (s *Session) drain() {
	by := s.drainBy.Load()
	if by == 0 {
		return
	}
	deadline := time.Unix(0, by)
	for time.Now().Before(deadline) {
		select {
		case msg := <-s.queue:
			if err := s.write(msg, deadline); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (s *Session) writeDeadline() time.Time {
	if d := s.cfg.WriteTimeout.Duration(); d > 0 {
		return time.Now().Add(d)
	}
	return time.Time{}
}

func (s *Session) write(msg string, deadline time.Time) error {
	if !strings.HasSuffix(msg, ecos.LineEnd) {
		msg += ecos.LineEnd
	}
	_ = s.conn.SetWriteDeadline(deadline)
	n, err := io.WriteString(s.conn, msg)
	s.metrics.ControllerSent(n)
	if err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

// refreshLoop 周期重发反馈快照
func (s *Session) refreshLoop(ctx context.Context, snapshot func() []string) error {
	if snapshot == nil {
		<-ctx.Done()
		return nil
	}
	ticker := time.NewTicker(s.cfg.RefreshInterval.Duration())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			for _, block := range snapshot() {
				if err := s.Enqueue(block); errors.Is(err, ErrSessionClosed) {
					return nil
				}
			}
		}
	}
}

// shutdown 通知会话停止；写者在 deadline 前排空队列
func (s *Session) shutdown(deadline time.Time) {
	s.drainBy.Store(deadline.UnixNano())
	_ = s.conn.SetReadDeadline(time.Now())
}

// close 关闭 socket
func (s *Session) close() {
	s.closeOnce.Do(func() {
		close(s.closed)
		_ = s.conn.Close()
	})
}
