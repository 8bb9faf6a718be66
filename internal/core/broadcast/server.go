package broadcast

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/dep2p/go-ecosgate/config"
	"github.com/dep2p/go-ecosgate/internal/core/metrics"
)

// shutdownTimeout HTTP 服务优雅关闭的等待时间
const shutdownTimeout = 2 * time.Second

// Server 承载推送与指标的 HTTP 服务
type Server struct {
	addr    string
	hub     *Hub
	srv     *http.Server
	ln      net.Listener
	errCh   chan error
	started bool
}

// NewServer 创建 HTTP 服务；hub 或 m 为 nil 时不挂载对应路径
func NewServer(bcfg config.BroadcastConfig, mcfg config.MetricsConfig, hub *Hub, m *metrics.Metrics) *Server {
	mux := http.NewServeMux()
	if hub != nil {
		mux.Handle(bcfg.Path, hub)
	}
	if m != nil {
		mux.Handle(mcfg.Path, m.Handler())
	}
	return &Server{
		addr: bcfg.Addr,
		hub:  hub,
		srv: &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		errCh: make(chan error, 1),
	}
}

// Addr 返回实际监听地址；未启动时为 nil
func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Start 开始监听
func (s *Server) Start(_ context.Context) error {
	if s.started {
		return nil
	}
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	s.ln = ln
	s.started = true

	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP 服务异常退出", "err", err)
			s.errCh <- err
		}
	}()

	log.Info("推送/指标 HTTP 服务已启动", "addr", ln.Addr().String())
	return nil
}

// Stop 关闭 HTTP 服务与所有观察者
func (s *Server) Stop() error {
	if !s.started {
		return nil
	}
	s.started = false

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := s.srv.Shutdown(ctx)

	// Shutdown 不处理已劫持的 WebSocket 连接
	if s.hub != nil {
		s.hub.Close()
	}

	select {
	case serveErr := <-s.errCh:
		if err == nil {
			err = serveErr
		}
	default:
	}
	log.Info("推送/指标 HTTP 服务已停止")
	return err
}
