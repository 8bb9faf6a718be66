package device

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"
	"golang.org/x/sync/errgroup"

	"github.com/dep2p/go-ecosgate/config"
	pkgif "github.com/dep2p/go-ecosgate/pkg/interfaces"
)

// readTimeout 串口读超时，用于周期检查 ctx
const readTimeout = 100 * time.Millisecond

// Port 串口抽象，go.bug.st/serial.Port 满足该接口
type Port interface {
	io.ReadWriteCloser
}

// OpenFunc 打开串口
type OpenFunc func(path string, mode *serial.Mode) (Port, error)

// openSerial 默认的串口打开方式
func openSerial(path string, mode *serial.Mode) (Port, error) {
	p, err := serial.Open(path, mode)
	if err != nil {
		return nil, err
	}
	if err := p.SetReadTimeout(readTimeout); err != nil {
		_ = p.Close()
		return nil, err
	}
	return p, nil
}

// SerialOption Serial 选项
type SerialOption func(*Serial)

// WithOpenFunc 替换串口打开方式
func WithOpenFunc(f OpenFunc) SerialOption {
	return func(s *Serial) {
		s.open = f
	}
}

// Serial HSI-88-USB 串口数据源
type Serial struct {
	cfg  config.HSIConfig
	poll time.Duration
	open OpenFunc

	// mu 串行化写，并保护 port
	mu   sync.Mutex
	port Port
}

var _ pkgif.DeviceSource = (*Serial)(nil)

// NewSerial 创建串口数据源；poll 为 m 轮询间隔
func NewSerial(cfg config.HSIConfig, poll time.Duration, opts ...SerialOption) *Serial {
	s := &Serial{
		cfg:  cfg,
		poll: poll,
		open: openSerial,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name 返回设备路径
func (s *Serial) Name() string {
	return s.cfg.DevicePath
}

// InitSequence 返回打开后发送的初始化命令
func InitSequence(cfg config.HSIConfig) []string {
	return []string{
		"t1\r",
		"v\r",
		fmt.Sprintf("s%02d%02d%02d\r", cfg.Left, cfg.Middle, cfg.Right),
	}
}

// Open 打开串口并发送初始化序列
func (s *Serial) Open() error {
	port, err := s.open(s.cfg.DevicePath, &serial.Mode{
		BaudRate: s.cfg.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", ErrDeviceFailure, s.cfg.DevicePath, err)
	}

	s.mu.Lock()
	s.port = port
	s.mu.Unlock()

	for _, cmd := range InitSequence(s.cfg) {
		if err := s.write(cmd); err != nil {
			_ = s.Close()
			return err
		}
	}
	log.Info("反馈设备已打开", "path", s.cfg.DevicePath, "baud", s.cfg.BaudRate, "modules", s.cfg.Total())
	return nil
}

func (s *Serial) write(cmd string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port == nil {
		return ErrNotOpen
	}
	if _, err := io.WriteString(s.port, cmd); err != nil {
		return fmt.Errorf("%w: write %q: %v", ErrDeviceFailure, strings.TrimSpace(cmd), err)
	}
	return nil
}

// Run 运行读循环和轮询循环
func (s *Serial) Run(ctx context.Context, handler pkgif.LineHandler) error {
	s.mu.Lock()
	port := s.port
	s.mu.Unlock()
	if port == nil {
		return ErrNotOpen
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.pollLoop(gctx)
	})
	g.Go(func() error {
		return readLines(gctx, port, handler)
	})

	err := g.Wait()
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func (s *Serial) pollLoop(ctx context.Context) error {
	ticker := time.NewTicker(s.poll)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.write("m\r"); err != nil {
				return err
			}
		}
	}
}

// readLines 按 \r 分行读取；读超时返回 0 字节时检查 ctx
func readLines(ctx context.Context, r io.Reader, handler pkgif.LineHandler) error {
	buf := make([]byte, 256)
	var line strings.Builder

	for {
		if ctx.Err() != nil {
			return nil
		}
		n, err := r.Read(buf)
		for _, b := range buf[:n] {
			switch b {
			case '\r', '\n':
				if line.Len() > 0 {
					handler(line.String())
					line.Reset()
				}
			default:
				line.WriteByte(b)
			}
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("%w: read: %v", ErrDeviceFailure, err)
		}
	}
}

// Close 关闭串口
func (s *Serial) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port == nil {
		return nil
	}
	err := s.port.Close()
	s.port = nil
	return err
}
