package device

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/dep2p/go-ecosgate/internal/core/eventbus"
	"github.com/dep2p/go-ecosgate/internal/util/logger"
	pkgif "github.com/dep2p/go-ecosgate/pkg/interfaces"
	"github.com/dep2p/go-ecosgate/pkg/types"
)

var log = logger.Logger("device")

// Service 在后台运行一个设备数据源
type Service struct {
	source pkgif.DeviceSource
	bus    pkgif.EventBus

	hMu     sync.RWMutex
	handler pkgif.LineHandler

	running int32
	closed  int32
	cancel  context.CancelFunc
	done    chan struct{}

	// failed 设备已失败（不再重试）
	failed atomic.Bool
}

// NewService 创建设备服务；bus 可以为 nil
func NewService(source pkgif.DeviceSource, bus pkgif.EventBus) *Service {
	return &Service{
		source: source,
		bus:    bus,
		done:   make(chan struct{}),
	}
}

// SetHandler 设置行处理器，应在 Start 之前调用
func (s *Service) SetHandler(h pkgif.LineHandler) {
	s.hMu.Lock()
	s.handler = h
	s.hMu.Unlock()
}

// Source 返回数据源
func (s *Service) Source() pkgif.DeviceSource {
	return s.source
}

// Failed 设备是否已失败
func (s *Service) Failed() bool {
	return s.failed.Load()
}

// Start 在后台打开并运行数据源，立即返回
func (s *Service) Start(_ context.Context) error {
	if !atomic.CompareAndSwapInt32(&s.running, 0, 1) {
		return nil
	}
	// Fx OnStart 的 ctx 在返回后会被取消
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	go s.run(ctx)
	return nil
}

// Stop 停止数据源并等待退出
func (s *Service) Stop() error {
	if !atomic.CompareAndSwapInt32(&s.closed, 0, 1) {
		return nil
	}
	if atomic.LoadInt32(&s.running) == 0 {
		return nil
	}
	s.cancel()
	<-s.done
	log.Info("反馈设备服务已停止", "source", s.source.Name())
	return nil
}

func (s *Service) run(ctx context.Context) {
	defer close(s.done)

	if err := s.source.Open(); err != nil {
		s.fail(err)
		return
	}
	s.publish(types.EvtDeviceOpened{
		BaseEvent: types.NewBaseEvent(types.EventTypeDeviceOpened),
		Source:    s.source.Name(),
	})

	err := s.source.Run(ctx, s.dispatch)
	if cerr := s.source.Close(); cerr != nil {
		log.Debug("关闭反馈设备失败", "source", s.source.Name(), "err", cerr)
	}
	if err != nil && ctx.Err() == nil {
		s.fail(err)
	}
}

func (s *Service) dispatch(line string) {
	s.hMu.RLock()
	h := s.handler
	s.hMu.RUnlock()
	if h != nil {
		h(line)
	}
}

// fail 设备失败对反馈功能是致命的，网关其余部分继续运行
func (s *Service) fail(err error) {
	s.failed.Store(true)
	logger.Fatal(log, "反馈设备失败，反馈功能停止", "source", s.source.Name(), "err", err)
	s.publish(types.EvtDeviceFailed{
		BaseEvent: types.NewBaseEvent(types.EventTypeDeviceFailed),
		Source:    s.source.Name(),
		Err:       err,
	})
}

func (s *Service) publish(evt interface{}) {
	if s.bus == nil {
		return
	}
	if err := eventbus.Publish(s.bus, evt); err != nil {
		log.Debug("发布设备事件失败", "err", err)
	}
}
