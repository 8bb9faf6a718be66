package device

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"

	pkgif "github.com/dep2p/go-ecosgate/pkg/interfaces"
)

// 模拟器交替输出的两行：模块 2 的第 1 个触点释放与占用
var simulatedLines = [2]string{"i01020000", "i01020001"}

// Simulator 无硬件的反馈数据源
type Simulator struct {
	interval time.Duration
	clock    clock.Clock
}

var _ pkgif.DeviceSource = (*Simulator)(nil)

// NewSimulator 创建模拟器；clk 为 nil 时使用真实时钟
func NewSimulator(interval time.Duration, clk clock.Clock) *Simulator {
	if clk == nil {
		clk = clock.New()
	}
	return &Simulator{interval: interval, clock: clk}
}

// Name 返回数据源名称
func (s *Simulator) Name() string {
	return "simulator"
}

// Open 无操作
func (s *Simulator) Open() error {
	log.Info("反馈设备模拟器已启用", "interval", s.interval)
	return nil
}

// Run 每个间隔输出一行，交替占用与释放
func (s *Simulator) Run(ctx context.Context, handler pkgif.LineHandler) error {
	ticker := s.clock.Ticker(s.interval)
	defer ticker.Stop()

	for i := 0; ; i++ {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			handler(simulatedLines[i%2])
		}
	}
}

// Close 无操作
func (s *Simulator) Close() error {
	return nil
}
