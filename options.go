package ecosgate

import (
	"io"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"

	pkgif "github.com/dep2p/go-ecosgate/pkg/interfaces"
)

// Option 网关构建选项函数
type Option func(*options) error

// options 内部选项结构
type options struct {
	// 时间源，为空时使用真实时钟
	clock clock.Clock

	// 外部注入的反馈设备数据源，替代串口或模拟器
	deviceSource pkgif.DeviceSource

	// 额外的 Fx 选项
	fxOptions []fx.Option

	// Close 时随网关一起关闭的资源
	closers []io.Closer
}

// applyOptions 按顺序应用选项
func applyOptions(opts []Option) (*options, error) {
	o := &options{}
	for _, opt := range opts {
		if opt == nil {
			return nil, ErrNilOption
		}
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// WithClock 设置去抖与刷新使用的时间源
//
// 测试时注入 clock.NewMock()。
func WithClock(clk clock.Clock) Option {
	return func(o *options) error {
		o.clock = clk
		return nil
	}
}

// WithDeviceSource 用给定的数据源代替 HSI-88 串口或模拟器
//
// 只有在配置需要设备（runtime.isSimulation 为 false 或开启了 S88 模拟）时生效。
func WithDeviceSource(src pkgif.DeviceSource) Option {
	return func(o *options) error {
		o.deviceSource = src
		return nil
	}
}

// WithFxOptions 追加 Fx 选项，用于扩展或替换内部组件
func WithFxOptions(opts ...fx.Option) Option {
	return func(o *options) error {
		o.fxOptions = append(o.fxOptions, opts...)
		return nil
	}
}

// WithCloser 注册在 Close 时关闭的资源（例如日志文件）
func WithCloser(c io.Closer) Option {
	return func(o *options) error {
		if c != nil {
			o.closers = append(o.closers, c)
		}
		return nil
	}
}
