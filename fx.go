package ecosgate

import (
	"fmt"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/dep2p/go-ecosgate/config"
	"github.com/dep2p/go-ecosgate/internal/core/broadcast"
	"github.com/dep2p/go-ecosgate/internal/core/device"
	"github.com/dep2p/go-ecosgate/internal/core/eventbus"
	"github.com/dep2p/go-ecosgate/internal/core/feedback"
	"github.com/dep2p/go-ecosgate/internal/core/listener"
	"github.com/dep2p/go-ecosgate/internal/core/metrics"
	"github.com/dep2p/go-ecosgate/internal/core/router"
	"github.com/dep2p/go-ecosgate/internal/core/station"
	pkgif "github.com/dep2p/go-ecosgate/pkg/interfaces"
)

// buildFxApp 构建 Fx 应用
//
// 核心模块（eventbus、metrics、feedback、listener、router）总是加载；
// station、device、broadcast 按配置开关加载，未加载的组件在注入时为 nil。
func buildFxApp(cfg *config.Config, opts *options, gw *Gateway) (*fx.App, error) {
	// ════════════════════════════════════════════════════════════════════════
	// 1. 配置验证（前置）
	// ════════════════════════════════════════════════════════════════════════
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	// ════════════════════════════════════════════════════════════════════════
	// 2. 核心模块（必须加载）
	// ════════════════════════════════════════════════════════════════════════
	modules := []fx.Option{
		fx.Supply(cfg),

		eventbus.Module(),
		metrics.Module(),  // 未启用时提供 nil，记录方法为空操作
		feedback.Module(), // 模块池
		listener.Module(), // 控制端监听
		router.Module(),   // 依赖 listener，可选依赖 station/device/broadcast
	}

	// ════════════════════════════════════════════════════════════════════════
	// 3. 时间源与外部数据源（可选注入）
	// ════════════════════════════════════════════════════════════════════════
	if opts.clock != nil {
		clk := opts.clock
		modules = append(modules, fx.Provide(func() clock.Clock { return clk }))
	}

	// ════════════════════════════════════════════════════════════════════════
	// 4. 站点连接（条件加载）
	// ════════════════════════════════════════════════════════════════════════
	if cfg.Runtime.ConnectToEcos {
		modules = append(modules, station.Module())
	} else {
		log.Info("未启用站点连接，所有非拦截命令将被丢弃")
	}

	// ════════════════════════════════════════════════════════════════════════
	// 5. 反馈设备（条件加载）
	// ════════════════════════════════════════════════════════════════════════
	if cfg.Runtime.UseDevice() {
		if src := opts.deviceSource; src != nil {
			modules = append(modules, fx.Provide(func() pkgif.DeviceSource { return src }))
		}
		modules = append(modules, device.Module())
	}

	// ════════════════════════════════════════════════════════════════════════
	// 6. 推送与指标 HTTP 服务（条件加载）
	// ════════════════════════════════════════════════════════════════════════
	if hasHTTPServer(cfg) {
		modules = append(modules, broadcast.Module())
	}

	// ════════════════════════════════════════════════════════════════════════
	// 7. 用户自定义 Fx 选项
	// ════════════════════════════════════════════════════════════════════════
	modules = append(modules, opts.fxOptions...)

	// ════════════════════════════════════════════════════════════════════════
	// 8. Gateway 组件注入
	// ════════════════════════════════════════════════════════════════════════
	modules = append(modules, fx.Invoke(injectGatewayComponents(gw)))

	// ════════════════════════════════════════════════════════════════════════
	// 9. Fx 配置
	// ════════════════════════════════════════════════════════════════════════
	modules = append(modules,
		// 禁用 Fx 日志输出（避免干扰网关日志）
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: zap.NewNop()}
		}),
		fx.NopLogger,
	)

	app := fx.New(modules...)
	if err := app.Err(); err != nil {
		return nil, fmt.Errorf("build fx app: %w", err)
	}
	return app, nil
}

// ════════════════════════════════════════════════════════════════════════════
// 条件检查辅助函数
// ════════════════════════════════════════════════════════════════════════════

// hasHTTPServer 推送或指标任一启用时需要 HTTP 服务
func hasHTTPServer(cfg *config.Config) bool {
	return cfg.Broadcast.Enabled || cfg.Metrics.Enabled
}

// ════════════════════════════════════════════════════════════════════════════
// 组件注入
// ════════════════════════════════════════════════════════════════════════════

// gatewayInjectParams Gateway 注入参数
type gatewayInjectParams struct {
	fx.In

	EventBus pkgif.EventBus
	Pool     *feedback.Pool
	Server   *listener.Server
	Router   *router.Router

	Link    pkgif.StationLink `optional:"true"`
	Device  *device.Service   `optional:"true"`
	HTTP    *broadcast.Server `optional:"true"`
	Metrics *metrics.Metrics  `optional:"true"`
}

// injectGatewayComponents 创建 Gateway 组件注入函数
func injectGatewayComponents(gw *Gateway) interface{} {
	return func(params gatewayInjectParams) {
		// 核心组件
		gw.bus = params.EventBus
		gw.pool = params.Pool
		gw.server = params.Server
		gw.router = params.Router

		// 可选组件
		gw.link = params.Link
		gw.device = params.Device
		gw.http = params.HTTP
		gw.metrics = params.Metrics
	}
}
