package metrics

import (
	"net/http"
	"strconv"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dep2p/go-ecosgate/pkg/types"
)

const namespace = "ecosgate"

// Metrics 网关的 Prometheus 指标
type Metrics struct {
	registry *prometheus.Registry
	traffic  *Traffic

	frames          *prometheus.CounterVec
	stationMessages prometheus.Counter
	stationState    prometheus.Gauge
	stationFailures prometheus.Counter
	sessions        prometheus.Gauge
	sessionDrops    prometheus.Counter
	feedbackChanges *prometheus.CounterVec
	deviceLines     *prometheus.CounterVec
	deviceFailures  prometheus.Counter
	observers       prometheus.Gauge
}

// New 创建指标集合并注册到独立的 registry
func New(clk clock.Clock) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		traffic:  NewTraffic(clk),

		frames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "controller_frames_total",
			Help:      "Controller frames by routing outcome.",
		}, []string{"outcome"}),
		stationMessages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "station_messages_total",
			Help:      "Reassembled messages received from the station.",
		}),
		stationState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "station_state",
			Help:      "Station connection state (0 disconnected, 1 probing, 2 connected, 3 failed).",
		}),
		stationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "station_failures_total",
			Help:      "Station transport failures.",
		}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "controller_sessions",
			Help:      "Connected controller sessions.",
		}),
		sessionDrops: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "controller_frames_dropped_total",
			Help:      "Outbound frames dropped because a session queue was full.",
		}),
		feedbackChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feedback_changes_total",
			Help:      "Debounced feedback module changes.",
		}, []string{"object"}),
		deviceLines: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "device_lines_total",
			Help:      "Lines read from the feedback device by kind.",
		}, []string{"kind"}),
		deviceFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "device_failures_total",
			Help:      "Feedback device failures.",
		}),
		observers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "broadcast_observers",
			Help:      "Connected broadcast observers.",
		}),
	}

	m.registry.MustRegister(
		m.frames,
		m.stationMessages,
		m.stationState,
		m.stationFailures,
		m.sessions,
		m.sessionDrops,
		m.feedbackChanges,
		m.deviceLines,
		m.deviceFailures,
		m.observers,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m.registerTraffic()
	return m
}

// registerTraffic 把 Traffic 暴露为 GaugeFunc
func (m *Metrics) registerTraffic() {
	for _, l := range links {
		l := l
		labels := prometheus.Labels{"link": string(l)}
		m.registry.MustRegister(
			prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Namespace:   namespace,
				Name:        "link_received_bytes",
				Help:        "Bytes received on a link since start.",
				ConstLabels: labels,
			}, func() float64 { return float64(m.traffic.Stats(l).TotalIn) }),
			prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Namespace:   namespace,
				Name:        "link_sent_bytes",
				Help:        "Bytes sent on a link since start.",
				ConstLabels: labels,
			}, func() float64 { return float64(m.traffic.Stats(l).TotalOut) }),
			prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Namespace:   namespace,
				Name:        "link_receive_rate_bytes",
				Help:        "Average receive rate over the last 60 seconds.",
				ConstLabels: labels,
			}, func() float64 { return m.traffic.Stats(l).RateIn }),
		)
	}
}

// Handler 返回 promhttp 处理器
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry 返回底层 registry（测试用）
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Traffic 返回链路流量统计
func (m *Metrics) Traffic() *Traffic {
	if m == nil {
		return nil
	}
	return m.traffic
}

// ============================================================================
//                              记录方法（nil 安全）
// ============================================================================

// Frame 记录一条控制端帧的处理结果
func (m *Metrics) Frame(o types.FrameOutcome) {
	if m == nil {
		return
	}
	m.frames.WithLabelValues(o.String()).Inc()
}

// StationMessage 记录一条站点消息
func (m *Metrics) StationMessage(bytes int) {
	if m == nil {
		return
	}
	m.stationMessages.Inc()
	m.traffic.LogRecv(LinkStation, bytes)
}

// StationSent 记录发往站点的字节
func (m *Metrics) StationSent(bytes int) {
	if m == nil {
		return
	}
	m.traffic.LogSent(LinkStation, bytes)
}

// StationState 记录站点状态
func (m *Metrics) StationState(s types.ConnState) {
	if m == nil {
		return
	}
	m.stationState.Set(float64(s))
	if s == types.ConnStateFailed {
		m.stationFailures.Inc()
	}
}

// ControllerRecv 记录从控制端收到的字节
func (m *Metrics) ControllerRecv(bytes int) {
	if m == nil {
		return
	}
	m.traffic.LogRecv(LinkController, bytes)
}

// ControllerSent 记录发往控制端的字节
func (m *Metrics) ControllerSent(bytes int) {
	if m == nil {
		return
	}
	m.traffic.LogSent(LinkController, bytes)
}

// SessionDelta 会话数增减
func (m *Metrics) SessionDelta(d int) {
	if m == nil {
		return
	}
	m.sessions.Add(float64(d))
}

// SessionDrop 记录一次因队列满而丢弃的发送
func (m *Metrics) SessionDrop() {
	if m == nil {
		return
	}
	m.sessionDrops.Inc()
}

// FeedbackChanged 记录一次反馈模块变化
func (m *Metrics) FeedbackChanged(objectID int) {
	if m == nil {
		return
	}
	m.feedbackChanges.WithLabelValues(strconv.Itoa(objectID)).Inc()
}

// DeviceLine 记录一条设备行
func (m *Metrics) DeviceLine(kind string, bytes int) {
	if m == nil {
		return
	}
	m.deviceLines.WithLabelValues(kind).Inc()
	m.traffic.LogRecv(LinkDevice, bytes)
}

// DeviceFailure 记录一次设备失败
func (m *Metrics) DeviceFailure() {
	if m == nil {
		return
	}
	m.deviceFailures.Inc()
}

// Observers 设置推送观察者数量
func (m *Metrics) Observers(n int) {
	if m == nil {
		return
	}
	m.observers.Set(float64(n))
}
