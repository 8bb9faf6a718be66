package router

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-ecosgate/config"
	"github.com/dep2p/go-ecosgate/internal/core/eventbus"
	"github.com/dep2p/go-ecosgate/internal/core/feedback"
	"github.com/dep2p/go-ecosgate/internal/core/metrics"
	pkgif "github.com/dep2p/go-ecosgate/pkg/interfaces"
	"github.com/dep2p/go-ecosgate/pkg/types"
)

// ============================================================================
//                              测试替身
// ============================================================================

type sent struct {
	session string
	msg     string
}

// fakeSessions 记录投递
type fakeSessions struct {
	mu        sync.Mutex
	direct    []sent
	broadcast []string
}

func (f *fakeSessions) Broadcast(msg string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.broadcast = append(f.broadcast, msg)
	return 1
}

func (f *fakeSessions) SendTo(id, msg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.direct = append(f.direct, sent{id, msg})
	return nil
}

func (f *fakeSessions) SessionCount() int { return 1 }

// fakeLink 记录转发到站点的帧
type fakeLink struct {
	state  types.ConnState
	frames []string
}

func (l *fakeLink) Start(context.Context) error          { return nil }
func (l *fakeLink) Stop() error                          { return nil }
func (l *fakeLink) State() types.ConnState               { return l.state }
func (l *fakeLink) SetObserver(pkgif.ConnectionObserver) {}
func (l *fakeLink) Send(frame string) error              { l.frames = append(l.frames, frame); return nil }

// fakeSink 记录推送
type fakeSink struct {
	payloads map[int]string
}

func (s *fakeSink) Publish(id int, payload []byte) { s.payloads[id] = string(payload) }
func (s *fakeSink) ObserverCount() int             { return 0 }

type fixture struct {
	router   *Router
	sessions *fakeSessions
	link     *fakeLink
	sink     *fakeSink
	metrics  *metrics.Metrics
	pool     *feedback.Pool
}

func newFixture(t *testing.T, mutate func(*config.Config), opts ...Option) *fixture {
	t.Helper()
	cfg := config.NewConfig()
	cfg.HSI.Left, cfg.HSI.Middle, cfg.HSI.Right = 1, 1, 0
	if mutate != nil {
		mutate(cfg)
	}

	f := &fixture{
		sessions: &fakeSessions{},
		link:     &fakeLink{state: types.ConnStateConnected},
		sink:     &fakeSink{payloads: make(map[int]string)},
		metrics:  metrics.New(nil),
		pool: feedback.NewPool(cfg.HSI.Total(), feedback.Thresholds{
			On:  cfg.Debounce.On.Duration(),
			Off: cfg.Debounce.Off.Duration(),
		}, clock.NewMock()),
	}
	opts = append([]Option{
		WithStation(f.link),
		WithSink(f.sink),
		WithMetrics(f.metrics),
	}, opts...)
	f.router = New(cfg, f.pool, f.sessions, opts...)
	t.Cleanup(func() { _ = f.router.Close() })
	return f
}

// frames 读取某种处理结果的帧计数
func (f *fixture) frames(t *testing.T, o types.FrameOutcome) float64 {
	t.Helper()
	mfs, err := f.metrics.Registry().Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() != "ecosgate_controller_frames_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "outcome" && lp.GetValue() == o.String() {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func (f *fixture) lastDirect(t *testing.T) sent {
	t.Helper()
	require.NotEmpty(t, f.sessions.direct)
	return f.sessions.direct[len(f.sessions.direct)-1]
}

// ============================================================================
//                              拦截
// ============================================================================

func TestHandleFrame_RequestFeedbackBus(t *testing.T) {
	f := newFixture(t, nil)

	f.router.HandleFrame("s1", "request(26, view)")

	got := f.lastDirect(t)
	assert.Equal(t, "s1", got.session)
	assert.Equal(t, "<REPLY request(26, view)>\r\n<END 0 (OK)>", got.msg)
	assert.Empty(t, f.link.frames, "拦截的命令不转发")
	assert.Empty(t, f.sessions.broadcast)
}

func TestHandleFrame_InterceptReplies(t *testing.T) {
	tests := []struct {
		frame string
		want  string
	}{
		{
			frame: "get(100)",
			want: "<REPLY get(100)>\r\n" +
				"100 objectclass[feedback-module]\r\n" +
				"100 view[none]\r\n" +
				"100 listview[none]\r\n" +
				"100 ports[16]\r\n" +
				"100 state[0x0000]\r\n" +
				"<END 0 (OK)>",
		},
		{
			frame: "get(101, state)",
			want:  "<EVENT 101>\r\n101 state[0x0000]\r\n<END 0 (OK)>",
		},
		{
			frame: "get(100, ports, bogus, state)",
			want:  "<REPLY get(100, ports, bogus, state)>\r\n100 ports[16]\r\n100 state[0x0000]\r\n<END 0 (OK)>",
		},
		{
			frame: "get(26, view)",
			want:  "<REPLY get(26, view)>\r\n<END 0 (OK)>",
		},
		{
			frame: "queryObjects(26, ports)",
			want:  "<REPLY queryObjects(26,ports)>\r\n100 ports[16]\r\n101 ports[16]\r\n<END 0 (OK)>",
		},
		{
			frame: "queryObjects(26)",
			want:  "<REPLY queryObjects(26)>\r\n100\r\n101\r\n<END 0 (OK)>",
		},
		{
			frame: "request(101, view)",
			want:  "<REPLY request(101, view)>\r\n<END 0 (OK)>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.frame, func(t *testing.T) {
			f := newFixture(t, nil)
			f.router.HandleFrame("s1", tt.frame)
			assert.Equal(t, tt.want, f.lastDirect(t).msg)
			assert.Empty(t, f.link.frames)
		})
	}
}

func TestHandleFrame_UnsupportedInterceptDropped(t *testing.T) {
	f := newFixture(t, nil)

	f.router.HandleFrame("s1", "set(100, state[1])")
	f.router.HandleFrame("s1", "queryObjects(100)")

	assert.Empty(t, f.sessions.direct)
	assert.Empty(t, f.link.frames)
	assert.Equal(t, 2.0, f.frames(t, types.OutcomeIntercepted))
}

// ============================================================================
//                              过滤与转发
// ============================================================================

func TestHandleFrame_Malformed(t *testing.T) {
	f := newFixture(t, nil)

	f.router.HandleFrame("s1", "get(1, status")
	f.router.HandleFrame("s1", "no parens")

	assert.Empty(t, f.link.frames)
	assert.Empty(t, f.sessions.direct)
	assert.Equal(t, 2.0, f.frames(t, types.OutcomeMalformed))
}

func TestHandleFrame_FilterAndForward(t *testing.T) {
	f := newFixture(t, func(cfg *config.Config) {
		cfg.Filter.Enabled = true
		cfg.Filter.ObjectIDs = []int{1000}
		cfg.Filter.ObjectIDRanges = []string{"< 50"}
	})

	f.router.HandleFrame("s1", "set(10, go)")
	f.router.HandleFrame("s1", "get(1000, name)")
	f.router.HandleFrame("s1", "get(1001, name)")
	f.router.HandleFrame("s1", "get(64,  name)")

	assert.Equal(t, []string{"get(1001, name)", "get(64,  name)"}, f.link.frames, "原样转发")
	assert.Equal(t, 2.0, f.frames(t, types.OutcomeFiltered))
	assert.Equal(t, 2.0, f.frames(t, types.OutcomeForwarded))
}

func TestHandleFrame_StationOutage(t *testing.T) {
	f := newFixture(t, nil)
	f.link.state = types.ConnStateProbing

	f.router.HandleFrame("s1", "get(1, status)")
	assert.Empty(t, f.link.frames)
	assert.Equal(t, 1.0, f.frames(t, types.OutcomeDropped))

	// 未连接站点的网关
	r := New(config.NewConfig(), f.pool, f.sessions)
	assert.NotPanics(t, func() { r.HandleFrame("s1", "get(1, status)") })
}

func TestOnMessage_FansOutVerbatim(t *testing.T) {
	f := newFixture(t, nil)
	msg := "<EVENT 1>\r\n  1 status[GO]\r\n<END 0 (OK)>"

	f.router.OnConnected("10.0.0.1:15471")
	f.router.OnMessage(msg)
	f.router.OnFailed("10.0.0.1:15471", assert.AnError)

	assert.Equal(t, []string{msg}, f.sessions.broadcast)
}

// ============================================================================
//                              设备行
// ============================================================================

func TestHandleDeviceLine_ChangeIsPublished(t *testing.T) {
	bus := eventbus.NewBus()
	sub, err := bus.Subscribe(new(types.EvtFeedbackChanged))
	require.NoError(t, err)
	defer sub.Close()

	f := newFixture(t, nil, WithEventBus(bus))
	f.router.HandleDeviceLine("i0201022c05")

	block := "<EVENT 100>\r\n100 state[0x022C]\r\n<END 0 (OK)>"
	assert.Equal(t, []string{block}, f.sessions.broadcast)
	assert.JSONEq(t,
		`{"event":{"objectId":100,"port":1,"state":{"hex":"022C","binary":"0000001000101100"}},"info":{"left":1,"middle":1,"right":0}}`,
		f.sink.payloads[100])

	select {
	case raw := <-sub.Out():
		evt := raw.(types.EvtFeedbackChanged)
		assert.Equal(t, 100, evt.ObjectID)
		assert.Equal(t, "022C", evt.Hex)
	case <-time.After(time.Second):
		t.Fatal("未收到 EvtFeedbackChanged")
	}

	// 相同读数不再产生变化
	f.router.HandleDeviceLine("m0101022c")
	assert.Len(t, f.sessions.broadcast, 1)
}

func TestHandleDeviceLine_VersionAndGarbage(t *testing.T) {
	f := newFixture(t, nil)

	f.router.HandleDeviceLine("V HSI-88 v1.0")
	f.router.HandleDeviceLine("V HSI-88 v1.0")
	f.router.HandleDeviceLine("")
	f.router.HandleDeviceLine("x123")
	f.router.HandleDeviceLine("i01400001")

	assert.Empty(t, f.sessions.broadcast)
	assert.True(t, f.router.versionShown.Load())
}

func TestSnapshot(t *testing.T) {
	f := newFixture(t, nil)
	f.router.HandleDeviceLine("i01020001")

	assert.Equal(t, []string{
		"<EVENT 100>\r\n100 state[0x0000]\r\n<END 0 (OK)>",
		"<EVENT 101>\r\n101 state[0x0001]\r\n<END 0 (OK)>",
	}, f.router.Snapshot())
}
