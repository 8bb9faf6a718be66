package device

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"

	"github.com/dep2p/go-ecosgate/config"
	"github.com/dep2p/go-ecosgate/internal/core/eventbus"
	pkgif "github.com/dep2p/go-ecosgate/pkg/interfaces"
	"github.com/dep2p/go-ecosgate/pkg/types"
)

// ============================================================================
//                              测试辅助
// ============================================================================

// fakePort 内存串口：设备输出经 pipe 写入，主机写入被记录
type fakePort struct {
	r *io.PipeReader
	w *io.PipeWriter

	mu      sync.Mutex
	written bytes.Buffer
}

func newFakePort() *fakePort {
	r, w := io.Pipe()
	return &fakePort{r: r, w: w}
}

func (p *fakePort) Read(b []byte) (int, error) { return p.r.Read(b) }

func (p *fakePort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.written.Write(b)
}

func (p *fakePort) Close() error { return p.r.Close() }

func (p *fakePort) Written() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.written.String()
}

// emit 模拟设备输出
func (p *fakePort) emit(t *testing.T, s string) {
	t.Helper()
	_, err := p.w.Write([]byte(s))
	require.NoError(t, err)
}

func testHSI() config.HSIConfig {
	cfg := config.DefaultHSIConfig()
	cfg.Left, cfg.Middle, cfg.Right = 2, 1, 0
	cfg.DevicePath = "/dev/fake"
	return cfg
}

func newTestSerial(port *fakePort, poll time.Duration) (*Serial, *serial.Mode) {
	var mode serial.Mode
	s := NewSerial(testHSI(), poll, WithOpenFunc(func(path string, m *serial.Mode) (Port, error) {
		mode = *m
		return port, nil
	}))
	return s, &mode
}

// ============================================================================
//                              Serial
// ============================================================================

func TestInitSequence(t *testing.T) {
	assert.Equal(t, []string{"t1\r", "v\r", "s020100\r"}, InitSequence(testHSI()))
}

func TestSerial_OpenSendsInitSequence(t *testing.T) {
	port := newFakePort()
	s, mode := newTestSerial(port, time.Hour)

	require.NoError(t, s.Open())
	defer s.Close()

	assert.Equal(t, "t1\rv\rs020100\r", port.Written())
	assert.Equal(t, 9600, mode.BaudRate)
	assert.Equal(t, "/dev/fake", s.Name())
}

func TestSerial_OpenFailure(t *testing.T) {
	s := NewSerial(testHSI(), time.Hour, WithOpenFunc(func(string, *serial.Mode) (Port, error) {
		return nil, errors.New("no such device")
	}))
	err := s.Open()
	assert.ErrorIs(t, err, ErrDeviceFailure)
	assert.Contains(t, err.Error(), "/dev/fake")
}

func TestSerial_RunSplitsLinesAndPolls(t *testing.T) {
	port := newFakePort()
	s, _ := newTestSerial(port, 10*time.Millisecond)
	require.NoError(t, s.Open())

	lines := make(chan string, 8)
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Run(ctx, func(l string) { lines <- l })
	}()

	port.emit(t, "V1.0 HSI-88\r")
	port.emit(t, "i0201022c")
	port.emit(t, "05\r\n")

	assert.Equal(t, "V1.0 HSI-88", <-lines)
	assert.Equal(t, "i0201022c05", <-lines)

	assert.Eventually(t, func() bool {
		return strings.Count(port.Written(), "m\r") >= 2
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, s.Close())
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run 未退出")
	}
}

func TestSerial_ReadFailure(t *testing.T) {
	port := newFakePort()
	s, _ := newTestSerial(port, time.Hour)
	require.NoError(t, s.Open())
	defer s.Close()

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Run(context.Background(), func(string) {})
	}()

	port.w.CloseWithError(errors.New("unplugged"))
	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, ErrDeviceFailure)
	case <-time.After(2 * time.Second):
		t.Fatal("Run 未退出")
	}
}

func TestSerial_RunWithoutOpen(t *testing.T) {
	s := NewSerial(testHSI(), time.Hour)
	assert.ErrorIs(t, s.Run(context.Background(), func(string) {}), ErrNotOpen)
	assert.NoError(t, s.Close())
}

// ============================================================================
//                              Simulator
// ============================================================================

func TestSimulator_Alternates(t *testing.T) {
	clk := clock.NewMock()
	sim := NewSimulator(time.Second, clk)
	require.NoError(t, sim.Open())

	lines := make(chan string, 16)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		_ = sim.Run(ctx, func(l string) { lines <- l })
	}()

	var got []string
	require.Eventually(t, func() bool {
		clk.Add(time.Second)
		for {
			select {
			case l := <-lines:
				got = append(got, l)
			default:
				return len(got) >= 3
			}
		}
	}, 2*time.Second, 5*time.Millisecond)

	assert.Equal(t, []string{"i01020000", "i01020001", "i01020000"}, got[:3])
	assert.Equal(t, "simulator", sim.Name())
}

// ============================================================================
//                              Service
// ============================================================================

// stubSource 可控的数据源
type stubSource struct {
	openErr error
	lines   []string
	runErr  error
}

func (s *stubSource) Name() string { return "stub" }
func (s *stubSource) Open() error  { return s.openErr }
func (s *stubSource) Close() error { return nil }

func (s *stubSource) Run(ctx context.Context, h pkgif.LineHandler) error {
	for _, l := range s.lines {
		h(l)
	}
	if s.runErr != nil {
		return s.runErr
	}
	<-ctx.Done()
	return nil
}

func TestService_DeliversLinesAndPublishesOpened(t *testing.T) {
	bus := eventbus.NewBus()
	opened, err := bus.Subscribe(new(types.EvtDeviceOpened))
	require.NoError(t, err)
	defer opened.Close()

	svc := NewService(&stubSource{lines: []string{"i01020001", "m00"}}, bus)
	lines := make(chan string, 4)
	svc.SetHandler(func(l string) { lines <- l })

	require.NoError(t, svc.Start(context.Background()))
	defer svc.Stop()

	select {
	case raw := <-opened.Out():
		assert.Equal(t, "stub", raw.(types.EvtDeviceOpened).Source)
	case <-time.After(2 * time.Second):
		t.Fatal("未收到 EvtDeviceOpened")
	}
	assert.Equal(t, "i01020001", <-lines)
	assert.Equal(t, "m00", <-lines)
	assert.False(t, svc.Failed())
}

func TestService_FailurePublishesEvent(t *testing.T) {
	for name, src := range map[string]*stubSource{
		"open": {openErr: ErrDeviceFailure},
		"run":  {runErr: ErrDeviceFailure},
	} {
		t.Run(name, func(t *testing.T) {
			bus := eventbus.NewBus()
			failed, err := bus.Subscribe(new(types.EvtDeviceFailed))
			require.NoError(t, err)
			defer failed.Close()

			svc := NewService(src, bus)
			require.NoError(t, svc.Start(context.Background()))
			defer svc.Stop()

			select {
			case raw := <-failed.Out():
				assert.ErrorIs(t, raw.(types.EvtDeviceFailed).Err, ErrDeviceFailure)
			case <-time.After(2 * time.Second):
				t.Fatal("未收到 EvtDeviceFailed")
			}
			assert.Eventually(t, svc.Failed, time.Second, 5*time.Millisecond)
		})
	}
}

func TestNewSource(t *testing.T) {
	cfg := config.NewConfig()
	assert.IsType(t, &Serial{}, NewSource(cfg, nil))

	cfg.Runtime.IsS88Simulation = true
	assert.IsType(t, &Simulator{}, NewSource(cfg, nil))
}
