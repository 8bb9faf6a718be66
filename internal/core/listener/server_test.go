package listener

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-ecosgate/config"
	"github.com/dep2p/go-ecosgate/internal/core/eventbus"
	"github.com/dep2p/go-ecosgate/pkg/types"
)

// ============================================================================
//                              测试辅助
// ============================================================================

type frame struct {
	session string
	text    string
}

type handlerFunc func(id, frame string)

func (f handlerFunc) HandleFrame(id, frame string) { f(id, frame) }

type snapshotFunc func() []string

func (f snapshotFunc) Snapshot() []string { return f() }

func testServerConfig() config.ServerConfig {
	cfg := config.DefaultServerConfig()
	cfg.BindingIP = "127.0.0.1"
	cfg.ListenPort = 0
	cfg.RefreshInterval = config.Duration(time.Hour)
	cfg.ShutdownTimeout = config.Duration(500 * time.Millisecond)
	return cfg
}

func startServer(t *testing.T, cfg config.ServerConfig, opts ...Option) *Server {
	t.Helper()
	s := NewServer(cfg, opts...)
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() { _ = s.Stop() })
	return s
}

type client struct {
	conn net.Conn
	r    *bufio.Reader
}

func dial(t *testing.T, s *Server) *client {
	t.Helper()
	conn, err := net.Dial("tcp", s.Addr().String())
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return &client{conn: conn, r: bufio.NewReader(conn)}
}

func (c *client) readLine(t *testing.T) string {
	t.Helper()
	require.NoError(t, c.conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	line, err := c.r.ReadString('\n')
	require.NoError(t, err)
	return line
}

func (c *client) send(t *testing.T, line string) {
	t.Helper()
	_, err := c.conn.Write([]byte(line + "\r\n"))
	require.NoError(t, err)
}

const stateBlock = "<EVENT 100>\r\n100 state[0x0]\r\n<END 0 (OK)>"

// ============================================================================
//                              测试用例
// ============================================================================

func TestServer_SnapshotOnConnect(t *testing.T) {
	s := startServer(t, testServerConfig(),
		WithSnapshotProvider(snapshotFunc(func() []string { return []string{stateBlock} })))

	c := dial(t, s)
	assert.Equal(t, "<EVENT 100>\r\n", c.readLine(t))
	assert.Equal(t, "100 state[0x0]\r\n", c.readLine(t))
	assert.Equal(t, "<END 0 (OK)>\r\n", c.readLine(t))
}

func TestServer_FramesReachHandler(t *testing.T) {
	frames := make(chan frame, 4)
	s := startServer(t, testServerConfig(),
		WithHandler(handlerFunc(func(id, f string) { frames <- frame{id, f} })))

	c := dial(t, s)
	c.send(t, "  get(1, status)  ")
	c.send(t, "")
	c.send(t, "queryObjects(26, ports)")

	var got []frame
	for len(got) < 2 {
		select {
		case f := <-frames:
			got = append(got, f)
		case <-time.After(2 * time.Second):
			t.Fatal("帧未送达")
		}
	}
	assert.Equal(t, "get(1, status)", got[0].text)
	assert.Equal(t, "queryObjects(26, ports)", got[1].text)
	assert.Equal(t, got[0].session, got[1].session)

	_, ok := s.Registry().Get(got[0].session)
	assert.True(t, ok)
}

func TestServer_SendToIsFIFO(t *testing.T) {
	frames := make(chan frame, 1)
	s := startServer(t, testServerConfig(),
		WithHandler(handlerFunc(func(id, f string) { frames <- frame{id, f} })))

	c := dial(t, s)
	c.send(t, "hello")
	id := (<-frames).session

	for i := 0; i < 50; i++ {
		require.NoError(t, s.SendTo(id, fmt.Sprintf("msg %d", i)))
	}
	for i := 0; i < 50; i++ {
		assert.Equal(t, fmt.Sprintf("msg %d\r\n", i), c.readLine(t))
	}

	assert.ErrorIs(t, s.SendTo("nope", "x"), ErrUnknownSession)
}

func TestServer_Broadcast(t *testing.T) {
	s := startServer(t, testServerConfig())

	a := dial(t, s)
	b := dial(t, s)
	require.Eventually(t, func() bool { return s.SessionCount() == 2 }, 2*time.Second, 5*time.Millisecond)

	assert.Equal(t, 2, s.Broadcast("<EVENT 101>"))
	assert.Equal(t, "<EVENT 101>\r\n", a.readLine(t))
	assert.Equal(t, "<EVENT 101>\r\n", b.readLine(t))
}

func TestServer_DisconnectCancelsOwnRefresh(t *testing.T) {
	cfg := testServerConfig()
	cfg.RefreshInterval = config.Duration(20 * time.Millisecond)

	var calls atomic.Int32
	s := startServer(t, cfg, WithSnapshotProvider(snapshotFunc(func() []string {
		calls.Add(1)
		return []string{"<EVENT 100>"}
	})))

	a := dial(t, s)
	b := dial(t, s)
	require.Eventually(t, func() bool { return s.SessionCount() == 2 }, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, a.conn.Close())
	require.Eventually(t, func() bool { return s.SessionCount() == 1 }, 2*time.Second, 5*time.Millisecond)

	// 剩下的会话仍在刷新
	for i := 0; i < 3; i++ {
		assert.Equal(t, "<EVENT 100>\r\n", b.readLine(t))
	}
	assert.Equal(t, 1, s.SessionCount())
}

func TestServer_Events(t *testing.T) {
	bus := eventbus.NewBus()
	opened, err := bus.Subscribe(new(types.EvtSessionOpened))
	require.NoError(t, err)
	defer opened.Close()
	closed, err := bus.Subscribe(new(types.EvtSessionClosed))
	require.NoError(t, err)
	defer closed.Close()

	s := startServer(t, testServerConfig(), WithEventBus(bus))
	c := dial(t, s)

	var evtOpened types.EvtSessionOpened
	select {
	case raw := <-opened.Out():
		evtOpened = raw.(types.EvtSessionOpened)
	case <-time.After(2 * time.Second):
		t.Fatal("未收到 EvtSessionOpened")
	}
	assert.NotEmpty(t, evtOpened.SessionID)

	require.NoError(t, c.conn.Close())
	select {
	case raw := <-closed.Out():
		evt := raw.(types.EvtSessionClosed)
		assert.Equal(t, evtOpened.SessionID, evt.SessionID)
		assert.NoError(t, evt.Err)
	case <-time.After(2 * time.Second):
		t.Fatal("未收到 EvtSessionClosed")
	}
}

func TestServer_StopFlushesAndCloses(t *testing.T) {
	frames := make(chan frame, 1)
	s := NewServer(testServerConfig(),
		WithHandler(handlerFunc(func(id, f string) { frames <- frame{id, f} })))
	require.NoError(t, s.Start(context.Background()))

	c := dial(t, s)
	c.send(t, "hello")
	id := (<-frames).session

	for i := 0; i < 10; i++ {
		require.NoError(t, s.SendTo(id, fmt.Sprintf("bye %d", i)))
	}
	require.NoError(t, s.Stop())

	for i := 0; i < 10; i++ {
		assert.Equal(t, fmt.Sprintf("bye %d\r\n", i), c.readLine(t))
	}
	assert.Equal(t, "Quit\r\n", c.readLine(t))
	assert.Equal(t, "\r\n", c.readLine(t))
	_, err := c.r.ReadString('\n')
	assert.Error(t, err, "停止后连接应关闭")
	assert.Zero(t, s.SessionCount())

	require.NoError(t, s.Stop())
	assert.ErrorIs(t, s.Start(context.Background()), ErrServerClosed)
}

func TestServer_ConnectionAcceptedDuringStopIsNotRegistered(t *testing.T) {
	s := NewServer(testServerConfig())
	require.NoError(t, s.Start(context.Background()))
	addr := s.Addr()
	require.NotNil(t, addr)
	require.NoError(t, s.Stop())

	// 模拟 Accept 已返回但尚未登记的连接
	a, b := net.Pipe()
	defer b.Close()
	s.wg.Add(1)
	s.handleConn(a)

	_, err := b.Read(make([]byte, 1))
	assert.Error(t, err, "停止后接受的连接应被直接关闭")
	assert.Zero(t, s.SessionCount())
	assert.Equal(t, addr, s.Addr())
}
