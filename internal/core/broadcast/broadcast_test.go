package broadcast

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-ecosgate/config"
	"github.com/dep2p/go-ecosgate/internal/core/metrics"
)

func dialWS(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(url, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readText(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	typ, data, err := conn.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, websocket.TextMessage, typ)
	return string(data)
}

func TestEncode(t *testing.T) {
	data, err := Encode(101, 2, "0005", "0000000000000101", Info{Left: 2, Middle: 1, Right: 0})
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"event":{"objectId":101,"port":2,"state":{"hex":"0005","binary":"0000000000000101"}},"info":{"left":2,"middle":1,"right":0}}`,
		string(data))
}

func TestInfoFromConfig(t *testing.T) {
	cfg := config.DefaultHSIConfig()
	cfg.Left, cfg.Middle, cfg.Right = 3, 2, 1
	assert.Equal(t, Info{Left: 3, Middle: 2, Right: 1}, InfoFromConfig(cfg))
}

func TestHub_ReplaysLastPayloadPerModule(t *testing.T) {
	hub := NewHub(nil)
	srv := httptest.NewServer(hub)
	defer srv.Close()
	defer hub.Close()

	hub.Publish(101, []byte(`{"m":101,"v":1}`))
	hub.Publish(100, []byte(`{"m":100,"v":1}`))
	hub.Publish(101, []byte(`{"m":101,"v":2}`))

	conn := dialWS(t, srv.URL)
	assert.Equal(t, `{"m":100,"v":1}`, readText(t, conn))
	assert.Equal(t, `{"m":101,"v":2}`, readText(t, conn))
}

func TestHub_PublishFansOut(t *testing.T) {
	hub := NewHub(nil)
	srv := httptest.NewServer(hub)
	defer srv.Close()
	defer hub.Close()

	a := dialWS(t, srv.URL)
	b := dialWS(t, srv.URL)
	require.Eventually(t, func() bool { return hub.ObserverCount() == 2 }, 2*time.Second, 5*time.Millisecond)

	hub.Publish(100, []byte(`{"x":1}`))
	assert.Equal(t, `{"x":1}`, readText(t, a))
	assert.Equal(t, `{"x":1}`, readText(t, b))

	require.NoError(t, a.Close())
	assert.Eventually(t, func() bool { return hub.ObserverCount() == 1 }, 2*time.Second, 5*time.Millisecond)
}

func TestHub_CloseDisconnectsObservers(t *testing.T) {
	hub := NewHub(nil)
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dialWS(t, srv.URL)
	require.Eventually(t, func() bool { return hub.ObserverCount() == 1 }, 2*time.Second, 5*time.Millisecond)

	hub.Close()
	assert.Zero(t, hub.ObserverCount())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "err = %v", err)

	// 关闭后发布为空操作
	hub.Publish(100, []byte("x"))
}

func TestServer_MountsHubAndMetrics(t *testing.T) {
	bcfg := config.DefaultBroadcastConfig()
	bcfg.Enabled = true
	bcfg.Addr = "127.0.0.1:0"
	mcfg := config.DefaultMetricsConfig()
	mcfg.Enabled = true

	m := metrics.New(nil)
	hub := NewHub(m)
	s := NewServer(bcfg, mcfg, hub, m)
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	base := "http://" + s.Addr().String()

	conn := dialWS(t, base+bcfg.Path)
	require.Eventually(t, func() bool { return hub.ObserverCount() == 1 }, 2*time.Second, 5*time.Millisecond)
	hub.Publish(100, []byte(`{"ok":true}`))
	assert.Equal(t, `{"ok":true}`, readText(t, conn))

	resp, err := http.Get(base + mcfg.Path)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Contains(t, string(body), "ecosgate_broadcast_observers 1")

	require.NoError(t, s.Stop())
	assert.Zero(t, hub.ObserverCount())
}

func TestServer_MetricsOnly(t *testing.T) {
	bcfg := config.DefaultBroadcastConfig()
	bcfg.Addr = "127.0.0.1:0"
	mcfg := config.DefaultMetricsConfig()

	s := NewServer(bcfg, mcfg, nil, metrics.New(nil))
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	resp, err := http.Get("http://" + s.Addr().String() + bcfg.Path)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
