package broadcast

import (
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dep2p/go-ecosgate/internal/core/metrics"
	"github.com/dep2p/go-ecosgate/internal/util/logger"
	pkgif "github.com/dep2p/go-ecosgate/pkg/interfaces"
)

var log = logger.Logger("broadcast")

const (
	// sendBufferSize 每个观察者的发送缓冲
	sendBufferSize = 64

	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// observer 一个 WebSocket 观察者
type observer struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (o *observer) close() {
	o.once.Do(func() {
		close(o.send)
	})
}

// Hub 观察者集合与最后载荷缓存
type Hub struct {
	upgrader websocket.Upgrader
	metrics  *metrics.Metrics

	mu        sync.RWMutex
	observers map[*observer]struct{}
	last      map[int][]byte
	closed    bool

	wg sync.WaitGroup
}

var _ pkgif.BroadcastSink = (*Hub)(nil)

// NewHub 创建 Hub
func NewHub(m *metrics.Metrics) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// 可视化客户端来自任意来源
			CheckOrigin: func(*http.Request) bool { return true },
		},
		metrics:   m,
		observers: make(map[*observer]struct{}),
		last:      make(map[int][]byte),
	}
}

// Publish 缓存并推送一条载荷；慢观察者的缓冲满时丢弃
func (h *Hub) Publish(objectID int, payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}

	h.last[objectID] = payload
	for o := range h.observers {
		select {
		case o.send <- payload:
		default:
			log.Warn("观察者发送缓冲已满，丢弃", "remote", o.conn.RemoteAddr().String())
		}
	}
}

// ObserverCount 返回观察者数量
func (h *Hub) ObserverCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.observers)
}

// ServeHTTP 升级为 WebSocket 并登记观察者
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debug("WebSocket 升级失败", "remote", r.RemoteAddr, "err", err)
		return
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = conn.Close()
		return
	}
	// 先补发缓存再登记，新观察者看到的顺序与缓存一致
	ids := h.sortedIDsLocked()
	o := &observer{conn: conn, send: make(chan []byte, sendBufferSize+len(ids))}
	for _, id := range ids {
		o.send <- h.last[id]
	}
	h.observers[o] = struct{}{}
	count := len(h.observers)
	h.wg.Add(2)
	h.mu.Unlock()

	h.metrics.Observers(count)
	log.Info("观察者已连接", "remote", conn.RemoteAddr().String(), "observers", count)

	go h.writeLoop(o)
	go h.readLoop(o)
}

func (h *Hub) sortedIDsLocked() []int {
	ids := make([]int, 0, len(h.last))
	for id := range h.last {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// readLoop 只处理控制帧，读失败即移除观察者
func (h *Hub) readLoop(o *observer) {
	defer h.wg.Done()
	defer h.remove(o)

	o.conn.SetReadLimit(512)
	_ = o.conn.SetReadDeadline(time.Now().Add(pongWait))
	o.conn.SetPongHandler(func(string) error {
		return o.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := o.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writeLoop 唯一写者
func (h *Hub) writeLoop(o *observer) {
	defer h.wg.Done()
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = o.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-o.send:
			_ = o.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = o.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := o.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = o.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := o.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) remove(o *observer) {
	h.mu.Lock()
	_, ok := h.observers[o]
	delete(h.observers, o)
	count := len(h.observers)
	h.mu.Unlock()

	if ok {
		o.close()
		h.metrics.Observers(count)
		log.Info("观察者已断开", "remote", o.conn.RemoteAddr().String(), "observers", count)
	}
}

// Close 断开所有观察者并等待其 goroutine 退出
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	for o := range h.observers {
		delete(h.observers, o)
		o.close()
	}
	h.mu.Unlock()

	h.metrics.Observers(0)
	h.wg.Wait()
}
