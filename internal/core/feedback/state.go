package feedback

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-ecosgate/internal/util/logger"
)

var log = logger.Logger("feedback")

// Thresholds 去抖阈值
type Thresholds struct {
	// On 低→高 跳变的最小间隔
	On time.Duration
	// Off 高→低 跳变的最小间隔
	Off time.Duration
}

// ModuleState 单个反馈模块的状态
//
// Update 通过模块自身的锁串行化，不同模块之间可并发更新。
type ModuleState struct {
	objectID int

	mu         sync.Mutex
	hex        string
	stamps     [Pins]time.Time
	changes    uint64
	thresholds Thresholds
	clock      clock.Clock
}

// NewModuleState 创建模块，初始状态 0000
func NewModuleState(objectID int, th Thresholds, clk clock.Clock) *ModuleState {
	if clk == nil {
		clk = clock.New()
	}
	return &ModuleState{
		objectID:   objectID,
		hex:        zeroHex,
		thresholds: th,
		clock:      clk,
	}
}

// ObjectID 站点侧对象 ID（100 起）
func (m *ModuleState) ObjectID() int {
	return m.objectID
}

// DeviceID 设备侧 1 起的模块号
func (m *ModuleState) DeviceID() int {
	return m.objectID - BaseObjectID + 1
}

// Hex 当前状态（4 位大写十六进制）
func (m *ModuleState) Hex() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hex
}

// Binary 当前状态（16 位二进制字符串）
func (m *ModuleState) Binary() string {
	return ToBinary(m.Hex())
}

// Changes 已接受的引脚跳变次数
func (m *ModuleState) Changes() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.changes
}

// Update 以去抖规则合并一次读数，至少一个引脚变化时返回 true
//
// raw 不是恰好 4 位十六进制时视为无变化。
func (m *ModuleState) Update(raw string) bool {
	hex, ok := NormalizeHex(raw)
	if !ok {
		log.Debug("忽略无效的模块状态", "object", m.objectID, "raw", raw)
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	cur := []byte(ToBinary(m.hex))
	next := ToBinary(hex)
	changed := false

	for i := 0; i < Pins; i++ {
		if cur[i] == next[i] {
			// 相同的位重新开始计时
			m.stamps[i] = now
			continue
		}

		threshold := m.thresholds.Off
		if next[i] == '1' {
			threshold = m.thresholds.On
		}
		if now.Sub(m.stamps[i]) <= threshold {
			continue
		}

		cur[i] = next[i]
		m.stamps[i] = now
		m.changes++
		changed = true
	}

	m.hex = ToHex(string(cur))
	return changed
}
