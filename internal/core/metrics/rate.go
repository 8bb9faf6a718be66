package metrics

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// windowSeconds 速率窗口长度（1 秒一个桶）
const windowSeconds = 60

// RateMeter 速率计算器（基于滑动窗口）
//
// 使用 60 个 1 秒桶来计算最近 60 秒的平均速率。
type RateMeter struct {
	mu       sync.Mutex
	clock    clock.Clock
	buckets  [windowSeconds]int64
	lastIdx  int
	lastTime time.Time
	total    int64
}

// NewRateMeter 创建速率计算器；clk 为 nil 时使用真实时钟
func NewRateMeter(clk clock.Clock) *RateMeter {
	if clk == nil {
		clk = clock.New()
	}
	return &RateMeter{
		clock:    clk,
		lastTime: clk.Now(),
	}
}

// advance 把窗口推进到当前时间，清空经过的桶（调用方持锁）
func (r *RateMeter) advance() {
	now := r.clock.Now()
	elapsed := now.Sub(r.lastTime)
	if elapsed < time.Second {
		return
	}

	seconds := int(elapsed / time.Second)
	if seconds >= windowSeconds {
		r.buckets = [windowSeconds]int64{}
		r.lastIdx = 0
	} else {
		for i := 0; i < seconds; i++ {
			r.lastIdx = (r.lastIdx + 1) % windowSeconds
			r.buckets[r.lastIdx] = 0
		}
	}
	r.lastTime = r.lastTime.Add(time.Duration(seconds) * time.Second)
}

// Add 添加字节数到当前桶
func (r *RateMeter) Add(n int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.advance()
	r.buckets[r.lastIdx] += n
	r.total += n
}

// Rate 返回最近 60 秒的平均速率（字节/秒）
func (r *RateMeter) Rate() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.advance()
	var sum int64
	for _, v := range r.buckets {
		sum += v
	}
	return float64(sum) / windowSeconds
}

// Total 返回累计总量
func (r *RateMeter) Total() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.total
}
