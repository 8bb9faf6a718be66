package metrics

import (
	"github.com/benbjohnson/clock"
)

// Link 网关的一条链路
type Link string

// 网关链路
const (
	LinkController Link = "controller"
	LinkStation    Link = "station"
	LinkDevice     Link = "device"
)

// links 所有链路，固定集合
var links = []Link{LinkController, LinkStation, LinkDevice}

// Stats 单条链路的流量统计
type Stats struct {
	TotalIn  int64
	TotalOut int64
	RateIn   float64
	RateOut  float64
}

// Traffic 按链路统计收发字节
//
// 链路集合固定，构造后 map 只读，计数由 RateMeter 自身加锁。
type Traffic struct {
	in  map[Link]*RateMeter
	out map[Link]*RateMeter
}

// NewTraffic 创建流量统计
func NewTraffic(clk clock.Clock) *Traffic {
	t := &Traffic{
		in:  make(map[Link]*RateMeter, len(links)),
		out: make(map[Link]*RateMeter, len(links)),
	}
	for _, l := range links {
		t.in[l] = NewRateMeter(clk)
		t.out[l] = NewRateMeter(clk)
	}
	return t
}

// LogRecv 记录从链路收到的字节
func (t *Traffic) LogRecv(l Link, n int) {
	if m, ok := t.in[l]; ok {
		m.Add(int64(n))
	}
}

// LogSent 记录向链路发出的字节
func (t *Traffic) LogSent(l Link, n int) {
	if m, ok := t.out[l]; ok {
		m.Add(int64(n))
	}
}

// Stats 返回链路统计；未知链路返回零值
func (t *Traffic) Stats(l Link) Stats {
	in, ok := t.in[l]
	if !ok {
		return Stats{}
	}
	out := t.out[l]
	return Stats{
		TotalIn:  in.Total(),
		TotalOut: out.Total(),
		RateIn:   in.Rate(),
		RateOut:  out.Rate(),
	}
}
