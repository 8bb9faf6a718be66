package metrics

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
)

func TestRateMeter_AddAndRate(t *testing.T) {
	clk := clock.NewMock()
	r := NewRateMeter(clk)

	r.Add(600)
	assert.Equal(t, int64(600), r.Total())
	assert.InDelta(t, 10.0, r.Rate(), 0.001)

	clk.Add(2 * time.Second)
	r.Add(600)
	assert.Equal(t, int64(1200), r.Total())
	assert.InDelta(t, 20.0, r.Rate(), 0.001)
}

func TestRateMeter_WindowExpires(t *testing.T) {
	clk := clock.NewMock()
	r := NewRateMeter(clk)

	r.Add(120)
	clk.Add(61 * time.Second)

	assert.Zero(t, r.Rate())
	assert.Equal(t, int64(120), r.Total(), "总量不随窗口过期")
}

func TestRateMeter_PartialExpiry(t *testing.T) {
	clk := clock.NewMock()
	r := NewRateMeter(clk)

	r.Add(60)
	clk.Add(30 * time.Second)
	r.Add(60)
	assert.InDelta(t, 2.0, r.Rate(), 0.001)

	// 第一个桶滑出窗口
	clk.Add(31 * time.Second)
	assert.InDelta(t, 1.0, r.Rate(), 0.001)
}

func TestTraffic_Links(t *testing.T) {
	clk := clock.NewMock()
	tr := NewTraffic(clk)

	tr.LogRecv(LinkStation, 100)
	tr.LogSent(LinkStation, 40)
	tr.LogRecv(LinkDevice, 9)
	tr.LogRecv(Link("bogus"), 1000)

	st := tr.Stats(LinkStation)
	assert.Equal(t, int64(100), st.TotalIn)
	assert.Equal(t, int64(40), st.TotalOut)

	assert.Equal(t, int64(9), tr.Stats(LinkDevice).TotalIn)
	assert.Zero(t, tr.Stats(LinkController).TotalIn)
	assert.Equal(t, Stats{}, tr.Stats(Link("bogus")))
}
