package feedback

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/dep2p/go-ecosgate/config"
)

func TestPool_Layout(t *testing.T) {
	p := NewPool(3, Thresholds{}, clock.NewMock())

	assert.Equal(t, 3, p.Count())
	assert.Equal(t, []int{100, 101, 102}, p.ConfiguredIDs())

	mods := p.Configured()
	require.Len(t, mods, 3)
	assert.Equal(t, 102, mods[2].ObjectID())

	// 池始终有 32 个模块，未配置的也可按 ID 访问
	m, ok := p.Get(131)
	require.True(t, ok)
	assert.Equal(t, 32, m.DeviceID())

	_, ok = p.Get(132)
	assert.False(t, ok)
	_, ok = p.Get(26)
	assert.False(t, ok)

	m, ok = p.ByDevice(1)
	require.True(t, ok)
	assert.Equal(t, 100, m.ObjectID())
}

func TestPool_ClampsConfigured(t *testing.T) {
	assert.Equal(t, PoolSize, NewPool(99, Thresholds{}, nil).Count())
	assert.Equal(t, 0, NewPool(-1, Thresholds{}, nil).Count())
}

func TestPool_ApplyScenario(t *testing.T) {
	p := NewPool(2, Thresholds{On: 100 * time.Millisecond, Off: 100 * time.Millisecond}, clock.NewMock())

	line, err := ParseDeviceLine("i0201022c05")
	require.NoError(t, err)
	require.Len(t, line.Readings, 1)

	m, changed, err := p.Apply(line.Readings[0])
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 100, m.ObjectID())
	assert.Equal(t, 1, m.DeviceID())
	assert.Equal(t, "022C", m.Hex())

	_, _, err = p.Apply(Reading{DeviceID: 40, Hex: "0001"})
	assert.Error(t, err)
}

func TestIsModuleID(t *testing.T) {
	assert.True(t, IsModuleID(100))
	assert.True(t, IsModuleID(131))
	assert.False(t, IsModuleID(99))
	assert.False(t, IsModuleID(132))
	assert.False(t, IsModuleID(BusObjectID))
}

func TestModule_ProvidesPool(t *testing.T) {
	cfg := config.NewConfig()
	cfg.HSI.Left, cfg.HSI.Middle = 2, 1

	var pool *Pool
	app := fxtest.New(t,
		fx.Supply(cfg),
		fx.Provide(func() clock.Clock { return clock.NewMock() }),
		Module(),
		fx.Populate(&pool),
	)
	app.RequireStart()
	defer app.RequireStop()

	require.NotNil(t, pool)
	assert.Equal(t, 3, pool.Count())
}
