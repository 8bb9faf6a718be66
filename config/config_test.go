package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := NewConfig()
	cfg.Ecos.IP = "192.168.1.10"
	cfg.HSI.Left = 2
	return cfg
}

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, "0.0.0.0", cfg.Server.BindingIP)
	assert.Equal(t, 15471, cfg.Server.ListenPort)
	assert.Equal(t, 2500*time.Millisecond, cfg.Server.RefreshInterval.Duration())
	assert.Equal(t, 15471, cfg.Ecos.Port)
	assert.Equal(t, 5*time.Second, cfg.Ecos.ProbeInterval.Duration())
	assert.Equal(t, 120*time.Millisecond, cfg.Ecos.ProbeTimeout.Duration())
	assert.Equal(t, ProbeICMP, cfg.Ecos.ProbeMode)
	assert.True(t, cfg.Runtime.ConnectToEcos)
	assert.Equal(t, "0.0.0.0:15471", cfg.Server.Addr())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"valid", func(*Config) {}, true},
		{"too many modules", func(c *Config) { c.HSI.Left, c.HSI.Middle, c.HSI.Right = 16, 16, 1 }, false},
		{"exactly 32 modules", func(c *Config) { c.HSI.Left, c.HSI.Middle, c.HSI.Right = 16, 8, 8 }, true},
		{"negative module count", func(c *Config) { c.HSI.Middle = -1 }, false},
		{"listen port zero", func(c *Config) { c.Server.ListenPort = 0 }, false},
		{"station port too large", func(c *Config) { c.Ecos.Port = 70000 }, false},
		{"missing station ip", func(c *Config) { c.Ecos.IP = "" }, false},
		{"no station needed", func(c *Config) { c.Ecos.IP = ""; c.Runtime.ConnectToEcos = false }, true},
		{"negative debounce", func(c *Config) { c.Debounce.Off = Millis(-time.Millisecond) }, false},
		{"unknown probe mode", func(c *Config) { c.Ecos.ProbeMode = "arp" }, false},
		{"malformed range is allowed", func(c *Config) { c.Filter.ObjectIDRanges = []string{">=abc"} }, true},
		{"bad binding ip", func(c *Config) { c.Server.BindingIP = "localhost:1" }, false},
		{"broadcast bad path", func(c *Config) { c.Broadcast.Enabled = true; c.Broadcast.Path = "ws" }, false},
		{"metrics needs addr", func(c *Config) { c.Metrics.Enabled = true; c.Broadcast.Addr = "nope" }, false},
		{"unknown log format", func(c *Config) { c.Log.Format = "xml" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			}
		})
	}
}

func TestValidate_Nil(t *testing.T) {
	var cfg *Config
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
}

func TestFromJSON_LegacyKeys(t *testing.T) {
	data := []byte(`{
		"server":  {"bindingIp": "127.0.0.1", "listenPort": 15000},
		"ecos":    {"ip": "192.168.178.61", "port": 15471},
		"hsi":     {"left": 2, "middle": 1, "right": 0, "devicePath": "/dev/ttyACM0"},
		"debounce": {"on": "150ms", "off": 400, "checkInterval": "5ms"},
		"filter":  {"enabled": true, "objectIds": [5, 7], "objectIdRanges": ["<50"]},
		"runtime": {"isSimulation": false, "isS88Simulation": true, "connectToEcos": false}
	}`)

	cfg, err := FromJSON(data)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:15000", cfg.Server.Addr())
	assert.Equal(t, "192.168.178.61:15471", cfg.Ecos.Addr())
	assert.Equal(t, 3, cfg.HSI.Total())
	assert.Equal(t, "/dev/ttyACM0", cfg.HSI.DevicePath)
	assert.Equal(t, 150*time.Millisecond, cfg.Debounce.On.Duration())
	assert.Equal(t, 400*time.Millisecond, cfg.Debounce.Off.Duration())
	assert.Equal(t, 50*time.Millisecond, cfg.Debounce.PollInterval())
	assert.Equal(t, []int{5, 7}, cfg.Filter.ObjectIDs)
	assert.True(t, cfg.Runtime.IsS88Simulation)
	assert.False(t, cfg.Runtime.ConnectToEcos)

	// 未出现的字段保留默认值
	assert.Equal(t, 2500*time.Millisecond, cfg.Server.RefreshInterval.Duration())
	assert.NoError(t, cfg.Validate())
}

func TestFromJSON_Invalid(t *testing.T) {
	_, err := FromJSON([]byte(`{"debounce": {"on": "soon"}}`))
	assert.Error(t, err)
}

func TestFromYAML(t *testing.T) {
	data := []byte(`
server:
  listenPort: 16000
  refreshInterval: 1s
ecos:
  ip: 10.0.0.2
  probeMode: tcp
hsi:
  left: 4
debounce:
  on: 20ms
  off: 1
`)

	cfg, err := FromYAML(data)
	require.NoError(t, err)

	assert.Equal(t, 16000, cfg.Server.ListenPort)
	assert.Equal(t, time.Second, cfg.Server.RefreshInterval.Duration())
	assert.Equal(t, ProbeTCP, cfg.Ecos.ProbeMode)
	assert.Equal(t, 4, cfg.HSI.Left)
	assert.Equal(t, 20*time.Millisecond, cfg.Debounce.On.Duration())
	assert.Equal(t, time.Millisecond, cfg.Debounce.Off.Duration())
	assert.Equal(t, 9600, cfg.HSI.BaudRate)
}

func TestDebounce_BareIntegersAreMillis(t *testing.T) {
	cfg, err := FromJSON([]byte(`{"debounce": {"on": 100, "off": 0, "checkInterval": 20}}`))
	require.NoError(t, err)
	assert.Equal(t, 100*time.Millisecond, cfg.Debounce.On.Duration())
	assert.Zero(t, cfg.Debounce.Off.Duration())
	assert.Equal(t, 20*time.Millisecond, cfg.Debounce.PollInterval())

	cfg, err = FromYAML([]byte("debounce:\n  on: 100\n  off: 250ms\n"))
	require.NoError(t, err)
	assert.Equal(t, 100*time.Millisecond, cfg.Debounce.On.Duration())
	assert.Equal(t, 250*time.Millisecond, cfg.Debounce.Off.Duration())

	// 其它时长字段的裸数字仍按纳秒解析
	cfg, err = FromJSON([]byte(`{"server": {"refreshInterval": 1000000}}`))
	require.NoError(t, err)
	assert.Equal(t, time.Millisecond, cfg.Server.RefreshInterval.Duration())

	_, err = FromJSON([]byte(`{"debounce": {"on": 1.5}}`))
	assert.Error(t, err)
}

func TestBroadcast_DefaultPath(t *testing.T) {
	assert.Equal(t, "/s88/", NewConfig().Broadcast.Path)
	assert.NoError(t, NewConfig().Broadcast.Validate(false))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "ecosgate.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"ecos": {"ip": "10.0.0.2"}}`), 0o600))
	cfg, err := Load(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.2", cfg.Ecos.IP)

	yamlPath := filepath.Join(dir, "ecosgate.yml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("ecos:\n  ip: 10.0.0.3\n"), 0o600))
	cfg, err = Load(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.3", cfg.Ecos.IP)

	// 加载后执行校验
	badPath := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(badPath, []byte(`{"hsi": {"left": 40}, "ecos": {"ip": "10.0.0.2"}}`), 0o600))
	_, err = Load(badPath)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = Load(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestToJSON_RoundTrip(t *testing.T) {
	cfg := validConfig()
	data, err := cfg.ToJSON()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"refreshInterval": "2.5s"`)

	back, err := FromJSON(data)
	require.NoError(t, err)
	assert.Equal(t, cfg, back)
}

func TestRuntime_UseDevice(t *testing.T) {
	assert.True(t, RuntimeConfig{}.UseDevice())
	assert.False(t, RuntimeConfig{IsSimulation: true}.UseDevice())
	assert.True(t, RuntimeConfig{IsSimulation: true, IsS88Simulation: true}.UseDevice())
}
