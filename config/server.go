package config

import (
	"net"
	"strconv"
	"time"
)

// ServerConfig 控制端（Rocrail）监听配置
type ServerConfig struct {
	// BindingIP 监听地址
	BindingIP string `json:"bindingIp" yaml:"bindingIp"`

	// ListenPort 监听端口
	ListenPort int `json:"listenPort" yaml:"listenPort"`

	// RefreshInterval 向每个会话重发完整反馈快照的间隔
	RefreshInterval Duration `json:"refreshInterval" yaml:"refreshInterval"`

	// SendQueueSize 每个会话发送队列的容量，满时丢弃新帧
	SendQueueSize int `json:"sendQueueSize" yaml:"sendQueueSize"`

	// WriteTimeout 单次 socket 写超时
	WriteTimeout Duration `json:"writeTimeout" yaml:"writeTimeout"`

	// ShutdownTimeout 停止时等待会话发送队列排空的时间
	ShutdownTimeout Duration `json:"shutdownTimeout" yaml:"shutdownTimeout"`

	// MaxFramesPerSecond 每个会话的入站帧速率上限，0 表示不限
	MaxFramesPerSecond float64 `json:"maxFramesPerSecond" yaml:"maxFramesPerSecond"`
}

// DefaultServerConfig 返回默认监听配置
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		BindingIP:          "0.0.0.0",                        // 所有接口
		ListenPort:         15471,                            // 与 ECoS 默认端口一致，控制端无需改配置
		RefreshInterval:    Duration(2500 * time.Millisecond), // 2.5 秒
		SendQueueSize:      256,
		WriteTimeout:       Duration(5 * time.Second),
		ShutdownTimeout:    Duration(2 * time.Second),
		MaxFramesPerSecond: 0,
	}
}

// Addr 返回 host:port 形式的监听地址
func (c ServerConfig) Addr() string {
	return net.JoinHostPort(c.BindingIP, strconv.Itoa(c.ListenPort))
}

// Validate 验证监听配置
func (c ServerConfig) Validate() error {
	if c.BindingIP != "" && net.ParseIP(c.BindingIP) == nil {
		return invalid("server.bindingIp", "not an ip address: %q", c.BindingIP)
	}
	if err := validatePort("server.listenPort", c.ListenPort); err != nil {
		return err
	}
	if c.RefreshInterval <= 0 {
		return invalid("server.refreshInterval", "must be positive")
	}
	if c.SendQueueSize <= 0 {
		return invalid("server.sendQueueSize", "must be positive")
	}
	if err := validateNonNegative("server.writeTimeout", c.WriteTimeout); err != nil {
		return err
	}
	if err := validateNonNegative("server.shutdownTimeout", c.ShutdownTimeout); err != nil {
		return err
	}
	if c.MaxFramesPerSecond < 0 {
		return invalid("server.maxFramesPerSecond", "must not be negative")
	}
	return nil
}
