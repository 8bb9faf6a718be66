package config

import (
	"net"
	"strconv"
	"time"
)

// 站点可达性探测方式
const (
	// ProbeICMP ICMP echo（不可用时回退到 TCP）
	ProbeICMP = "icmp"
	// ProbeTCP 短 TCP 连接
	ProbeTCP = "tcp"
	// ProbeNone 不探测，直接连接
	ProbeNone = "none"
)

// EcosConfig 站点（ECoS）连接配置
type EcosConfig struct {
	// IP 站点地址
	IP string `json:"ip" yaml:"ip"`

	// Port 站点端口
	Port int `json:"port" yaml:"port"`

	// ProbeInterval 探测失败后的重试间隔
	ProbeInterval Duration `json:"probeInterval" yaml:"probeInterval"`

	// ProbeTimeout 单次探测超时
	ProbeTimeout Duration `json:"probeTimeout" yaml:"probeTimeout"`

	// ProbeMode 探测方式：icmp、tcp、none
	ProbeMode string `json:"probeMode" yaml:"probeMode"`

	// ProbePrivileged 使用原始 ICMP socket（需要 root 或 CAP_NET_RAW）
	ProbePrivileged bool `json:"probePrivileged" yaml:"probePrivileged"`

	// DialTimeout 建立 TCP 连接的超时
	DialTimeout Duration `json:"dialTimeout" yaml:"dialTimeout"`
}

// DefaultEcosConfig 返回默认站点配置
func DefaultEcosConfig() EcosConfig {
	return EcosConfig{
		IP:              "",
		Port:            15471,
		ProbeInterval:   Duration(5 * time.Second),
		ProbeTimeout:    Duration(120 * time.Millisecond),
		ProbeMode:       ProbeICMP,
		ProbePrivileged: false,
		DialTimeout:     Duration(3 * time.Second),
	}
}

// Addr 返回 host:port 形式的站点地址
func (c EcosConfig) Addr() string {
	return net.JoinHostPort(c.IP, strconv.Itoa(c.Port))
}

// Validate 验证站点配置；connect 为 false 时不要求地址
func (c EcosConfig) Validate(connect bool) error {
	if connect && c.IP == "" {
		return invalid("ecos.ip", "required when runtime.connectToEcos is true")
	}
	if c.IP != "" {
		if err := validatePort("ecos.port", c.Port); err != nil {
			return err
		}
	}
	switch c.ProbeMode {
	case ProbeICMP, ProbeTCP, ProbeNone:
	default:
		return invalid("ecos.probeMode", "unknown probe mode %q", c.ProbeMode)
	}
	if c.ProbeInterval <= 0 {
		return invalid("ecos.probeInterval", "must be positive")
	}
	if err := validateNonNegative("ecos.probeTimeout", c.ProbeTimeout); err != nil {
		return err
	}
	return validateNonNegative("ecos.dialTimeout", c.DialTimeout)
}
