package station

import (
	"bytes"
	"context"
	crand "crypto/rand"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"

	"github.com/dep2p/go-ecosgate/config"
)

// ============================================================================
//                              Prober 接口
// ============================================================================

// Prober 站点可达性探测
//
// addr 为 host:port；返回 nil 表示可达。
type Prober interface {
	Probe(ctx context.Context, addr string) error
}

// ProberFunc 函数形式的 Prober
type ProberFunc func(ctx context.Context, addr string) error

// Probe 实现 Prober
func (f ProberFunc) Probe(ctx context.Context, addr string) error {
	return f(ctx, addr)
}

// NopProber 总是报告可达
type NopProber struct{}

// Probe 实现 Prober
func (NopProber) Probe(context.Context, string) error { return nil }

// ============================================================================
//                              ICMP
// ============================================================================

const (
	// ProbePayloadSize echo 负载大小
	ProbePayloadSize = 32

	// protocolICMP IPv4 ICMP 协议号
	protocolICMP = 1
)

// echoSeq 全局 echo 序号
var echoSeq atomic.Uint32

// ICMPProber ICMP echo 探测
//
// 非特权模式使用 udp4 datagram socket（Linux 需要 net.ipv4.ping_group_range
// 包含当前组），特权模式使用原始 ip4:icmp socket。
type ICMPProber struct {
	Privileged bool
	Timeout    time.Duration
}

// Probe 发送一个 echo 请求并等待匹配的应答
func (p *ICMPProber) Probe(ctx context.Context, addr string) error {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}
	ip, err := net.ResolveIPAddr("ip4", host)
	if err != nil {
		return fmt.Errorf("%w: resolve %s: %v", ErrUnreachable, host, err)
	}

	network := "udp4"
	if p.Privileged {
		network = "ip4:icmp"
	}
	conn, err := icmp.ListenPacket(network, "0.0.0.0")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProbeUnavailable, err)
	}
	defer conn.Close()

	var dst net.Addr = ip
	if !p.Privileged {
		dst = &net.UDPAddr{IP: ip.IP}
	}

	payload := make([]byte, ProbePayloadSize)
	_, _ = crand.Read(payload)
	seq := int(echoSeq.Add(1) & 0xffff)
	msg := icmp.Message{
		Type: ipv4.ICMPTypeEcho,
		Body: &icmp.Echo{
			ID:   os.Getpid() & 0xffff,
			Seq:  seq,
			Data: payload,
		},
	}
	wb, err := msg.Marshal(nil)
	if err != nil {
		return err
	}

	deadline := time.Now().Add(p.timeout())
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return err
	}
	if _, err := conn.WriteTo(wb, dst); err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	rb := make([]byte, 1500)
	for {
		n, peer, err := conn.ReadFrom(rb)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUnreachable, err)
		}
		if !sameHost(peer, ip.IP) {
			continue
		}
		reply, err := icmp.ParseMessage(protocolICMP, rb[:n])
		if err != nil || reply.Type != ipv4.ICMPTypeEchoReply {
			continue
		}
		// 非特权 socket 的 ID 由内核改写，只比较序号和负载
		echo, ok := reply.Body.(*icmp.Echo)
		if ok && echo.Seq == seq && bytes.Equal(echo.Data, payload) {
			return nil
		}
	}
}

func (p *ICMPProber) timeout() time.Duration {
	if p.Timeout <= 0 {
		return 120 * time.Millisecond
	}
	return p.Timeout
}

func sameHost(a net.Addr, ip net.IP) bool {
	switch v := a.(type) {
	case *net.IPAddr:
		return v.IP.Equal(ip)
	case *net.UDPAddr:
		return v.IP.Equal(ip)
	}
	return false
}

// ============================================================================
//                              TCP
// ============================================================================

// TCPProber 建立后立即关闭的短 TCP 连接
type TCPProber struct {
	Timeout time.Duration
	Dial    DialFunc
}

// Probe 实现 Prober
func (p *TCPProber) Probe(ctx context.Context, addr string) error {
	dial := p.Dial
	if dial == nil {
		dial = (&net.Dialer{}).DialContext
	}
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}
	conn, err := dial(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	return conn.Close()
}

// ============================================================================
//                              回退
// ============================================================================

// fallbackProber 主探测器返回 ErrProbeUnavailable 时永久切换到备用探测器
type fallbackProber struct {
	primary  Prober
	fallback Prober

	once     sync.Once
	degraded atomic.Bool
}

// Probe 实现 Prober
func (p *fallbackProber) Probe(ctx context.Context, addr string) error {
	if !p.degraded.Load() {
		err := p.primary.Probe(ctx, addr)
		if err == nil || !errors.Is(err, ErrProbeUnavailable) {
			return err
		}
		p.once.Do(func() {
			log.Warn("ICMP 探测不可用，回退到 TCP 探测", "err", err)
			p.degraded.Store(true)
		})
	}
	return p.fallback.Probe(ctx, addr)
}

// NewProber 按配置创建探测器
func NewProber(cfg config.EcosConfig, dial DialFunc) Prober {
	timeout := cfg.ProbeTimeout.Duration()
	tcp := &TCPProber{Timeout: cfg.DialTimeout.Duration(), Dial: dial}

	switch cfg.ProbeMode {
	case config.ProbeNone:
		return NopProber{}
	case config.ProbeTCP:
		return tcp
	default:
		return &fallbackProber{
			primary:  &ICMPProber{Privileged: cfg.ProbePrivileged, Timeout: timeout},
			fallback: tcp,
		}
	}
}
