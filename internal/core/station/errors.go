package station

import "errors"

var (
	// ErrTransportFailure 站点连接 I/O 失败
	ErrTransportFailure = errors.New("station transport failure")

	// ErrProbeUnavailable 探测手段不可用（如无法打开 ICMP socket）
	ErrProbeUnavailable = errors.New("probe unavailable")

	// ErrUnreachable 站点不可达
	ErrUnreachable = errors.New("station unreachable")

	// ErrSupervisorClosed Supervisor 已停止
	ErrSupervisorClosed = errors.New("supervisor closed")
)
