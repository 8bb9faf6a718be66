package types

// ============================================================================
//                              ConnState - 站点连接状态
// ============================================================================

// ConnState 站点侧连接状态
//
// 状态转换：Disconnected → Probing → Connected → Failed → Probing（循环）。
// 进程运行期间没有终止状态，失败后总是重新进入 Probing。
type ConnState int

const (
	// ConnStateDisconnected 初始状态，尚未开始探测
	ConnStateDisconnected ConnState = iota
	// ConnStateProbing 正在探测站点可达性
	ConnStateProbing
	// ConnStateConnected 传输已建立，握手已发送
	ConnStateConnected
	// ConnStateFailed 连接 I/O 失败，即将重新探测
	ConnStateFailed
)

// String 返回连接状态的字符串表示
func (s ConnState) String() string {
	switch s {
	case ConnStateDisconnected:
		return "disconnected"
	case ConnStateProbing:
		return "probing"
	case ConnStateConnected:
		return "connected"
	case ConnStateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ============================================================================
//                              FrameOutcome - 控制端帧处理结果
// ============================================================================

// FrameOutcome 路由器对一条控制端帧的处理结果
type FrameOutcome int

const (
	// OutcomeForwarded 转发到站点
	OutcomeForwarded FrameOutcome = iota
	// OutcomeIntercepted 本地拦截并合成回复
	OutcomeIntercepted
	// OutcomeFiltered 被对象过滤规则丢弃
	OutcomeFiltered
	// OutcomeMalformed 无法解析，丢弃
	OutcomeMalformed
	// OutcomeDropped 站点未连接，未转发即丢弃
	OutcomeDropped
)

// String 返回处理结果的字符串表示（用作指标标签）
func (o FrameOutcome) String() string {
	switch o {
	case OutcomeForwarded:
		return "forwarded"
	case OutcomeIntercepted:
		return "intercepted"
	case OutcomeFiltered:
		return "filtered"
	case OutcomeMalformed:
		return "malformed"
	case OutcomeDropped:
		return "dropped"
	default:
		return "unknown"
	}
}
