package ecos

import (
	"regexp"
	"strconv"
	"strings"
)

var endLine = regexp.MustCompile(`^<END\s+(\d+)\s+\((.*)\)>$`)

// ParseEnd 解析 <END code (status)> 行
func ParseEnd(line string) (code int, status string, ok bool) {
	m := endLine.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return 0, "", false
	}
	code, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, "", false
	}
	return code, m[2], true
}

// IsBlockStart 是否是 <REPLY ...> 或 <EVENT ...> 开始行
func IsBlockStart(line string) bool {
	return strings.HasPrefix(line, "<REPLY") || strings.HasPrefix(line, "<EVENT")
}

// IsBlockEnd 是否是 <END ...> 结束行
func IsBlockEnd(line string) bool {
	return strings.HasPrefix(line, "<END")
}

// Assembler 把站点的物理行重组为逻辑消息
//
// 一条逻辑消息是一个回复/事件块：开始行、若干负载行、结束行，以 CRLF 连接。
// 块外的行作为单行消息直接交付。Assembler 不是并发安全的，由单个读循环持有。
type Assembler struct {
	buf    []string
	inside bool
}

// Feed 输入一行（可带 CR/LF），返回因此而完整的消息
//
// 负载行保留前导空白，原样交付。
// 块未结束时又遇到新的开始行，未完成的块按原样先交付，避免丢失数据。
func (a *Assembler) Feed(line string) []string {
	line = strings.TrimRight(line, "\r\n")
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return nil
	}

	var out []string
	switch {
	case IsBlockStart(trimmed):
		if a.inside {
			out = append(out, a.flush())
		}
		a.inside = true
		a.buf = append(a.buf, trimmed)
	case IsBlockEnd(trimmed):
		if !a.inside {
			return []string{trimmed}
		}
		a.buf = append(a.buf, trimmed)
		out = append(out, a.flush())
	case a.inside:
		a.buf = append(a.buf, line)
	default:
		out = append(out, line)
	}
	return out
}

// Pending 当前是否有未结束的块
func (a *Assembler) Pending() bool {
	return a.inside
}

// Reset 丢弃未结束的块（连接断开时调用）
func (a *Assembler) Reset() {
	a.buf = a.buf[:0]
	a.inside = false
}

func (a *Assembler) flush() string {
	msg := strings.Join(a.buf, LineEnd)
	a.buf = a.buf[:0]
	a.inside = false
	return msg
}
