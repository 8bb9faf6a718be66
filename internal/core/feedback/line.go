package feedback

import (
	"fmt"
	"strconv"
	"strings"
)

// LineKind 设备输出行的种类
type LineKind int

const (
	// LineUnknown 无法识别的行
	LineUnknown LineKind = iota
	// LineEvent i 行：设备主动上报的变化
	LineEvent
	// LinePoll m 行：轮询得到的完整快照
	LinePoll
	// LineVersion v/V 行：版本横幅
	LineVersion
)

// String 返回种类名称
func (k LineKind) String() string {
	switch k {
	case LineEvent:
		return "event"
	case LinePoll:
		return "poll"
	case LineVersion:
		return "version"
	default:
		return "unknown"
	}
}

// groupLen 每个模块读数的长度：2 位模块号 + 4 位十六进制状态
const groupLen = 6

// Reading 一个模块的读数
type Reading struct {
	// DeviceID 设备侧模块号，1 起
	DeviceID int
	// Hex 原始十六进制状态
	Hex string
}

// DeviceLine 解码后的设备行
type DeviceLine struct {
	Kind     LineKind
	Raw      string
	Readings []Reading
}

// ParseDeviceLine 解码一行设备输出
//
//	i<NN>(<MM><HHHH>)*   事件
//	m<NN>(<MM><HHHH>)*   轮询快照
//	v... / V...          版本横幅
//
// NN 是两位十进制模块数。不足 6 个字符的尾部分组被忽略；
// 实际分组数少于 NN 时按实际分组解码。
func ParseDeviceLine(line string) (DeviceLine, error) {
	raw := strings.TrimSpace(line)
	dl := DeviceLine{Raw: raw}
	if raw == "" {
		return dl, fmt.Errorf("empty device line")
	}

	switch raw[0] {
	case 'v', 'V':
		dl.Kind = LineVersion
		return dl, nil
	case 'i':
		dl.Kind = LineEvent
	case 'm':
		dl.Kind = LinePoll
	default:
		return dl, nil
	}

	body := raw[1:]
	if len(body) < 2 {
		return dl, fmt.Errorf("device line %q: missing module count", raw)
	}
	count, err := strconv.Atoi(body[:2])
	if err != nil || count < 0 {
		return dl, fmt.Errorf("device line %q: invalid module count", raw)
	}

	groups := body[2:]
	for i := 0; i < count && (i+1)*groupLen <= len(groups); i++ {
		g := groups[i*groupLen : (i+1)*groupLen]
		id, err := strconv.Atoi(g[:2])
		if err != nil {
			continue
		}
		dl.Readings = append(dl.Readings, Reading{DeviceID: id, Hex: g[2:]})
	}
	return dl, nil
}
