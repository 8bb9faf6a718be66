package ecos

import (
	"fmt"
	"strconv"
	"strings"
)

// ============================================================================
//                              线路常量
// ============================================================================

const (
	// LineEnd 行结束符
	LineEnd = "\r\n"

	// EndOK 成功结束行
	EndOK = "<END 0 (OK)>"

	// FeedbackPorts 每个反馈模块的端口数
	FeedbackPorts = 16
)

// Attribute 回复块中的一个对象属性：<id> name[value]
type Attribute struct {
	Name  string
	Value string
}

func (a Attribute) line(objectID int) string {
	return strconv.Itoa(objectID) + " " + a.Name + "[" + a.Value + "]"
}

// block 拼装一个以 EndOK 结束的回复块，行间以 CRLF 分隔，末尾不带 CRLF
func block(header string, lines ...string) string {
	var sb strings.Builder
	sb.WriteString(header)
	sb.WriteString(LineEnd)
	for _, l := range lines {
		sb.WriteString(l)
		sb.WriteString(LineEnd)
	}
	sb.WriteString(EndOK)
	return sb.String()
}

// StateValue 返回状态属性值 0x<hex>
func StateValue(hex string) string {
	return "0x" + hex
}

// ============================================================================
//                              合成回复
// ============================================================================

// EventState 反馈模块状态事件块
//
//	<EVENT 100>
//	100 state[0x022C]
//	<END 0 (OK)>
func EventState(objectID int, hex string) string {
	return block(fmt.Sprintf("<EVENT %d>", objectID),
		Attribute{Name: "state", Value: StateValue(hex)}.line(objectID))
}

// ReplyRequestView request(<id>, ...) 的回复
//
//	<REPLY request(26, view)>
//	<END 0 (OK)>
func ReplyRequestView(objectID int) string {
	return block(fmt.Sprintf("<REPLY request(%d, view)>", objectID))
}

// ModuleAttributes 反馈模块的完整属性集合，按线路顺序
func ModuleAttributes(hex string) []Attribute {
	return []Attribute{
		{Name: "objectclass", Value: "feedback-module"},
		{Name: "view", Value: "none"},
		{Name: "listview", Value: "none"},
		{Name: "ports", Value: strconv.Itoa(FeedbackPorts)},
		{Name: "state", Value: StateValue(hex)},
	}
}

// ReplyModuleInfo get(<module>) 的回复：模块元数据块
func ReplyModuleInfo(objectID int, hex string) string {
	return ReplyAttributes(fmt.Sprintf("get(%d)", objectID), objectID, ModuleAttributes(hex))
}

// ReplyAttributes 以 header 为回复头，逐行列出 attrs
//
// header 是被回复的命令文本，如 "get(100, ports, state)"。
func ReplyAttributes(header string, objectID int, attrs []Attribute) string {
	lines := make([]string, len(attrs))
	for i, a := range attrs {
		lines[i] = a.line(objectID)
	}
	return block("<REPLY "+header+">", lines...)
}

// ReplyQueryPorts queryObjects(<bus>, ports) 的回复：逐个列出模块端口数
//
//	<REPLY queryObjects(26,ports)>
//	100 ports[16]
//	101 ports[16]
//	<END 0 (OK)>
func ReplyQueryPorts(busID int, moduleIDs []int) string {
	lines := make([]string, len(moduleIDs))
	for i, id := range moduleIDs {
		lines[i] = Attribute{Name: "ports", Value: strconv.Itoa(FeedbackPorts)}.line(id)
	}
	return block(fmt.Sprintf("<REPLY queryObjects(%d,ports)>", busID), lines...)
}

// ReplyQueryObjects queryObjects(<bus>) 的回复：逐行列出模块 ID
func ReplyQueryObjects(busID int, moduleIDs []int) string {
	lines := make([]string, len(moduleIDs))
	for i, id := range moduleIDs {
		lines[i] = strconv.Itoa(id)
	}
	return block(fmt.Sprintf("<REPLY queryObjects(%d)>", busID), lines...)
}

// ReplyEmpty 只有回复头和 EndOK 的块
func ReplyEmpty(header string) string {
	return block("<REPLY " + header + ">")
}
