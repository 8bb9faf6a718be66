// Package types 定义 ecosgate 公共类型
//
// 本文件定义事件相关类型。
package types

import (
	"time"
)

// ============================================================================
//                              Event - 事件接口
// ============================================================================

// Event 基础事件接口
type Event interface {
	// Type 返回事件类型
	Type() string

	// Timestamp 返回事件时间戳
	Timestamp() time.Time
}

// BaseEvent 基础事件实现
type BaseEvent struct {
	EventType string
	Time      time.Time
}

// Type 返回事件类型
func (e BaseEvent) Type() string {
	return e.EventType
}

// Timestamp 返回事件时间戳
func (e BaseEvent) Timestamp() time.Time {
	return e.Time
}

// NewBaseEvent 创建基础事件
func NewBaseEvent(eventType string) BaseEvent {
	return BaseEvent{
		EventType: eventType,
		Time:      time.Now(),
	}
}

// 事件类型名称
const (
	EventTypeStationState    = "station.state"
	EventTypeDeviceOpened    = "device.opened"
	EventTypeDeviceFailed    = "device.failed"
	EventTypeSessionOpened   = "session.opened"
	EventTypeSessionClosed   = "session.closed"
	EventTypeFeedbackChanged = "feedback.changed"
)

// ============================================================================
//                              站点事件
// ============================================================================

// EvtStationState 站点连接状态变化事件
//
// 进入 ConnStateFailed 时 Err 携带导致失败的 I/O 错误。
type EvtStationState struct {
	BaseEvent
	Addr     string
	Previous ConnState
	Current  ConnState
	Err      error
}

// NewEvtStationState 创建站点状态事件
func NewEvtStationState(addr string, prev, cur ConnState, err error) EvtStationState {
	return EvtStationState{
		BaseEvent: NewBaseEvent(EventTypeStationState),
		Addr:      addr,
		Previous:  prev,
		Current:   cur,
		Err:       err,
	}
}

// ============================================================================
//                              设备事件
// ============================================================================

// EvtDeviceOpened 反馈设备已打开
type EvtDeviceOpened struct {
	BaseEvent
	Source string
}

// EvtDeviceFailed 反馈设备失败
//
// 设备失败对反馈功能是致命的，网关其余功能继续运行。
type EvtDeviceFailed struct {
	BaseEvent
	Source string
	Err    error
}

// ============================================================================
//                              会话事件
// ============================================================================

// EvtSessionOpened 控制端会话已建立
type EvtSessionOpened struct {
	BaseEvent
	SessionID  string
	RemoteAddr string
}

// EvtSessionClosed 控制端会话已关闭
type EvtSessionClosed struct {
	BaseEvent
	SessionID  string
	RemoteAddr string
	Err        error
}

// ============================================================================
//                              反馈事件
// ============================================================================

// EvtFeedbackChanged 反馈模块状态发生了去抖后的变化
type EvtFeedbackChanged struct {
	BaseEvent
	ObjectID int
	Port     int
	Hex      string
	Binary   string
}
