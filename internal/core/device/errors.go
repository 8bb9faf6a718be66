package device

import "errors"

var (
	// ErrDeviceFailure 设备打开或 I/O 失败
	ErrDeviceFailure = errors.New("feedback device failure")

	// ErrNotOpen 设备未打开
	ErrNotOpen = errors.New("device not open")
)
