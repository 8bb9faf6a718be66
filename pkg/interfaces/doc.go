// Package interfaces 定义 ecosgate 的公共接口
//
// 组件之间只通过这里的接口互相引用，具体实现位于 internal/core：
//   - eventbus.go   - 事件总线
//   - station.go    - 站点链路与连接观察者
//   - listener.go   - 控制端会话广播
//   - broadcast.go  - 被动观察者推送通道
//   - device.go     - 反馈设备行数据源
package interfaces
