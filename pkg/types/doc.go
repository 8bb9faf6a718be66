// Package types 定义 ecosgate 的公共数据结构
//
// 这是整个系统的最底层包，不依赖任何其他 ecosgate 内部包。
// 所有类型都是纯值类型，用于在各模块间传递数据。
//
// # 文件组织
//
//   - enums.go   - ConnState, FrameOutcome
//   - events.go  - 事件总线上发布的事件类型
package types
