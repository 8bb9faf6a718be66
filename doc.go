// Package ecosgate 提供 ECoS 指令站与 Rocrail 之间的协议网关
//
// 网关对控制端（Rocrail）伪装成一台 ECoS：控制端发来的命令原样转发到真实
// 站点，站点的回复与事件原样广播给所有控制端；HSI-88-USB 反馈设备的触点
// 状态经过去抖后，以 ECoS 反馈模块（对象 100..131）的形式呈现给控制端，
// 针对反馈总线（对象 26）和这些模块的查询由网关本地应答。
//
// # 核心概念
//
//   - Gateway: 网关实例，由配置构建，显式创建和销毁（无全局单例）
//   - Station: 与 ECoS 的 TCP 连接，断开后自动探测并重连
//   - Session: 一个控制端连接，按配置周期重发完整反馈快照
//   - Module: 一个 16 触点的反馈模块，带开/关两个去抖阈值
//
// # 快速开始
//
//	cfg, err := config.Load("ecosgate.json")
//	if err != nil {
//	    return err
//	}
//
//	gw, err := ecosgate.New(cfg)
//	if err != nil {
//	    return err
//	}
//	if err := gw.Start(ctx); err != nil {
//	    return err
//	}
//	defer gw.Close()
//
// # 组件结构
//
//	┌──────────────┐      ┌──────────────┐      ┌──────────────┐
//	│   listener   │ ───▶ │    router    │ ───▶ │   station    │
//	│  (控制端会话) │ ◀─── │ (拦截/过滤)   │ ◀─── │  (ECoS 连接)  │
//	└──────────────┘      └──────────────┘      └──────────────┘
//	                             ▲
//	                             │
//	      ┌──────────────┐  ┌──────────────┐  ┌──────────────┐
//	      │    device    │─▶│   feedback   │  │  broadcast   │
//	      │ (HSI-88/模拟) │  │  (去抖模块池)  │  │ (WebSocket)  │
//	      └──────────────┘  └──────────────┘  └──────────────┘
//
// # 文件组织
//
//   - ecosgate.go: 版本信息
//   - gateway.go: Gateway 结构与访问器
//   - gateway_lifecycle.go: Start/Stop/Close
//   - fx.go: Fx 模块装配
//   - options.go: 构建选项
//   - errors.go: 公共错误
package ecosgate
