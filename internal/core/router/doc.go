// Package router 实现网关路由
//
// 三个入口：
//
//   - HandleFrame：控制端帧。对象 26（反馈总线）和 100..131（反馈模块）
//     被拦截并由网关直接回复给发起的会话；其余对象先过对象过滤器，
//     未被过滤的原样转发到站点。
//   - OnMessage：站点消息，原样分发给所有会话。
//   - HandleDeviceLine：反馈设备行。解码后按模块去抖，状态变化时向所有
//     会话发送 EVENT 块，并向推送通道发送 JSON。
//
// Snapshot 返回所有已配置模块的状态块，供会话建立和周期刷新使用。
package router
