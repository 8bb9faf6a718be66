// Package ecos 实现 ECoS 文本协议的命令编解码
//
// 控制端与站点之间的线路格式是以 CRLF 结束的 ASCII 行：
//
//	命令：   name(arg0, arg1, ...)
//	回复块： <REPLY ...> / <EVENT ...> 开头，若干负载行，<END code (status)> 结束
//
// 参数形如 name 或 name[p1,p2,...]，方括号和双引号内的逗号不作为分隔符。
//
// # 主要入口
//
//   - Parse:      一行文本 → *Command
//   - Assembler:  站点行流 → 完整的多行消息
//   - reply.go:   网关本地合成的回复块（反馈模块元数据、状态事件、端口枚举）
//
// 本包无副作用、无内部依赖，可被任何组件直接使用。
package ecos
