package ecos

import (
	"strconv"
	"strings"
)

// ============================================================================
//                              Argument - 命令参数
// ============================================================================

// Argument 命令参数：名称加可选的方括号参数列表
//
//	state          → Name="state"
//	name["ICE 1"]  → Name="name", Params=["ICE 1"]
type Argument struct {
	Name   string
	Params []string

	// bracketed 线路上是否带方括号（name[] 与 name 区分）
	bracketed bool
	// stripped 解析时各参数是否去掉了两侧引号，序列化时原样加回
	stripped []bool
}

// HasParams 参数是否带方括号部分
func (a Argument) HasParams() bool {
	return a.bracketed
}

// String 序列化为线路文本
func (a Argument) String() string {
	if !a.bracketed {
		return a.Name
	}

	var sb strings.Builder
	sb.WriteString(a.Name)
	sb.WriteByte('[')
	for i, p := range a.Params {
		if i > 0 {
			sb.WriteByte(',')
		}
		if i < len(a.stripped) && a.stripped[i] {
			sb.WriteByte('"')
			sb.WriteString(p)
			sb.WriteByte('"')
			continue
		}
		sb.WriteString(p)
	}
	sb.WriteByte(']')
	return sb.String()
}

// parseArgument 解析单个参数片段（已 trim）
func parseArgument(token string, keepQuotes bool) (Argument, string) {
	open := strings.IndexByte(token, '[')
	if open < 0 {
		if !isQuoted(token) && strings.ContainsAny(token, "]()") {
			return Argument{}, "unexpected character"
		}
		return Argument{Name: token}, ""
	}

	name := strings.TrimSpace(token[:open])
	if name == "" {
		return Argument{}, "empty argument name"
	}
	if strings.ContainsAny(name, "()\"") {
		return Argument{}, "unexpected character in argument name"
	}
	if !strings.HasSuffix(token, "]") {
		return Argument{}, "text after ']'"
	}

	inner := token[open+1 : len(token)-1]
	arg := Argument{Name: name, bracketed: true}
	if strings.TrimSpace(inner) == "" {
		return arg, ""
	}

	raw, err := splitTopLevel(inner)
	if err != nil {
		return Argument{}, err.Error()
	}
	for _, p := range raw {
		p = strings.TrimSpace(p)
		strip := isQuoted(p) && !keepQuotes
		if strip {
			p = p[1 : len(p)-1]
		}
		arg.Params = append(arg.Params, p)
		arg.stripped = append(arg.stripped, strip)
	}
	return arg, ""
}

// ============================================================================
//                              Command - 已解析的帧
// ============================================================================

// Command 已解析的协议帧，解析后不可修改
type Command struct {
	Kind Kind
	Name string
	// ObjectID 第一个参数名的整数值；缺失或非数字时为 -1
	ObjectID int
	// Args 线路顺序的参数列表，第一个参数通常是对象 ID
	Args []Argument
	// Raw 原始文本
	Raw string
}

// ParseOption 解析选项
type ParseOption func(*parseOptions)

type parseOptions struct {
	keepQuotes bool
}

// WithKeepQuotes 保留参数两侧的双引号
func WithKeepQuotes() ParseOption {
	return func(o *parseOptions) {
		o.keepQuotes = true
	}
}

// Parse 解析一行命令文本
//
// 要求至少一个 '(' 和一个 ')'，且最后一个非空白字符是 ')'。
// 任一参数解析失败则整条命令失败，错误中带出问题片段。
func Parse(raw string, opts ...ParseOption) (*Command, error) {
	var o parseOptions
	for _, opt := range opts {
		opt(&o)
	}

	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, &ParseError{Raw: raw, Reason: "empty frame"}
	}

	open := strings.IndexByte(s, '(')
	if open < 0 || !strings.ContainsRune(s, ')') {
		return nil, &ParseError{Raw: raw, Reason: "missing parenthesis"}
	}
	if s[len(s)-1] != ')' {
		return nil, &ParseError{Raw: raw, Reason: "frame does not end with ')'"}
	}

	name := strings.TrimSpace(s[:open])
	if name == "" {
		return nil, &ParseError{Raw: raw, Reason: "empty command name"}
	}
	if strings.ContainsAny(name, "()[]\"") {
		return nil, &ParseError{Raw: raw, Token: name, Reason: "unexpected character in command name"}
	}

	cmd := &Command{
		Kind:     KindOf(name),
		Name:     name,
		ObjectID: -1,
		Raw:      raw,
	}

	inner := strings.TrimSpace(s[open+1 : len(s)-1])
	if inner == "" {
		return cmd, nil
	}

	tokens, err := splitTopLevel(inner)
	if err != nil {
		return nil, &ParseError{Raw: raw, Token: inner, Reason: err.Error()}
	}

	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		arg, reason := parseArgument(tok, o.keepQuotes)
		if reason != "" {
			return nil, &ParseError{Raw: raw, Token: tok, Reason: reason}
		}
		cmd.Args = append(cmd.Args, arg)
	}

	if len(cmd.Args) > 0 {
		if id, err := strconv.Atoi(cmd.Args[0].Name); err == nil && !cmd.Args[0].bracketed {
			cmd.ObjectID = id
		}
	}
	return cmd, nil
}

// String 序列化为线路文本：name() 或 name(a0, a1, ...)
func (c *Command) String() string {
	if len(c.Args) == 0 {
		return c.Name + "()"
	}
	parts := make([]string, len(c.Args))
	for i, a := range c.Args {
		parts[i] = a.String()
	}
	return c.Name + "(" + strings.Join(parts, ", ") + ")"
}

// HasArgument 是否存在指定名称的参数（大小写敏感）
func (c *Command) HasArgument(name string) bool {
	if name == "" {
		return false
	}
	for _, a := range c.Args {
		if a.Name == name {
			return true
		}
	}
	return false
}

// Argument 返回指定名称的第一个参数
func (c *Command) Argument(name string) (Argument, bool) {
	for _, a := range c.Args {
		if a.Name == name {
			return a, true
		}
	}
	return Argument{}, false
}

// FirstArgument 返回对象 ID 之后的第一个参数名；不存在时返回空串
//
// get(100, state) → "state"
func (c *Command) FirstArgument() string {
	if len(c.Args) < 2 {
		return ""
	}
	return c.Args[1].Name
}

// Options 返回对象 ID 之后的所有参数
func (c *Command) Options() []Argument {
	if len(c.Args) < 2 {
		return nil
	}
	return c.Args[1:]
}
