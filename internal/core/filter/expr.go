package filter

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidExpr 范围表达式格式错误
var ErrInvalidExpr = errors.New("invalid range expression")

// Op 比较运算符
type Op string

// 支持的比较运算符，按匹配优先级排列
const (
	OpGE Op = ">="
	OpLE Op = "<="
	OpEQ Op = "=="
	OpLT Op = "<"
	OpGT Op = ">"
)

// opsByPriority 双字符运算符优先于单字符运算符
var opsByPriority = []Op{OpGE, OpLE, OpEQ, OpLT, OpGT}

// Expr 已解析的范围表达式：<op> <整数>
type Expr struct {
	Op    Op
	Value int
}

// ParseExpr 解析范围表达式
//
// 形如 ">=100"、"< 50"、"==5"。运算符无法识别、字面量为空或不是整数时返回 ErrInvalidExpr。
func ParseExpr(s string) (Expr, error) {
	t := strings.TrimSpace(s)
	for _, op := range opsByPriority {
		if !strings.HasPrefix(t, string(op)) {
			continue
		}
		lit := strings.TrimSpace(t[len(op):])
		if lit == "" {
			return Expr{}, fmt.Errorf("%w: %q: missing literal", ErrInvalidExpr, s)
		}
		v, err := strconv.Atoi(lit)
		if err != nil {
			return Expr{}, fmt.Errorf("%w: %q: %v", ErrInvalidExpr, s, err)
		}
		return Expr{Op: op, Value: v}, nil
	}
	return Expr{}, fmt.Errorf("%w: %q: unknown comparator", ErrInvalidExpr, s)
}

// Eval 对 id 求值
func (e Expr) Eval(id int) bool {
	switch e.Op {
	case OpGE:
		return id >= e.Value
	case OpLE:
		return id <= e.Value
	case OpEQ:
		return id == e.Value
	case OpLT:
		return id < e.Value
	case OpGT:
		return id > e.Value
	default:
		return false
	}
}

// String 返回表达式文本
func (e Expr) String() string {
	return string(e.Op) + strconv.Itoa(e.Value)
}
