// Package filter 实现对象过滤规则
//
// 决定一条控制端命令是否可以转发到站点。规则由配置提供，运行期只读。
package filter

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/dep2p/go-ecosgate/config"
	"github.com/dep2p/go-ecosgate/internal/util/logger"
	"github.com/dep2p/go-ecosgate/pkg/ecos"
)

var log = logger.Logger("filter")

// ErrFilterRejected 命令被过滤规则拒绝
var ErrFilterRejected = errors.New("filtered by object rule")

// Rule 过滤规则
type Rule struct {
	// Enabled 是否启用
	Enabled bool
	// ObjectIDs 显式过滤的对象 ID
	ObjectIDs []int
	// Ranges 范围表达式原文
	Ranges []string
}

// RuleFromConfig 由配置构造规则
func RuleFromConfig(cfg config.FilterConfig) *Rule {
	return &Rule{
		Enabled:   cfg.Enabled,
		ObjectIDs: slices.Clone(cfg.ObjectIDs),
		Ranges:    slices.Clone(cfg.ObjectIDRanges),
	}
}

// IsFiltered 判断命令是否应被过滤
//
// 规则为空或未启用时不过滤；对象 ID 无法解析（-1）时总是过滤；
// 在显式列表中时过滤；否则按顺序求值范围表达式，第一个可识别的表达式
// 直接决定结果（首个匹配即返回，而非所有表达式取与）。格式错误的表达式
// 记录警告后跳过。
func IsFiltered(rule *Rule, cmd *ecos.Command) bool {
	if rule == nil || !rule.Enabled || cmd == nil {
		return false
	}

	id := cmd.ObjectID
	if id == -1 {
		return true
	}
	if slices.Contains(rule.ObjectIDs, id) {
		return true
	}

	for _, raw := range rule.Ranges {
		expr, err := ParseExpr(raw)
		if err != nil {
			log.Warn("跳过无效的范围表达式", "expr", raw, "err", err)
			continue
		}
		return expr.Eval(id)
	}
	return false
}

// Filter 预编译的过滤器
//
// 构造时解析一次范围表达式，格式错误的表达式记录一次警告并丢弃，
// 求值语义与 IsFiltered 相同。
type Filter struct {
	enabled bool
	ids     map[int]struct{}
	exprs   []Expr
	log     *slog.Logger
}

// Option 过滤器选项
type Option func(*Filter)

// WithLogger 替换构造期警告使用的 Logger
func WithLogger(l *slog.Logger) Option {
	return func(f *Filter) {
		if l != nil {
			f.log = l
		}
	}
}

// New 由规则构造过滤器；rule 为 nil 时返回不过滤任何命令的过滤器
func New(rule *Rule, opts ...Option) *Filter {
	f := &Filter{ids: make(map[int]struct{}), log: log}
	for _, opt := range opts {
		opt(f)
	}
	if rule == nil {
		return f
	}

	f.enabled = rule.Enabled
	for _, id := range rule.ObjectIDs {
		f.ids[id] = struct{}{}
	}
	for _, raw := range rule.Ranges {
		expr, err := ParseExpr(raw)
		if err != nil {
			f.log.Warn("跳过无效的范围表达式", "expr", raw, "err", err)
			continue
		}
		f.exprs = append(f.exprs, expr)
	}

	if f.enabled {
		f.log.Info("对象过滤已启用", "ids", len(f.ids), "ranges", len(f.exprs))
	}
	return f
}

// Enabled 过滤器是否启用
func (f *Filter) Enabled() bool {
	return f.enabled
}

// IsFiltered 判断命令是否应被过滤
func (f *Filter) IsFiltered(cmd *ecos.Command) bool {
	if !f.enabled || cmd == nil {
		return false
	}

	id := cmd.ObjectID
	if id == -1 {
		return true
	}
	if _, ok := f.ids[id]; ok {
		return true
	}
	if len(f.exprs) > 0 {
		return f.exprs[0].Eval(id)
	}
	return false
}

// Check 被过滤时返回包装了 ErrFilterRejected 的错误
func (f *Filter) Check(cmd *ecos.Command) error {
	if f.IsFiltered(cmd) {
		return fmt.Errorf("%w: object %d", ErrFilterRejected, cmd.ObjectID)
	}
	return nil
}
