package ecos

import "errors"

var (
	errUnbalancedBracket = errors.New("unbalanced bracket")
	errUnbalancedQuote   = errors.New("unbalanced quote")
)

// splitTopLevel 按顶层逗号切分 s
//
// 方括号内和双引号内的逗号不切分，嵌套方括号按深度计数。
// 片段不做 trim，也不丢弃空片段，由调用方决定。
func splitTopLevel(s string) ([]string, error) {
	var (
		parts   []string
		depth   int
		inQuote bool
		start   int
	)

	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '"':
			inQuote = !inQuote
		case inQuote:
		case c == '[':
			depth++
		case c == ']':
			depth--
			if depth < 0 {
				return nil, errUnbalancedBracket
			}
		case c == ',' && depth == 0:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}

	if inQuote {
		return nil, errUnbalancedQuote
	}
	if depth != 0 {
		return nil, errUnbalancedBracket
	}
	return append(parts, s[start:]), nil
}

// isQuoted 是否被一对双引号包围
func isQuoted(s string) bool {
	return len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"'
}
