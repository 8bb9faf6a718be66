package feedback

import (
	"strconv"
	"strings"
)

const (
	// Pins 每个模块的引脚数
	Pins = 16
	// HexDigits 状态的十六进制位数
	HexDigits = Pins / 4
)

// zeroHex 初始状态
const zeroHex = "0000"

// NormalizeHex 校验并规范化十六进制状态
//
// 必须恰好 4 个十六进制字符，返回大写形式。
func NormalizeHex(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) != HexDigits {
		return "", false
	}
	if _, err := strconv.ParseUint(s, 16, 16); err != nil {
		return "", false
	}
	return strings.ToUpper(s), true
}

// ToBinary 十六进制 → 二进制字符串，每位十六进制展开为 4 位，MSB 在前
//
//	"F0"   → "11110000"
//	"022C" → "0000001000101100"
//
// 非十六进制字符按 0 处理。
func ToBinary(hex string) string {
	var sb strings.Builder
	sb.Grow(len(hex) * 4)
	for _, c := range hex {
		v, err := strconv.ParseUint(string(c), 16, 8)
		if err != nil {
			v = 0
		}
		b := strconv.FormatUint(v, 2)
		sb.WriteString(strings.Repeat("0", 4-len(b)))
		sb.WriteString(b)
	}
	return sb.String()
}

// ToHex 二进制字符串 → 大写十六进制，每 4 位一个字符，不足 4 位的尾部忽略
//
//	"11111111"         → "FF"
//	"0000001000101100" → "022C"
func ToHex(bin string) string {
	var sb strings.Builder
	for i := 0; i+4 <= len(bin); i += 4 {
		v, err := strconv.ParseUint(bin[i:i+4], 2, 8)
		if err != nil {
			v = 0
		}
		sb.WriteString(strings.ToUpper(strconv.FormatUint(v, 16)))
	}
	return sb.String()
}
