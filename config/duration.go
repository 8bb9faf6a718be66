package config

import (
	"encoding/json"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration 是支持字符串解析的 time.Duration 包装类型
//
// 支持的格式:
//   - 字符串: "30s", "2.5s", "120ms" 等
//   - 数字: 纳秒数
//
// 使用示例:
//
//	// JSON: {"refreshInterval": "2.5s"} 或 {"refreshInterval": 2500000000}
//	// YAML: refreshInterval: 2.5s
type Duration time.Duration

// parseDurationString 解析字符串形式
func parseDurationString(s string) (Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration string %q: %w", s, err)
	}
	return Duration(d), nil
}

// UnmarshalJSON 实现 json.Unmarshaler 接口
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		v, err := parseDurationString(s)
		if err != nil {
			return err
		}
		*d = v
		return nil
	}

	var n int64
	if err := json.Unmarshal(data, &n); err == nil {
		*d = Duration(n)
		return nil
	}

	return fmt.Errorf("duration must be a string (e.g., \"30s\") or number (nanoseconds)")
}

// MarshalJSON 实现 json.Marshaler 接口，输出人类可读的字符串
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalYAML 实现 yaml.Unmarshaler 接口
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("duration must be a scalar, got yaml kind %d", value.Kind)
	}

	var n int64
	if value.Tag == "!!int" {
		if err := value.Decode(&n); err != nil {
			return err
		}
		*d = Duration(n)
		return nil
	}

	v, err := parseDurationString(value.Value)
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// MarshalYAML 实现 yaml.Marshaler 接口
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration 返回底层的 time.Duration 值
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// String 返回字符串表示
func (d Duration) String() string {
	return time.Duration(d).String()
}

// Millis 以毫秒为默认单位的时长
//
// 字符串格式与 Duration 相同；裸数字按毫秒解析（{"on": 100} 即 100ms），
// 与旧版配置文件中的去抖参数保持一致。
type Millis time.Duration

// UnmarshalJSON 实现 json.Unmarshaler 接口
func (m *Millis) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		v, err := parseDurationString(s)
		if err != nil {
			return err
		}
		*m = Millis(v)
		return nil
	}

	var n int64
	if err := json.Unmarshal(data, &n); err == nil {
		*m = Millis(time.Duration(n) * time.Millisecond)
		return nil
	}

	return fmt.Errorf("duration must be a string (e.g., \"100ms\") or number (milliseconds)")
}

// MarshalJSON 实现 json.Marshaler 接口
func (m Millis) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(m).String())
}

// UnmarshalYAML 实现 yaml.Unmarshaler 接口
func (m *Millis) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("duration must be a scalar, got yaml kind %d", value.Kind)
	}

	if value.Tag == "!!int" {
		var n int64
		if err := value.Decode(&n); err != nil {
			return err
		}
		*m = Millis(time.Duration(n) * time.Millisecond)
		return nil
	}

	v, err := parseDurationString(value.Value)
	if err != nil {
		return err
	}
	*m = Millis(v)
	return nil
}

// MarshalYAML 实现 yaml.Marshaler 接口
func (m Millis) MarshalYAML() (interface{}, error) {
	return time.Duration(m).String(), nil
}

// Duration 返回底层的 time.Duration 值
func (m Millis) Duration() time.Duration {
	return time.Duration(m)
}

// String 返回字符串表示
func (m Millis) String() string {
	return time.Duration(m).String()
}
