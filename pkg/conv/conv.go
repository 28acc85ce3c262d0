// Package conv 从 YAML/JSON 解析出的 map[string]any 中读取节点配置。
//
// yaml.v3 把整数解析为 int、JSON 解析为 float64，这里统一做兼容。
package conv

import (
	"fmt"
	"strconv"
)

// ToFloat64 将数字类型转为 float64。
func ToFloat64(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case int32:
		return float64(val), true
	default:
		return 0, false
	}
}

// ToInt64 将数字类型转为 int64，小数部分截断。
func ToInt64(v any) (int64, bool) {
	switch val := v.(type) {
	case int:
		return int64(val), true
	case int64:
		return val, true
	case int32:
		return int64(val), true
	case float64:
		return int64(val), true
	case float32:
		return int64(val), true
	default:
		return 0, false
	}
}

// ConfigGet 按 key 取 T，缺失或类型不符时返回 defaultVal。
func ConfigGet[T any](m map[string]any, key string, defaultVal T) T {
	t, ok := m[key].(T)
	if !ok {
		return defaultVal
	}
	return t
}

// ConfigGetInt64 按 key 取整数，缺失或不是数字时返回 defaultVal。
func ConfigGetInt64(m map[string]any, key string, defaultVal int64) int64 {
	if n, ok := ToInt64(m[key]); ok {
		return n
	}
	return defaultVal
}

// ConfigGetFloat64 按 key 取浮点数。缺失时返回 defaultVal；存在但不是数字时报错。
func ConfigGetFloat64(m map[string]any, key string, defaultVal float64) (float64, error) {
	v, ok := m[key]
	if !ok {
		return defaultVal, nil
	}
	f, ok := ToFloat64(v)
	if !ok {
		return 0, fmt.Errorf("%s must be a number, got %T", key, v)
	}
	return f, nil
}

// SliceAnyToString 将 []any 转为 []string。
// 书目 ID 在 YAML 中可能写成数字（如 [101, 102]），此时格式化为整数文本。
func SliceAnyToString(v any) []string {
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, e := range raw {
		switch val := e.(type) {
		case string:
			out = append(out, val)
		default:
			if n, ok := ToInt64(val); ok {
				out = append(out, strconv.FormatInt(n, 10))
			}
		}
	}
	return out
}
