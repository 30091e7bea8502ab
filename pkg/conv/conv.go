// Package conv 提供 YAML/JSON 配置值与排行榜成员 ID 的类型转换工具。
package conv

import (
	"fmt"
	"strconv"
)

// ToFloat64 将 any 转为 float64。
// 支持 float64、float32、int、int64、int32、uint64。
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
	case uint64:
		return float64(val), true
	default:
		return 0, false
	}
}

// ToInt64 将 any 转为 int64。YAML 解析常得到 int，JSON 解析常得到 float64。
func ToInt64(v any) (int64, bool) {
	switch val := v.(type) {
	case int:
		return int64(val), true
	case int64:
		return val, true
	case int32:
		return int64(val), true
	case uint64:
		return int64(val), true
	case float64:
		return int64(val), true
	case float32:
		return int64(val), true
	default:
		return 0, false
	}
}

// ConfigGet 从 map[string]any（如 YAML/JSON 解析结果）按 key 取 T，取不到或类型不符时返回 defaultVal。
func ConfigGet[T any](m map[string]any, key string, defaultVal T) T {
	if m == nil {
		return defaultVal
	}
	v, ok := m[key]
	if !ok {
		return defaultVal
	}
	t, ok := v.(T)
	if !ok {
		return defaultVal
	}
	return t
}

// ConfigGetInt 从 config 取 int，兼容 int / int64 / float64。
func ConfigGetInt(m map[string]any, key string, defaultVal int) int {
	if m == nil {
		return defaultVal
	}
	if n, ok := ToInt64(m[key]); ok {
		return int(n)
	}
	return defaultVal
}

// SliceAnyToInt64 将 []any 转为 []int64，无法转换的元素被跳过；v 不是切片时返回 nil。
func SliceAnyToInt64(v any) []int64 {
	switch arr := v.(type) {
	case []int64:
		return arr
	case []any:
		out := make([]int64, 0, len(arr))
		for _, x := range arr {
			if n, ok := ToInt64(x); ok {
				out = append(out, n)
			}
		}
		return out
	default:
		return nil
	}
}

// MemberID 把歌曲 ID 转为排行榜成员名。
func MemberID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// ParseMemberID 把排行榜成员名还原为歌曲 ID。
func ParseMemberID(member string) (int64, error) {
	id, err := strconv.ParseInt(member, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse member %q: %w", member, err)
	}
	return id, nil
}
