// Package fastparse 提供容错的数值解析函数。
// 上游申报接口的股数和价格字段可能缺失、为空串或非数值，
// 解析失败统一按 0 处理，保证单条坏记录不会中断整批分类。
package fastparse

import (
	"encoding/json"
	"strconv"
)

// MustParseFloat 解析浮点数，失败时返回 0
// 用于上游不可信字段：缺失或非数值按 0 处理
// 参数 s: 待解析的字符串
// 返回: 解析后的浮点数，失败返回 0
func MustParseFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// ToFloat 容错地把 JSON 解码后的值转为浮点数
// 上游偶尔把数值编码为字符串，float64、字符串与 json.Number 都接受，
// 其余类型按 0 处理。
// 参数 v: JSON 解码后的任意值
// 返回: 转换后的浮点数
func ToFloat(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case string:
		return MustParseFloat(x)
	case json.Number:
		return MustParseFloat(x.String())
	default:
		return 0
	}
}

// FormatValue 格式化美元名义价值为千分位字符串
// 用于告警标题，如 1234567.8 -> "1,234,568"
// 参数 v: 名义价值
// 返回: 千分位分隔的整数字符串
func FormatValue(v float64) string {
	if v < 0 {
		v = -v
	}
	s := strconv.FormatFloat(v, 'f', 0, 64)
	n := len(s)
	if n <= 3 {
		return s
	}
	out := make([]byte, 0, n+n/3)
	lead := n % 3
	if lead > 0 {
		out = append(out, s[:lead]...)
	}
	for i := lead; i < n; i += 3 {
		if len(out) > 0 {
			out = append(out, ',')
		}
		out = append(out, s[i:i+3]...)
	}
	return string(out)
}
