// Package timeutil 提供交易日期相关的工具函数。
// 上游申报数据以 2006-01-02 格式的日期字符串传递，
// 该格式的字典序与时间序一致，排序时可直接按字符串比较。
package timeutil

import "time"

// DateLayout 交易日期格式
const DateLayout = "2006-01-02"

// ParseDate 解析交易日期字符串
// 参数 s: 日期字符串，如 "2024-01-15"
// 返回: 解析后的时间和可能的错误
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// FormatDate 格式化时间为交易日期字符串
// 参数 t: 时间
// 返回: 2006-01-02 格式的日期字符串
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// WindowCutoff 计算回溯窗口的起始时间
// 参数 now: 当前时间
// 参数 days: 回溯天数
// 返回: now 减去 days 天后的时间
func WindowCutoff(now time.Time, days int) time.Time {
	return now.AddDate(0, 0, -days)
}

// NowNano 获取当前时间的纳秒时间戳
func NowNano() int64 {
	return time.Now().UnixNano()
}

// InWindow 判断日期字符串是否落在 [now-days, now] 窗口内
// 无法解析的日期视为窗口外（上游数据不可信，坏日期跳过而非报错）。
// 参数 dateStr: 日期字符串
// 参数 now: 当前时间
// 参数 days: 回溯天数
// 返回: 是否在窗口内
func InWindow(dateStr string, now time.Time, days int) bool {
	t, err := ParseDate(dateStr)
	if err != nil {
		return false
	}
	return !t.Before(WindowCutoff(now, days)) && !t.After(now)
}
