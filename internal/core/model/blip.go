package model

// RadarBlip 雷达光点
// 告警在有界极坐标空间中的可视化表示，仅输出不存储：
// 角度是显示约定（均匀分布），不携带时间或量级含义；
// 距离与量级成反比（越大越靠近圆心），该反转是刻意设计。
type RadarBlip struct {
	// Symbol 股票代码
	Symbol string `json:"symbol"`
	// Angle 角度，[0, 360)
	Angle float64 `json:"angle"`
	// Distance 距圆心距离，[0, 1]
	Distance float64 `json:"distance"`
	// Strength 信号强度，[0, 1]
	Strength float64 `json:"strength"`
	// Label 展示文本（告警标题）
	Label string `json:"label"`
	// Color 展示颜色，按信号方向取固定色值
	Color string `json:"color"`
	// Type 来源类型: insider 或 cluster
	Type AlertType `json:"type"`
	// Signal 信号方向
	Signal SignalLabel `json:"signal"`
	// Timestamp 来源告警的时间戳
	Timestamp string `json:"timestamp"`
}
