package model

// AlertType 告警来源类型
type AlertType string

const (
	// AlertInsider 单笔内部人交易告警
	AlertInsider AlertType = "insider"
	// AlertCluster 集群事件告警
	AlertCluster AlertType = "cluster"
)

// SignalLabel 告警信号方向
// 买入 => bullish，卖出 => bearish，其余（如股权授予）=> neutral，
// 该映射是严格函数，不允许其他组合。
type SignalLabel string

const (
	// SignalBullish 看多信号
	SignalBullish SignalLabel = "bullish"
	// SignalBearish 看空信号
	SignalBearish SignalLabel = "bearish"
	// SignalNeutral 中性信号
	SignalNeutral SignalLabel = "neutral"
)

// Alert 聚合告警
// 聚合器与投影器操作的统一单元，由交易或集群事件派生。
type Alert struct {
	// AlertType 来源类型: insider 或 cluster
	AlertType AlertType `json:"alert_type"`
	// Symbol 股票代码
	Symbol string `json:"symbol"`
	// Headline 标题
	Headline string `json:"headline"`
	// Description 描述
	Description string `json:"description"`
	// Signal 信号方向: bullish, bearish, neutral
	Signal SignalLabel `json:"signal"`
	// Magnitude 量级，继承自来源（交易的量级等级或集群紧迫度映射）
	Magnitude string `json:"magnitude"`
	// Timestamp 时间戳：交易日期或集群最晚日期，格式 2006-01-02
	Timestamp string `json:"timestamp"`
	// Source 来源标签，如 "SEC Form 4"
	Source string `json:"source"`
	// Details 原始载荷（来源 Transaction 或 ClusterEvent）
	Details any `json:"details,omitempty"`
}
