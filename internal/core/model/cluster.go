package model

// Direction 集群方向
type Direction string

const (
	// DirectionClusterBuy 集群买入
	DirectionClusterBuy Direction = "cluster_buy"
	// DirectionClusterSell 集群卖出
	DirectionClusterSell Direction = "cluster_sell"
)

// Urgency 集群紧迫度
// 由参与的去重内部人数量决定：>=4 critical，>=3 high，否则 moderate
type Urgency string

const (
	// UrgencyCritical 4 人及以上
	UrgencyCritical Urgency = "critical"
	// UrgencyHigh 3 人
	UrgencyHigh Urgency = "high"
	// UrgencyModerate 达到最小人数但不足 3 人
	UrgencyModerate Urgency = "moderate"
)

// ClusterEvent 集群事件
// 多名内部人在回溯窗口内同向交易时生成；由贡献交易派生，不独立持久化。
// 每次检测至多报告一个方向：双向同时满足时取聚合名义价值更大的一侧。
type ClusterEvent struct {
	// Symbol 股票代码
	Symbol string `json:"symbol"`
	// CompanyName 公司名称
	CompanyName string `json:"company_name"`
	// ActivityType 集群方向: cluster_buy 或 cluster_sell
	ActivityType Direction `json:"activity_type"`
	// InsiderCount 去重后的内部人数量（非交易笔数）
	InsiderCount int `json:"insider_count"`
	// TotalValue 该方向所有贡献交易的名义价值之和
	TotalValue float64 `json:"total_value"`
	// DateRange 贡献交易的日期范围，如 "2024-01-15 to 2024-01-20"
	DateRange string `json:"date_range"`
	// Insiders 贡献交易的内部人姓名（去重）
	Insiders []string `json:"insiders"`
	// Urgency 紧迫度
	Urgency Urgency `json:"urgency"`
}

// IsBuy 判断是否为买入集群
func (c *ClusterEvent) IsBuy() bool {
	return c.ActivityType == DirectionClusterBuy
}

// LatestDate 获取日期范围中的最晚日期
// 用作集群告警的时间戳
func (c *ClusterEvent) LatestDate() string {
	const sep = " to "
	for i := len(c.DateRange) - len(sep); i >= 0; i-- {
		if c.DateRange[i:i+len(sep)] == sep {
			return c.DateRange[i+len(sep):]
		}
	}
	return c.DateRange
}
