// Package alert 实现交易与集群信号的告警聚合。
// 将达到名义价值门槛的交易和检出的集群事件合并为一条按时间
// 降序排列的告警流，并在截断前统计多空信号得出整体情绪。
package alert

import (
	"fmt"
	"sort"
	"strings"

	"smart-money-radar/internal/core/model"
	"smart-money-radar/internal/util/fastparse"
)

// 告警来源标签
const (
	// SourceForm4 单笔申报告警来源
	SourceForm4 = "SEC Form 4"
	// SourceForm4Analysis 集群分析告警来源
	SourceForm4Analysis = "SEC Form 4 Analysis"
)

// Feed 聚合后的告警流
// Bullish/Bearish 在截断前统计，反映全量信号而非可见页。
type Feed struct {
	// Alerts 截断后的告警列表
	Alerts []model.Alert `json:"alerts"`
	// Bullish 全量看多信号数
	Bullish int `json:"bullish"`
	// Bearish 全量看空信号数
	Bearish int `json:"bearish"`
	// Sentiment 整体情绪: bullish / bearish / neutral
	Sentiment model.SignalLabel `json:"sentiment"`
}

// Aggregate 聚合交易与集群为告警流
// 参数 txs: 补全分类后的交易
// 参数 clusters: 检出的集群事件
// 参数 minNotional: 交易告警的名义价值门槛（集群告警不受门槛限制）
// 参数 limit: 告警流最大条数
// 排序按时间戳降序，相同时间戳保持插入顺序，重复调用结果一致。
func Aggregate(txs []model.Transaction, clusters []model.ClusterEvent, minNotional float64, limit int) Feed {
	alerts := make([]model.Alert, 0, len(txs)+len(clusters))

	for i := range txs {
		if txs[i].TotalValue >= minNotional {
			alerts = append(alerts, FromTransaction(&txs[i]))
		}
	}
	for i := range clusters {
		alerts = append(alerts, FromCluster(&clusters[i]))
	}

	sort.SliceStable(alerts, func(i, j int) bool {
		// 日期串字典序与时间序一致
		return alerts[i].Timestamp > alerts[j].Timestamp
	})

	var bullish, bearish int
	for i := range alerts {
		switch alerts[i].Signal {
		case model.SignalBullish:
			bullish++
		case model.SignalBearish:
			bearish++
		}
	}

	if limit > 0 && len(alerts) > limit {
		alerts = alerts[:limit]
	}

	return Feed{
		Alerts:    alerts,
		Bullish:   bullish,
		Bearish:   bearish,
		Sentiment: sentiment(bullish, bearish),
	}
}

// FromTransaction 由单笔交易构造告警
func FromTransaction(tx *model.Transaction) model.Alert {
	verb := "moved"
	signal := model.SignalNeutral
	switch {
	case tx.IsBuy():
		verb = "bought"
		signal = model.SignalBullish
	case tx.IsSell():
		verb = "sold"
		signal = model.SignalBearish
	}

	noun := "transaction"
	switch signal {
	case model.SignalBullish:
		noun = "purchase"
	case model.SignalBearish:
		noun = "sale"
	}

	magnitude := tx.SignalStrength()

	return model.Alert{
		AlertType: model.AlertInsider,
		Symbol:    tx.Symbol,
		Headline: fmt.Sprintf("%s %s $%s of %s",
			tx.ReporterName, verb, fastparse.FormatValue(tx.TotalValue), tx.Symbol),
		Description: fmt.Sprintf("%s %s executed a %s %s",
			tx.ReporterTitle, tx.ReporterName, magnitude, noun),
		Signal:    signal,
		Magnitude: string(magnitude),
		Timestamp: tx.TransactionDate,
		Source:    SourceForm4,
		Details:   tx,
	}
}

// FromCluster 由集群事件构造告警
// 集群告警的量级由紧迫度映射：critical 为 massive，其余为 large。
func FromCluster(c *model.ClusterEvent) model.Alert {
	action, verb := "SELL", "sold"
	signal := model.SignalBearish
	if c.IsBuy() {
		action, verb = "BUY", "bought"
		signal = model.SignalBullish
	}

	magnitude := string(model.MagnitudeLarge)
	if c.Urgency == model.UrgencyCritical {
		magnitude = string(model.MagnitudeMassive)
	}

	return model.Alert{
		AlertType: model.AlertCluster,
		Symbol:    c.Symbol,
		Headline: fmt.Sprintf("CLUSTER %s: %d insiders acted on %s",
			action, c.InsiderCount, c.Symbol),
		Description: fmt.Sprintf("%s collectively %s $%s",
			insiderSummary(c.Insiders), verb, fastparse.FormatValue(c.TotalValue)),
		Signal:    signal,
		Magnitude: magnitude,
		Timestamp: c.LatestDate(),
		Source:    SourceForm4Analysis,
		Details:   c,
	}
}

// insiderSummary 内部人名单摘要，最多列出 3 人
func insiderSummary(names []string) string {
	if len(names) <= 3 {
		return strings.Join(names, ", ")
	}
	return strings.Join(names[:3], ", ") + "..."
}

// sentiment 多空计数映射为整体情绪
func sentiment(bullish, bearish int) model.SignalLabel {
	switch {
	case bullish > bearish:
		return model.SignalBullish
	case bearish > bullish:
		return model.SignalBearish
	default:
		return model.SignalNeutral
	}
}
