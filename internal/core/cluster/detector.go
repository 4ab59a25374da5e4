// Package cluster 实现内部人集群买卖的检测。
// 在回溯窗口内按买卖两侧分别统计去重后的申报人数，
// 当某一侧的申报人数达到阈值时产出集群事件。
package cluster

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"smart-money-radar/internal/core/model"
	"smart-money-radar/internal/util/timeutil"
)

// Detector 集群检测器
type Detector struct {
	// windowDays 回溯窗口天数
	windowDays int
	// minActors 触发集群的最小申报人数
	minActors int
	// logger 日志记录器
	logger *zap.Logger
}

// New 创建集群检测器
// 参数 windowDays: 回溯窗口天数
// 参数 minActors: 触发集群的最小去重申报人数
func New(windowDays, minActors int, logger *zap.Logger) *Detector {
	return &Detector{
		windowDays: windowDays,
		minActors:  minActors,
		logger:     logger.Named("cluster"),
	}
}

// side 单侧（买或卖）的聚合状态
type side struct {
	// actors 去重后的申报人集合
	actors map[string]bool
	// totalValue 名义价值合计
	totalValue float64
	// minDate 最早交易日期
	minDate string
	// maxDate 最晚交易日期
	maxDate string
}

func newSide() *side {
	return &side{actors: make(map[string]bool)}
}

// add 累加一笔交易
func (s *side) add(tx *model.Transaction) {
	s.actors[tx.ReporterName] = true
	s.totalValue += tx.TotalValue
	if s.minDate == "" || tx.TransactionDate < s.minDate {
		s.minDate = tx.TransactionDate
	}
	if tx.TransactionDate > s.maxDate {
		s.maxDate = tx.TransactionDate
	}
}

// dateRange 日期范围描述
// 单日集群直接返回该日期，跨日集群返回 "min to max"。
func (s *side) dateRange() string {
	if s.minDate == s.maxDate {
		return s.minDate
	}
	return s.minDate + " to " + s.maxDate
}

// Detect 检测单个符号的集群事件
// 参数 now: 当前时间，决定回溯窗口
// 参数 txs: 同一符号的交易列表（应已完成补全分类）
// 返回: 集群事件，未检出时为 nil。
// 买卖两侧同时达标时，卖侧仅在名义价值严格更大时胜出，
// 否则保留买侧（买入集群是更强的信号）。
func (d *Detector) Detect(now time.Time, txs []model.Transaction) *model.ClusterEvent {
	if len(txs) == 0 {
		return nil
	}

	buys := newSide()
	sells := newSide()

	for i := range txs {
		tx := &txs[i]
		if !timeutil.InWindow(tx.TransactionDate, now, d.windowDays) {
			continue
		}
		switch {
		case tx.IsBuy():
			buys.add(tx)
		case tx.IsSell():
			sells.add(tx)
		}
	}

	buyHit := len(buys.actors) >= d.minActors
	sellHit := len(sells.actors) >= d.minActors

	var winner *side
	var direction model.Direction
	switch {
	case buyHit && sellHit:
		if sells.totalValue > buys.totalValue {
			winner, direction = sells, model.DirectionClusterSell
		} else {
			winner, direction = buys, model.DirectionClusterBuy
		}
	case buyHit:
		winner, direction = buys, model.DirectionClusterBuy
	case sellHit:
		winner, direction = sells, model.DirectionClusterSell
	default:
		return nil
	}

	event := &model.ClusterEvent{
		Symbol:       txs[0].Symbol,
		CompanyName:  txs[0].CompanyName,
		ActivityType: direction,
		InsiderCount: len(winner.actors),
		TotalValue:   winner.totalValue,
		DateRange:    winner.dateRange(),
		Insiders:     sortedActors(winner.actors),
		Urgency:      urgency(len(winner.actors)),
	}

	d.logger.Debug("检出内部人集群",
		zap.String("symbol", event.Symbol),
		zap.String("direction", string(direction)),
		zap.Int("insiders", event.InsiderCount),
		zap.Float64("total_value", event.TotalValue))

	return event
}

// DetectAll 按符号分组检测集群事件
// 分组保持输入中符号的首次出现顺序，输出顺序与之一致。
func (d *Detector) DetectAll(now time.Time, txs []model.Transaction) []model.ClusterEvent {
	groups := make(map[string][]model.Transaction)
	order := make([]string, 0)
	for i := range txs {
		sym := txs[i].Symbol
		if _, ok := groups[sym]; !ok {
			order = append(order, sym)
		}
		groups[sym] = append(groups[sym], txs[i])
	}

	events := make([]model.ClusterEvent, 0)
	for _, sym := range order {
		if ev := d.Detect(now, groups[sym]); ev != nil {
			events = append(events, *ev)
		}
	}
	return events
}

// urgency 根据申报人数计算紧迫度
// 4 人及以上为 critical，3 人为 high，否则 moderate。
func urgency(actorCount int) model.Urgency {
	switch {
	case actorCount >= 4:
		return model.UrgencyCritical
	case actorCount >= 3:
		return model.UrgencyHigh
	default:
		return model.UrgencyModerate
	}
}

// sortedActors 申报人集合排序后输出，保证事件内容可复现
func sortedActors(actors map[string]bool) []string {
	names := make([]string, 0, len(actors))
	for name := range actors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
