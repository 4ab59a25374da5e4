// Package tracker 实现聪明钱信号管道的门面。
// 串联数据源、缓存、补全、集群检测、告警聚合与雷达投影，
// 对外暴露读穿缓存的查询接口。上游失败时降级为空结果而非报错。
package tracker

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"smart-money-radar/internal/cache"
	"smart-money-radar/internal/config"
	"smart-money-radar/internal/core/alert"
	"smart-money-radar/internal/core/cluster"
	"smart-money-radar/internal/core/enrich"
	"smart-money-radar/internal/core/model"
	"smart-money-radar/internal/core/radar"
	"smart-money-radar/internal/metrics"
	"smart-money-radar/internal/source"
)

const (
	// perSymbolFetchLimit 符号维度告警扫描单符号拉取条数
	perSymbolFetchLimit = 10
	// marketFetchLimit 全市场扫描拉取条数
	marketFetchLimit = 50
	// defaultAlertLimit 告警流默认条数
	defaultAlertLimit = 20
)

// Summary 雷达快照的信号摘要
type Summary struct {
	// TotalSignals 截断后的告警总数
	TotalSignals int `json:"total_signals"`
	// Bullish 全量看多信号数
	Bullish int `json:"bullish"`
	// Bearish 全量看空信号数
	Bearish int `json:"bearish"`
	// Sentiment 整体情绪
	Sentiment model.SignalLabel `json:"sentiment"`
}

// RadarData 雷达快照
type RadarData struct {
	// Timestamp 快照生成时间，RFC3339
	Timestamp string `json:"timestamp"`
	// Summary 信号摘要
	Summary Summary `json:"summary"`
	// Alerts 告警列表
	Alerts []model.Alert `json:"alerts"`
	// Clusters 其中的集群告警
	Clusters []model.Alert `json:"clusters"`
	// Blips 雷达光点
	Blips []model.RadarBlip `json:"blips"`
}

// Tracker 聪明钱信号管道门面
type Tracker struct {
	// cfg 配置
	cfg *config.Config
	// cache 两层 TTL 缓存
	cache *cache.Cache
	// source 申报数据源
	source source.TransactionSource
	// enricher 交易补全器
	enricher *enrich.Enricher
	// logger 日志记录器
	logger *zap.Logger
	// metrics 指标（可为 nil）
	metrics *metrics.Metrics
	// nowFn 当前时间函数，测试时可替换
	nowFn func() time.Time
}

// New 创建信号管道门面
// 参数 cfg: 配置
// 参数 c: 缓存实例
// 参数 src: 申报数据源
// 参数 quotes: 行情提供器
func New(cfg *config.Config, c *cache.Cache, src source.TransactionSource, quotes source.QuoteProvider, logger *zap.Logger, m *metrics.Metrics) *Tracker {
	return &Tracker{
		cfg:      cfg,
		cache:    c,
		source:   src,
		enricher: enrich.New(quotes, c, cfg.Strategy.MaxQuoteSymbols, logger, m),
		logger:   logger.Named("tracker"),
		metrics:  m,
		nowFn:    time.Now,
	}
}

// InsiderTrades 获取补全分类后的内部人交易
// 读穿缓存；上游不可用或响应异常时降级为空列表并记录日志，
// 仅上下文取消等非上游错误会向上传播。
// 参数 symbol: 股票代码，空串表示全市场
// 参数 limit: 最大条数
func (t *Tracker) InsiderTrades(ctx context.Context, symbol string, limit int) ([]model.Transaction, error) {
	key := cache.Key("insider_trades", map[string]string{
		"symbol": symbol,
		"limit":  strconv.Itoa(limit),
	})

	var cached []model.Transaction
	if t.cache.Get(key, &cached) {
		return cached, nil
	}

	raw, err := t.source.InsiderTransactions(ctx, symbol, limit)
	if err != nil {
		if errors.Is(err, source.ErrUnavailable) || errors.Is(err, source.ErrBadPayload) {
			t.logger.Warn("申报数据源降级为空结果",
				zap.String("symbol", symbol),
				zap.Error(err))
			return []model.Transaction{}, nil
		}
		return nil, err
	}

	txs := t.enricher.Enrich(ctx, raw)
	if len(txs) > 0 {
		t.cache.Set(key, txs)
	}
	return txs, nil
}

// DetectCluster 检测单个符号的集群事件
// 参数 symbol: 股票代码
// 参数 windowDays: 回溯窗口天数，非正数取配置值
// 参数 minActors: 最小去重内部人数量，非正数取配置值
// 返回: 集群事件，未检出时为 nil
func (t *Tracker) DetectCluster(ctx context.Context, symbol string, windowDays, minActors int) (*model.ClusterEvent, error) {
	if windowDays <= 0 {
		windowDays = t.cfg.Strategy.WindowDays
	}
	if minActors <= 0 {
		minActors = t.cfg.Strategy.MinActors
	}

	txs, err := t.InsiderTrades(ctx, symbol, t.cfg.Strategy.HistoryLimit)
	if err != nil {
		return nil, err
	}

	d := cluster.New(windowDays, minActors, t.logger)
	return d.Detect(t.nowFn(), txs), nil
}

// Alerts 获取聚合告警流
// 读穿缓存。symbols 非空时按符号扫描（符号数受配置上限约束，
// 并叠加每符号的集群检测）；为空时做全市场扫描，使用更高的
// 名义价值门槛且不做集群检测。
// 参数 symbols: 关注符号列表，空表示全市场
// 参数 limit: 告警流最大条数，非正数取默认值
func (t *Tracker) Alerts(ctx context.Context, symbols []string, limit int) (alert.Feed, error) {
	if limit <= 0 {
		limit = defaultAlertLimit
	}

	key := cache.Key("whale_alerts", map[string]string{
		"symbols": symbolsKey(symbols),
		"limit":   strconv.Itoa(limit),
	})

	var cached alert.Feed
	if t.cache.Get(key, &cached) {
		return cached, nil
	}

	var (
		txs      []model.Transaction
		clusters []model.ClusterEvent
		floor    float64
	)

	if len(symbols) > 0 {
		floor = t.cfg.Strategy.MinValueUSD
		scan := symbols
		if len(scan) > t.cfg.Strategy.MaxSymbolsPerScan {
			scan = scan[:t.cfg.Strategy.MaxSymbolsPerScan]
		}
		for _, sym := range scan {
			symTxs, err := t.InsiderTrades(ctx, sym, perSymbolFetchLimit)
			if err != nil {
				return alert.Feed{}, err
			}
			txs = append(txs, symTxs...)

			ev, err := t.DetectCluster(ctx, sym, t.cfg.Strategy.WindowDays, t.cfg.Strategy.MinActors)
			if err != nil {
				return alert.Feed{}, err
			}
			if ev != nil {
				clusters = append(clusters, *ev)
			}
		}
	} else {
		floor = t.cfg.Strategy.MarketMinValueUSD
		marketTxs, err := t.InsiderTrades(ctx, "", marketFetchLimit)
		if err != nil {
			return alert.Feed{}, err
		}
		txs = marketTxs
	}

	feed := alert.Aggregate(txs, clusters, floor, limit)
	if len(feed.Alerts) > 0 {
		t.cache.Set(key, feed)
	}
	return feed, nil
}

// Radar 获取雷达快照
// 读穿缓存。基于告警流派生信号摘要、集群子集和雷达光点。
// 参数 symbols: 关注符号列表，空表示全市场
func (t *Tracker) Radar(ctx context.Context, symbols []string) (RadarData, error) {
	key := cache.Key("radar_data", map[string]string{
		"symbols": symbolsKey(symbols),
	})

	var cached RadarData
	if t.cache.Get(key, &cached) {
		return cached, nil
	}

	feed, err := t.Alerts(ctx, symbols, defaultAlertLimit)
	if err != nil {
		return RadarData{}, err
	}

	clusters := make([]model.Alert, 0)
	for i := range feed.Alerts {
		if feed.Alerts[i].AlertType == model.AlertCluster {
			clusters = append(clusters, feed.Alerts[i])
		}
	}

	data := RadarData{
		Timestamp: t.nowFn().Format(time.RFC3339),
		Summary: Summary{
			TotalSignals: len(feed.Alerts),
			Bullish:      feed.Bullish,
			Bearish:      feed.Bearish,
			Sentiment:    feed.Sentiment,
		},
		Alerts:   feed.Alerts,
		Clusters: clusters,
		Blips:    radar.Project(feed.Alerts, t.cfg.Strategy.MaxBlips),
	}

	if len(data.Alerts) > 0 {
		t.cache.Set(key, data)
	}
	return data, nil
}

// symbolsKey 符号列表的缓存键片段
// 排序后用下划线连接，空列表记为 all（全市场）。
func symbolsKey(symbols []string) string {
	if len(symbols) == 0 {
		return "all"
	}
	sorted := make([]string, len(symbols))
	copy(sorted, symbols)
	sort.Strings(sorted)
	return strings.Join(sorted, "_")
}
