// Package enrich 实现交易的市场上下文补全与重要性分类。
// 按符号批量获取市值与流通股本，计算每笔交易占公司体量的比例，
// 并据此打上重要性等级。行情获取失败时降级为 LOW，不中断管道。
package enrich

import (
	"context"

	"go.uber.org/zap"

	"smart-money-radar/internal/cache"
	"smart-money-radar/internal/core/model"
	"smart-money-radar/internal/metrics"
	"smart-money-radar/internal/source"
)

// Enricher 交易补全器
type Enricher struct {
	// quotes 行情提供器
	quotes source.QuoteProvider
	// cache 缓存（行情按符号缓存，可为 nil）
	cache *cache.Cache
	// maxSymbols 单次补全的最大符号数
	maxSymbols int
	// logger 日志记录器
	logger *zap.Logger
	// metrics 指标（可为 nil）
	metrics *metrics.Metrics
}

// New 创建交易补全器
// 参数 quotes: 行情提供器
// 参数 c: 行情缓存，可为 nil
// 参数 maxSymbols: 单次补全的最大符号数，防止行情请求放大
func New(quotes source.QuoteProvider, c *cache.Cache, maxSymbols int, logger *zap.Logger, m *metrics.Metrics) *Enricher {
	return &Enricher{
		quotes:     quotes,
		cache:      c,
		maxSymbols: maxSymbols,
		logger:     logger.Named("enrich"),
		metrics:    m,
	}
}

// Enrich 补全交易列表的市场上下文并分类
// 符号按首次出现顺序去重，超出 maxSymbols 的符号不请求行情，
// 对应交易保持市场字段为 nil、重要性为 LOW。
// 返回: 补全后的交易列表（同一底层切片，就地修改）
func (e *Enricher) Enrich(ctx context.Context, txs []model.Transaction) []model.Transaction {
	contexts := e.fetchContexts(ctx, cappedSymbols(txs, e.maxSymbols))

	for i := range txs {
		tx := &txs[i]
		mc, ok := contexts[tx.Symbol]
		if ok && mc != nil {
			applyContext(tx, mc)
		}
		tx.Significance = model.CalcSignificance(tx.PctOfOutstanding, tx.PctOfMarketCap)
	}

	return txs
}

// cappedSymbols 按首次出现顺序收集去重后的符号，最多 max 个
func cappedSymbols(txs []model.Transaction, max int) []string {
	seen := make(map[string]bool, max)
	symbols := make([]string, 0, max)
	for i := range txs {
		sym := txs[i].Symbol
		if sym == "" || seen[sym] {
			continue
		}
		if len(symbols) >= max {
			break
		}
		seen[sym] = true
		symbols = append(symbols, sym)
	}
	return symbols
}

// fetchContexts 获取符号的市场上下文
// 优先读缓存，未命中时请求行情提供器。单个符号失败只记录日志，
// 不影响其他符号。
func (e *Enricher) fetchContexts(ctx context.Context, symbols []string) map[string]*source.MarketContext {
	contexts := make(map[string]*source.MarketContext, len(symbols))

	for _, sym := range symbols {
		key := cache.Key("quote", map[string]string{"symbol": sym})

		var cached source.MarketContext
		if e.cache != nil && e.cache.Get(key, &cached) {
			contexts[sym] = &cached
			continue
		}

		mc, err := e.quotes.Quote(ctx, sym)
		if err != nil {
			e.logger.Warn("获取行情失败，交易降级为 LOW",
				zap.String("symbol", sym),
				zap.Error(err))
			continue
		}
		if mc == nil {
			continue
		}

		contexts[sym] = mc
		if e.cache != nil {
			e.cache.Set(key, mc)
		}
	}

	return contexts
}

// applyContext 将市场上下文写入交易并计算比例字段
// 流通股本或市值为 0 时对应比例保持 nil，避免除零。
func applyContext(tx *model.Transaction, mc *source.MarketContext) {
	if mc.MarketCap > 0 {
		tx.MarketCap = model.Float64Ptr(mc.MarketCap)
		tx.PctOfMarketCap = model.Float64Ptr(tx.TotalValue / mc.MarketCap * 100)
	}
	if mc.SharesOutstanding > 0 {
		tx.SharesOutstanding = model.Float64Ptr(mc.SharesOutstanding)
		tx.PctOfOutstanding = model.Float64Ptr(tx.SharesTransacted / mc.SharesOutstanding * 100)
	}
}
