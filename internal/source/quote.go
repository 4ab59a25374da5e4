package source

import (
	"context"
	"fmt"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/equity"
	"go.uber.org/zap"

	"smart-money-radar/internal/config"
	"smart-money-radar/internal/metrics"
)

// YahooQuoteProvider 基于 Yahoo Finance 的行情提供器
// 作为 FMP 行情接口的备用来源，不需要 API 密钥。
// 市值与流通股本只在股票报价（Equity）上提供，普通报价接口没有这两个字段。
type YahooQuoteProvider struct {
	logger  *zap.Logger
	metrics *metrics.Metrics
	// fetch 股票报价获取函数，测试时替换
	fetch func(symbol string) (*finance.Equity, error)
}

// NewYahooQuoteProvider 创建 Yahoo 行情提供器
func NewYahooQuoteProvider(logger *zap.Logger, m *metrics.Metrics) *YahooQuoteProvider {
	return &YahooQuoteProvider{
		logger:  logger.Named("yahoo"),
		metrics: m,
		fetch:   equity.Get,
	}
}

// Quote 获取符号的市场上下文
// finance-go 库不支持传入 context，超时由库内部的 HTTP 客户端控制。
func (p *YahooQuoteProvider) Quote(_ context.Context, symbol string) (*MarketContext, error) {
	p.metrics.UpstreamRequest("quote")

	eq, err := p.fetch(symbol)
	if err != nil {
		p.metrics.UpstreamError("quote")
		return nil, fmt.Errorf("%w: 获取 %s 行情失败: %v", ErrUnavailable, symbol, err)
	}
	if eq == nil {
		return nil, nil
	}

	return &MarketContext{
		MarketCap:         float64(eq.MarketCap),
		SharesOutstanding: float64(eq.SharesOutstanding),
	}, nil
}

// NewQuoteProvider 根据配置选择行情提供器
// 参数 client: FMP 客户端，provider 为 fmp 时复用其行情接口
func NewQuoteProvider(cfg config.UpstreamConfig, client *Client, logger *zap.Logger, m *metrics.Metrics) (QuoteProvider, error) {
	switch cfg.QuoteProvider {
	case "fmp", "":
		return client, nil
	case "yahoo":
		return NewYahooQuoteProvider(logger, m), nil
	default:
		return nil, fmt.Errorf("不支持的行情提供器: %s", cfg.QuoteProvider)
	}
}
