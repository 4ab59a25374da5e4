package source

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"smart-money-radar/internal/config"
	"smart-money-radar/internal/core/model"
	"smart-money-radar/internal/metrics"
	"smart-money-radar/internal/util/fastparse"
)

// Client 申报 API HTTP 客户端
// 通过 FMP 风格接口获取内部人交易和行情，实现 TransactionSource 与 QuoteProvider。
type Client struct {
	// http HTTP 客户端
	http *resty.Client
	// apiKey API 密钥
	apiKey string
	// logger 日志记录器
	logger *zap.Logger
	// metrics 指标（可为 nil）
	metrics *metrics.Metrics
}

// NewClient 创建申报 API 客户端
// 参数 cfg: 上游配置
// 参数 logger: 日志记录器
// 参数 m: 指标集合，可为 nil
func NewClient(cfg config.UpstreamConfig, logger *zap.Logger, m *metrics.Metrics) *Client {
	http := resty.New()
	http.SetBaseURL(cfg.BaseURL)
	http.SetTimeout(time.Duration(cfg.TimeoutMs) * time.Millisecond)
	http.SetHeader("User-Agent", "smart-money-radar/1.0")
	http.SetHeader("Accept", "application/json")

	return &Client{
		http:    http,
		apiKey:  cfg.APIKey,
		logger:  logger.Named("source"),
		metrics: m,
	}
}

// InsiderTransactions 获取内部人交易记录
// 参数 symbol: 股票代码，空串表示全市场
// 参数 limit: 最大返回条数
// 返回: 构造完成（含名义价值）但未补全市场上下文的交易列表
func (c *Client) InsiderTransactions(ctx context.Context, symbol string, limit int) ([]model.Transaction, error) {
	c.metrics.UpstreamRequest("transactions")

	req := c.http.R().
		SetContext(ctx).
		SetQueryParam("limit", strconv.Itoa(limit)).
		SetQueryParam("apikey", c.apiKey)
	if symbol != "" {
		req.SetQueryParam("symbol", symbol)
	}

	resp, err := req.Get("/v4/insider-trading")
	if err != nil {
		c.metrics.UpstreamError("transactions")
		return nil, fmt.Errorf("%w: 请求申报接口失败: %v", ErrUnavailable, err)
	}
	if resp.StatusCode() != 200 {
		c.metrics.UpstreamError("transactions")
		return nil, fmt.Errorf("%w: 申报接口状态码 %d", ErrUnavailable, resp.StatusCode())
	}

	var items []map[string]any
	if err := json.Unmarshal(resp.Body(), &items); err != nil {
		c.metrics.UpstreamError("transactions")
		return nil, fmt.Errorf("%w: 解析申报响应失败: %v", ErrBadPayload, err)
	}

	txs := make([]model.Transaction, 0, len(items))
	for _, item := range items {
		if len(txs) >= limit {
			break
		}

		sym := strField(item, "symbol")
		if sym == "" {
			// 缺少符号的记录无法归属，跳过
			continue
		}

		company := strField(item, "companyName")
		if company == "" {
			company = sym
		}
		reporter := strField(item, "reportingName")
		if reporter == "" {
			reporter = "Unknown"
		}
		title := strField(item, "typeOfOwner")
		if title == "" {
			title = "Insider"
		}

		shares := numField(item, "securitiesTransacted")
		price := numField(item, "price")

		tx := model.NewTransaction(
			sym,
			company,
			reporter,
			title,
			strField(item, "transactionType"),
			strField(item, "transactionDate"),
			shares,
			price,
		)
		if owned, ok := item["securitiesOwned"]; ok && owned != nil {
			tx.SharesOwnedAfter = model.Float64Ptr(fastparse.ToFloat(owned))
		}
		txs = append(txs, tx)
	}

	return txs, nil
}

// Quote 获取符号的市场上下文（FMP /v3/quote）
func (c *Client) Quote(ctx context.Context, symbol string) (*MarketContext, error) {
	c.metrics.UpstreamRequest("quote")

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("apikey", c.apiKey).
		Get("/v3/quote/" + symbol)
	if err != nil {
		c.metrics.UpstreamError("quote")
		return nil, fmt.Errorf("%w: 请求行情接口失败: %v", ErrUnavailable, err)
	}
	if resp.StatusCode() != 200 {
		c.metrics.UpstreamError("quote")
		return nil, fmt.Errorf("%w: 行情接口状态码 %d", ErrUnavailable, resp.StatusCode())
	}

	var quotes []map[string]any
	if err := json.Unmarshal(resp.Body(), &quotes); err != nil {
		c.metrics.UpstreamError("quote")
		return nil, fmt.Errorf("%w: 解析行情响应失败: %v", ErrBadPayload, err)
	}
	if len(quotes) == 0 {
		return nil, nil
	}

	return &MarketContext{
		MarketCap:         numField(quotes[0], "marketCap"),
		SharesOutstanding: numField(quotes[0], "sharesOutstanding"),
	}, nil
}

// strField 读取字符串字段，缺失或类型不符返回空串
func strField(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

// numField 读取数值字段
// 上游偶尔把数值编码为字符串，此处两种形态都接受，解析失败按 0 处理。
func numField(m map[string]any, key string) float64 {
	return fastparse.ToFloat(m[key])
}
