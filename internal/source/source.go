// Package source 定义上游数据边界并实现申报/行情客户端。
// 上游返回的记录一律视为不可信输入：缺失或非数值字段按零值处理，
// 单条坏记录跳过，整批继续；获取失败以显式错误返回，
// 由管道层决定降级行为，不在边界内吞掉异常。
package source

import (
	"context"
	"errors"

	"smart-money-radar/internal/core/model"
)

var (
	// ErrUnavailable 上游不可用（网络失败或非 200 响应）
	ErrUnavailable = errors.New("上游数据源不可用")
	// ErrBadPayload 上游响应无法解析
	ErrBadPayload = errors.New("上游响应格式错误")
)

// TransactionSource 申报交易数据源
// symbol 为空串时返回全市场最新记录
type TransactionSource interface {
	// InsiderTransactions 获取内部人交易记录
	// 参数 ctx: 上下文
	// 参数 symbol: 股票代码，空串表示全市场
	// 参数 limit: 最大返回条数
	InsiderTransactions(ctx context.Context, symbol string, limit int) ([]model.Transaction, error)
}

// MarketContext 符号的市场上下文
// 补全阶段写入 Transaction 的市值与流通股本来源于此
type MarketContext struct {
	// MarketCap 市值
	MarketCap float64 `json:"market_cap"`
	// SharesOutstanding 流通股本
	SharesOutstanding float64 `json:"shares_outstanding"`
}

// QuoteProvider 行情来源
// 返回 nil 上下文（无错误但无数据）时，交易保持未补全状态
type QuoteProvider interface {
	// Quote 获取符号的市场上下文
	Quote(ctx context.Context, symbol string) (*MarketContext, error)
}
