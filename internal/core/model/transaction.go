// Package model 定义聪明钱信号管道中使用的核心数据结构。
// 包含内部人交易、集群事件、告警和雷达光点等核心类型。
package model

import "strings"

// Significance 重要性等级
// 衡量交易规模相对于公司体量（流通股本 / 市值）的重要程度
type Significance string

const (
	// SignificanceCritical 超过流通股本 1% 或市值 0.5%
	SignificanceCritical Significance = "CRITICAL"
	// SignificanceHigh 超过流通股本 0.5% 或市值 0.2%
	SignificanceHigh Significance = "HIGH"
	// SignificanceMedium 超过流通股本 0.1%
	SignificanceMedium Significance = "MEDIUM"
	// SignificanceLow 低于以上所有阈值（含未能补全市场上下文的交易）
	SignificanceLow Significance = "LOW"
)

// Magnitude 量级等级
// 衡量交易的绝对美元规模，与 Significance 相互独立
type Magnitude string

const (
	// MagnitudeMassive 名义价值 >= $10M
	MagnitudeMassive Magnitude = "massive"
	// MagnitudeLarge 名义价值 >= $1M
	MagnitudeLarge Magnitude = "large"
	// MagnitudeSignificant 名义价值 >= $100K
	MagnitudeSignificant Magnitude = "significant"
	// MagnitudeMinor 名义价值 < $100K
	MagnitudeMinor Magnitude = "minor"
)

// Transaction 单笔内部人交易
// 原始字段在构造时填充；市场上下文字段（指针类型）在补全阶段填充，
// 补全前保持 nil。TotalValue 在构造时一次性计算，后续不再重算。
type Transaction struct {
	// Symbol 股票代码
	Symbol string `json:"symbol"`
	// CompanyName 公司名称
	CompanyName string `json:"company_name"`
	// ReporterName 申报人姓名（CEO、CFO、董事等）
	ReporterName string `json:"reporter_name"`
	// ReporterTitle 申报人职务
	ReporterTitle string `json:"reporter_title"`
	// TransactionType 交易类型原始串，如 P-Purchase、S-Sale、A-Award
	TransactionType string `json:"transaction_type"`
	// TransactionDate 交易日期，格式 2006-01-02
	TransactionDate string `json:"transaction_date"`
	// SharesTransacted 成交股数（绝对值）
	SharesTransacted float64 `json:"shares_transacted"`
	// Price 成交单价
	Price float64 `json:"price"`
	// TotalValue 名义价值 = |股数 × 单价|，构造时计算
	TotalValue float64 `json:"total_value"`
	// SharesOwnedAfter 交易后持股数（上游可能缺失）
	SharesOwnedAfter *float64 `json:"shares_owned_after,omitempty"`

	// MarketCap 市值（补全前为 nil）
	MarketCap *float64 `json:"market_cap,omitempty"`
	// SharesOutstanding 流通股本（补全前为 nil）
	SharesOutstanding *float64 `json:"shares_outstanding,omitempty"`
	// PctOfOutstanding 成交股数占流通股本的百分比
	PctOfOutstanding *float64 `json:"pct_of_outstanding,omitempty"`
	// PctOfMarketCap 名义价值占市值的百分比
	PctOfMarketCap *float64 `json:"pct_of_market_cap,omitempty"`
	// Significance 重要性等级（分类前为空串）
	Significance Significance `json:"significance,omitempty"`
}

// NewTransaction 构造交易并计算名义价值
// TotalValue = |shares × price|，该不变量仅在此处建立。
func NewTransaction(symbol, companyName, reporterName, reporterTitle, txType, txDate string, shares, price float64) Transaction {
	return Transaction{
		Symbol:           symbol,
		CompanyName:      companyName,
		ReporterName:     reporterName,
		ReporterTitle:    reporterTitle,
		TransactionType:  txType,
		TransactionDate:  txDate,
		SharesTransacted: abs(shares),
		Price:            price,
		TotalValue:       abs(shares * price),
	}
}

// IsBuy 判断是否为买入交易（P 系列类型）
func (t *Transaction) IsBuy() bool {
	return t.TransactionType == "P" || strings.HasPrefix(t.TransactionType, "P-")
}

// IsSell 判断是否为卖出交易（S 系列类型）
func (t *Transaction) IsSell() bool {
	return t.TransactionType == "S" || strings.HasPrefix(t.TransactionType, "S-")
}

// SignalStrength 计算量级等级
// 纯粹基于名义价值的绝对规模，阈值下沿为闭区间。
func (t *Transaction) SignalStrength() Magnitude {
	switch {
	case t.TotalValue >= 10_000_000:
		return MagnitudeMassive
	case t.TotalValue >= 1_000_000:
		return MagnitudeLarge
	case t.TotalValue >= 100_000:
		return MagnitudeSignificant
	default:
		return MagnitudeMinor
	}
}

// CalcSignificance 计算重要性等级
// 纯函数：仅依赖占流通股本百分比与占市值百分比，nil 按 0 处理。
func CalcSignificance(pctOfOutstanding, pctOfMarketCap *float64) Significance {
	pctOut := deref(pctOfOutstanding)
	pctCap := deref(pctOfMarketCap)

	switch {
	case pctOut > 1.0 || pctCap > 0.5:
		return SignificanceCritical
	case pctOut > 0.5 || pctCap > 0.2:
		return SignificanceHigh
	case pctOut > 0.1:
		return SignificanceMedium
	default:
		return SignificanceLow
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func deref(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

// Float64Ptr 返回浮点数的指针，用于填充可空的市场上下文字段
func Float64Ptr(v float64) *float64 {
	return &v
}
