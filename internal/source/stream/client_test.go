package stream

import (
	"testing"
)

// TestParseTransaction 测试申报推送消息解析
func TestParseTransaction(t *testing.T) {
	data := []byte(`{
		"symbol": "ACME",
		"companyName": "Acme Corp",
		"reportingName": "Alice",
		"typeOfOwner": "CEO",
		"transactionType": "P-Purchase",
		"transactionDate": "2024-01-15",
		"securitiesTransacted": 1000,
		"price": 150.5
	}`)

	tx, err := parseTransaction(data)
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if tx == nil {
		t.Fatalf("应解析出交易")
	}
	if tx.Symbol != "ACME" || tx.ReporterName != "Alice" {
		t.Fatalf("字段错误: %+v", tx)
	}
	if tx.TotalValue != 150500 {
		t.Fatalf("名义价值错误: %v", tx.TotalValue)
	}
	if !tx.IsBuy() {
		t.Fatalf("应为买入交易")
	}
}

// TestParseTransaction_StringNumerics 测试字符串编码的股数和价格
func TestParseTransaction_StringNumerics(t *testing.T) {
	data := []byte(`{
		"symbol": "ACME",
		"transactionType": "S-Sale",
		"transactionDate": "2024-01-15",
		"securitiesTransacted": "1000",
		"price": "150.5"
	}`)

	tx, err := parseTransaction(data)
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if tx.TotalValue != 150500 {
		t.Fatalf("字符串数值的名义价值错误: %v", tx.TotalValue)
	}
}

// TestParseTransaction_EventMessage 测试订阅响应消息被忽略
func TestParseTransaction_EventMessage(t *testing.T) {
	tx, err := parseTransaction([]byte(`{"event": "subscribed", "symbols": ["ACME"]}`))
	if err != nil {
		t.Fatalf("订阅响应不应报错: %v", err)
	}
	if tx != nil {
		t.Fatalf("订阅响应不应产生交易: %+v", tx)
	}
}

// TestParseTransaction_Invalid 测试非法消息
func TestParseTransaction_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"非 JSON", `not json`},
		{"缺少符号", `{"transactionType": "P-Purchase"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseTransaction([]byte(tt.data)); err == nil {
				t.Fatalf("非法消息应报错")
			}
		})
	}
}

// TestParseTransaction_MissingOptionalFields 测试可选字段缺失时的兜底
func TestParseTransaction_MissingOptionalFields(t *testing.T) {
	tx, err := parseTransaction([]byte(`{"symbol": "ACME", "transactionType": "S-Sale", "transactionDate": "2024-01-15"}`))
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if tx.CompanyName != "ACME" {
		t.Fatalf("公司名应回退到符号, 实际 %s", tx.CompanyName)
	}
	if tx.ReporterName != "Unknown" || tx.ReporterTitle != "Insider" {
		t.Fatalf("申报人兜底错误: %s / %s", tx.ReporterName, tx.ReporterTitle)
	}
	if tx.TotalValue != 0 {
		t.Fatalf("缺失股数价格时名义价值应为 0")
	}
}
