package cluster

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"smart-money-radar/internal/core/model"
)

func newTx(symbol, reporter, txType, date string, shares, price float64) model.Transaction {
	return model.NewTransaction(symbol, symbol+" Inc.", reporter, "Officer", txType, date, shares, price)
}

func testNow(t *testing.T) time.Time {
	t.Helper()
	now, err := time.Parse("2006-01-02", "2024-01-30")
	if err != nil {
		t.Fatalf("解析测试时间失败: %v", err)
	}
	return now
}

// TestDetect_BuyCluster 测试买入集群检出
func TestDetect_BuyCluster(t *testing.T) {
	d := New(30, 2, zap.NewNop())

	txs := []model.Transaction{
		newTx("ACME", "Alice", "P-Purchase", "2024-01-10", 1000, 100),
		newTx("ACME", "Bob", "P-Purchase", "2024-01-15", 2000, 100),
		newTx("ACME", "Carol", "P-Purchase", "2024-01-20", 3000, 100),
	}

	ev := d.Detect(testNow(t), txs)
	if ev == nil {
		t.Fatalf("应检出买入集群")
	}
	if ev.ActivityType != model.DirectionClusterBuy {
		t.Fatalf("方向错误: %s", ev.ActivityType)
	}
	if ev.InsiderCount != 3 {
		t.Fatalf("人数错误: 期望 3, 实际 %d", ev.InsiderCount)
	}
	if ev.TotalValue != 600_000 {
		t.Fatalf("聚合价值错误: 期望 600000, 实际 %v", ev.TotalValue)
	}
	if ev.DateRange != "2024-01-10 to 2024-01-20" {
		t.Fatalf("日期范围错误: %s", ev.DateRange)
	}
	if ev.Urgency != model.UrgencyHigh {
		t.Fatalf("紧迫度错误: 期望 high, 实际 %s", ev.Urgency)
	}
}

// TestDetect_SameActorNotCluster 测试同一人多笔交易不构成集群
func TestDetect_SameActorNotCluster(t *testing.T) {
	d := New(30, 2, zap.NewNop())

	txs := []model.Transaction{
		newTx("ACME", "Alice", "P-Purchase", "2024-01-10", 1000, 100),
		newTx("ACME", "Alice", "P-Purchase", "2024-01-15", 2000, 100),
		newTx("ACME", "Alice", "P-Purchase", "2024-01-20", 3000, 100),
	}

	if ev := d.Detect(testNow(t), txs); ev != nil {
		t.Fatalf("同一人的多笔交易不应检出集群: %+v", ev)
	}
}

// TestDetect_WindowFilter 测试窗口外交易不参与检测
func TestDetect_WindowFilter(t *testing.T) {
	d := New(30, 2, zap.NewNop())

	txs := []model.Transaction{
		newTx("ACME", "Alice", "P-Purchase", "2024-01-10", 1000, 100),
		newTx("ACME", "Bob", "P-Purchase", "2023-11-01", 2000, 100),
		newTx("ACME", "Carol", "P-Purchase", "bad-date", 3000, 100),
	}

	if ev := d.Detect(testNow(t), txs); ev != nil {
		t.Fatalf("窗口内只剩一人, 不应检出集群: %+v", ev)
	}
}

// TestDetect_SellWinsOnLargerNotional 测试双向达标时价值更大一侧胜出
func TestDetect_SellWinsOnLargerNotional(t *testing.T) {
	d := New(30, 2, zap.NewNop())

	txs := []model.Transaction{
		newTx("ACME", "Alice", "P-Purchase", "2024-01-10", 1000, 100),
		newTx("ACME", "Bob", "P-Purchase", "2024-01-12", 1000, 100),
		newTx("ACME", "Carol", "S-Sale", "2024-01-14", 5000, 100),
		newTx("ACME", "Dave", "S-Sale", "2024-01-16", 5000, 100),
	}

	ev := d.Detect(testNow(t), txs)
	if ev == nil {
		t.Fatalf("应检出集群")
	}
	if ev.ActivityType != model.DirectionClusterSell {
		t.Fatalf("卖侧价值更大时应报告卖出集群, 实际 %s", ev.ActivityType)
	}
	if ev.TotalValue != 1_000_000 {
		t.Fatalf("聚合价值错误: 期望 1000000, 实际 %v", ev.TotalValue)
	}
}

// TestDetect_TieKeepsBuy 测试双向价值相等时保留买侧
func TestDetect_TieKeepsBuy(t *testing.T) {
	d := New(30, 2, zap.NewNop())

	txs := []model.Transaction{
		newTx("ACME", "Alice", "P-Purchase", "2024-01-10", 1000, 100),
		newTx("ACME", "Bob", "P-Purchase", "2024-01-12", 1000, 100),
		newTx("ACME", "Carol", "S-Sale", "2024-01-14", 1000, 100),
		newTx("ACME", "Dave", "S-Sale", "2024-01-16", 1000, 100),
	}

	ev := d.Detect(testNow(t), txs)
	if ev == nil {
		t.Fatalf("应检出集群")
	}
	if ev.ActivityType != model.DirectionClusterBuy {
		t.Fatalf("价值相等时应保留买侧, 实际 %s", ev.ActivityType)
	}
}

// TestDetect_UrgencyByActorCount 测试紧迫度按人数分档
func TestDetect_UrgencyByActorCount(t *testing.T) {
	tests := []struct {
		name   string
		actors []string
		want   model.Urgency
	}{
		{"两人", []string{"Alice", "Bob"}, model.UrgencyModerate},
		{"三人", []string{"Alice", "Bob", "Carol"}, model.UrgencyHigh},
		{"四人", []string{"Alice", "Bob", "Carol", "Dave"}, model.UrgencyCritical},
		{"五人", []string{"Alice", "Bob", "Carol", "Dave", "Eve"}, model.UrgencyCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := New(30, 2, zap.NewNop())
			txs := make([]model.Transaction, 0, len(tt.actors))
			for _, name := range tt.actors {
				txs = append(txs, newTx("ACME", name, "P-Purchase", "2024-01-15", 100, 10))
			}
			ev := d.Detect(testNow(t), txs)
			if ev == nil {
				t.Fatalf("应检出集群")
			}
			if ev.Urgency != tt.want {
				t.Fatalf("紧迫度错误: 期望 %s, 实际 %s", tt.want, ev.Urgency)
			}
		})
	}
}

// TestDetect_SingleDayRange 测试单日集群的日期范围
func TestDetect_SingleDayRange(t *testing.T) {
	d := New(30, 2, zap.NewNop())

	txs := []model.Transaction{
		newTx("ACME", "Alice", "P-Purchase", "2024-01-15", 100, 10),
		newTx("ACME", "Bob", "P-Purchase", "2024-01-15", 100, 10),
	}

	ev := d.Detect(testNow(t), txs)
	if ev == nil {
		t.Fatalf("应检出集群")
	}
	if ev.DateRange != "2024-01-15" {
		t.Fatalf("单日集群日期范围应为单个日期, 实际 %s", ev.DateRange)
	}
	if ev.LatestDate() != "2024-01-15" {
		t.Fatalf("最晚日期错误: %s", ev.LatestDate())
	}
}

// TestDetectAll_GroupsBySymbol 测试按符号分组检测
func TestDetectAll_GroupsBySymbol(t *testing.T) {
	d := New(30, 2, zap.NewNop())

	txs := []model.Transaction{
		newTx("ACME", "Alice", "P-Purchase", "2024-01-10", 1000, 100),
		newTx("ZETA", "Eve", "S-Sale", "2024-01-11", 1000, 100),
		newTx("ACME", "Bob", "P-Purchase", "2024-01-12", 1000, 100),
		newTx("ZETA", "Frank", "S-Sale", "2024-01-13", 1000, 100),
	}

	events := d.DetectAll(testNow(t), txs)
	if len(events) != 2 {
		t.Fatalf("应检出 2 个集群, 实际 %d", len(events))
	}
	if events[0].Symbol != "ACME" || events[1].Symbol != "ZETA" {
		t.Fatalf("输出顺序应与符号首次出现顺序一致: %s, %s", events[0].Symbol, events[1].Symbol)
	}
}
