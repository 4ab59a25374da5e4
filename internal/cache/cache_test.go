// Package cache 缓存模块测试
package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"go.uber.org/zap"
)

type payload struct {
	Symbol string  `json:"symbol"`
	Value  float64 `json:"value"`
}

func newTestCache(t *testing.T, ttl time.Duration) *Cache {
	t.Helper()
	c, err := New(t.TempDir(), ttl, zap.NewNop(), nil)
	if err != nil {
		t.Fatalf("创建缓存失败: %v", err)
	}
	return c
}

// TestCache_GetWithinTTL 测试 TTL 内读取返回原值
func TestCache_GetWithinTTL(t *testing.T) {
	c := newTestCache(t, 300*time.Second)

	base := time.Now()
	c.nowFn = func() time.Time { return base }

	want := payload{Symbol: "AAPL", Value: 9275000}
	c.Set("quote_AAPL", want)

	c.nowFn = func() time.Time { return base.Add(299 * time.Second) }

	var got payload
	if !c.Get("quote_AAPL", &got) {
		t.Fatalf("TTL 内应命中")
	}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

// TestCache_ExpiryAtTTL 测试到达 TTL 后条目视为不存在
// 文件层的新鲜度基于真实修改时间，额外多走 1 秒避免写入时刻的毫秒级误差。
func TestCache_ExpiryAtTTL(t *testing.T) {
	c := newTestCache(t, 300*time.Second)

	base := time.Now()
	c.nowFn = func() time.Time { return base }
	c.Set("quote_NVDA", payload{Symbol: "NVDA", Value: 1})

	c.nowFn = func() time.Time { return base.Add(301 * time.Second) }

	var got payload
	if c.Get("quote_NVDA", &got) {
		t.Fatalf("到达 TTL 应视为未命中")
	}
}

// TestCache_FileTierRoundTrip 测试文件层跨实例读取
// 同目录的新实例应能读到旧实例写入的条目（TTL 内），并回填自己的内存层。
func TestCache_FileTierRoundTrip(t *testing.T) {
	dir := t.TempDir()

	c1, err := New(dir, 300*time.Second, zap.NewNop(), nil)
	if err != nil {
		t.Fatalf("创建缓存失败: %v", err)
	}
	want := payload{Symbol: "META", Value: 14375000}
	c1.Set("insider_trades_symbol=META", want)

	c2, err := New(dir, 300*time.Second, zap.NewNop(), nil)
	if err != nil {
		t.Fatalf("创建缓存失败: %v", err)
	}
	var got payload
	if !c2.Get("insider_trades_symbol=META", &got) {
		t.Fatalf("新实例应命中文件层")
	}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

// TestCache_CorruptFileIsMiss 测试损坏的文件条目按未命中处理
func TestCache_CorruptFileIsMiss(t *testing.T) {
	dir := t.TempDir()
	c, err := New(dir, 300*time.Second, zap.NewNop(), nil)
	if err != nil {
		t.Fatalf("创建缓存失败: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "bad_key.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("写损坏文件失败: %v", err)
	}

	var got payload
	if c.Get("bad_key", &got) {
		t.Fatalf("损坏条目应按未命中处理")
	}
}

// TestKey_EmptyValuesCollapse 测试空值参数与省略该参数生成同一 key
func TestKey_EmptyValuesCollapse(t *testing.T) {
	withEmpty := Key("insider_trades", map[string]string{"symbol": "", "limit": "50"})
	without := Key("insider_trades", map[string]string{"limit": "50"})
	if withEmpty != without {
		t.Fatalf("空值参数应折叠: %q != %q", withEmpty, without)
	}
	if withEmpty != "insider_trades_limit=50" {
		t.Fatalf("key = %q, want insider_trades_limit=50", withEmpty)
	}
}

// **Feature: smart-money-radar, Property 2: Cache Key Canonicalization**

// TestKey_OrderInvariance_Property 测试 key 与参数插入顺序无关
func TestKey_OrderInvariance_Property(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("参数顺序不影响 key", prop.ForAll(
		func(a, b, c string) bool {
			m1 := map[string]string{"alpha": a, "beta": b, "gamma": c}
			m2 := map[string]string{"gamma": c, "alpha": a, "beta": b}
			return Key("fn", m1) == Key("fn", m2)
		},
		gen.AlphaString(),
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
