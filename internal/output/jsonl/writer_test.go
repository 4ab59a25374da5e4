// Package jsonl 输出模块测试
package jsonl

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"smart-money-radar/internal/core/model"
)

// **Feature: smart-money-radar, Property 6: Alert Output Completeness**

func TestAlert_OutputCompleteness_Property(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("告警 JSON 必含必需字段", prop.ForAll(
		func(value float64, symbol string, isBuy bool) bool {
			txType := "S-Sale"
			signal := model.SignalBearish
			if isBuy {
				txType = "P-Purchase"
				signal = model.SignalBullish
			}
			a := model.Alert{
				AlertType: model.AlertInsider,
				Symbol:    symbol,
				Headline:  "headline",
				Signal:    signal,
				Magnitude: string(model.MagnitudeLarge),
				Timestamp: "2024-01-15",
				Source:    "SEC Form 4",
				Details: model.NewTransaction(
					symbol, symbol, "Alice", "CEO", txType, "2024-01-15", value, 1),
			}

			b, err := json.Marshal(a)
			if err != nil {
				return false
			}

			var m map[string]any
			if err := json.Unmarshal(b, &m); err != nil {
				return false
			}

			required := []string{
				"alert_type",
				"symbol",
				"headline",
				"signal",
				"magnitude",
				"timestamp",
				"source",
				"details",
			}
			for _, k := range required {
				if _, ok := m[k]; !ok {
					return false
				}
			}
			return true
		},
		gen.Float64Range(1, 100_000_000),
		gen.OneConstOf("AAPL", "MSFT", "NVDA"),
		gen.Bool(),
	))

	properties.TestingRun(t)
}

func TestWriter_WriteAndClose(t *testing.T) {
	dir := t.TempDir()

	w, err := NewAlertWriter(dir, 100)
	if err != nil {
		t.Fatalf("NewAlertWriter: %v", err)
	}

	for i := 0; i < 10; i++ {
		if err := w.Write(map[string]any{"i": i}); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := os.Open(filepath.Join(dir, AlertsFile))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	lines := 0
	for sc.Scan() {
		var rec Record
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			t.Fatalf("解析记录失败: %v", err)
		}
		if rec.Kind != "alert" || rec.ScanTime == "" {
			t.Fatalf("记录信封错误: %+v", rec)
		}
		lines++
	}
	if err := sc.Err(); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if lines != 10 {
		t.Fatalf("lines=%d, want 10", lines)
	}
}

func TestWriter_WriteAfterClose(t *testing.T) {
	w, err := NewRadarWriter(t.TempDir(), 10)
	if err != nil {
		t.Fatalf("NewRadarWriter: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := w.Write(map[string]any{"x": 1}); err == nil {
		t.Fatalf("关闭后写入应报错")
	}
}
