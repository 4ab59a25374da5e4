// Package backoff 退避算法测试
package backoff

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestBackoff_GrowthSequence 测试无抖动时的退避序列
func TestBackoff_GrowthSequence(t *testing.T) {
	b := New(time.Second, 30*time.Second, 0)

	want := []time.Duration{
		time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		16 * time.Second,
		30 * time.Second, // 32s 被截断到上限
		30 * time.Second,
	}

	for i, expected := range want {
		if got := b.Next(); got != expected {
			t.Fatalf("第 %d 次退避 = %v, want %v", i, got, expected)
		}
	}
}

// TestBackoff_ResetRestartsSequence 测试连接成功后重置退避
func TestBackoff_ResetRestartsSequence(t *testing.T) {
	b := NewDefault()

	for i := 0; i < 6; i++ {
		b.Next()
	}
	if b.Attempt() != 6 {
		t.Fatalf("重试次数 = %d, want 6", b.Attempt())
	}

	b.Reset()
	if b.Attempt() != 0 {
		t.Fatalf("重置后重试次数 = %d, want 0", b.Attempt())
	}
}

// TestBackoff_LargeAttemptStaysAtMax 测试深度重试不溢出且保持上限
func TestBackoff_LargeAttemptStaysAtMax(t *testing.T) {
	b := New(time.Second, 30*time.Second, 0)
	b.attempt = 62 // 远超位移安全范围

	if got := b.Next(); got != 30*time.Second {
		t.Fatalf("深度重试退避 = %v, want 30s", got)
	}
}

// **Feature: smart-money-radar, Property 1: Exponential Backoff Bounds**

// TestBackoff_BoundsProperty 测试退避时间始终落在 [base*(1-j), max*(1+j)] 区间
func TestBackoff_BoundsProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("退避时间在抖动边界内", prop.ForAll(
		func(baseMs, maxMs, jitterPercent int) bool {
			if maxMs < baseMs {
				return true // 无效组合跳过
			}

			base := time.Duration(baseMs) * time.Millisecond
			max := time.Duration(maxMs) * time.Millisecond
			jitter := float64(jitterPercent) / 100.0
			b := New(base, max, jitter)

			lower := float64(base) * (1 - jitter)
			upper := float64(max) * (1 + jitter)

			for i := 0; i < 20; i++ {
				d := float64(b.Next())
				if d < lower || d > upper {
					return false
				}
			}
			return true
		},
		gen.IntRange(100, 2000),
		gen.IntRange(1000, 60000),
		gen.IntRange(0, 40),
	))

	properties.Property("无抖动时序列单调不减", prop.ForAll(
		func(baseMs int) bool {
			base := time.Duration(baseMs) * time.Millisecond
			b := New(base, 30*time.Second, 0)

			prev := time.Duration(0)
			for i := 0; i < 12; i++ {
				d := b.Next()
				if d < prev {
					return false
				}
				prev = d
			}
			return true
		},
		gen.IntRange(50, 3000),
	))

	properties.TestingRun(t)
}
