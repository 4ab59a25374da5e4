// Package main 是聪明钱雷达的入口点。
// 从上游申报接口拉取内部人交易，补全市场上下文并分类，
// 检测集群买卖，聚合为告警流并投影成雷达快照，结果落盘为 JSONL。
//
// 两种运行模式:
//   - 扫描模式（默认）: 执行一轮扫描后退出
//   - watch 模式（-watch）: 周期扫描，并可选消费实时申报数据流
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	ossignal "os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"smart-money-radar/internal/cache"
	"smart-money-radar/internal/config"
	"smart-money-radar/internal/core/alert"
	"smart-money-radar/internal/core/model"
	"smart-money-radar/internal/metrics"
	"smart-money-radar/internal/output/jsonl"
	"smart-money-radar/internal/source"
	"smart-money-radar/internal/source/stream"
	"smart-money-radar/internal/tracker"
)

const defaultAlertLimit = 20

func main() {
	var (
		configPath string
		watch      bool
		symbolsArg string
		intervalS  int
	)
	flag.StringVar(&configPath, "config", "config.yaml", "配置文件路径")
	flag.BoolVar(&watch, "watch", false, "持续监控模式")
	flag.StringVar(&symbolsArg, "symbols", "", "逗号分隔的符号列表，覆盖配置文件")
	flag.IntVar(&intervalS, "interval", 300, "watch 模式扫描间隔（秒）")
	flag.Parse()

	// API 密钥等敏感配置优先从 .env 读取
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	if symbolsArg != "" {
		cfg.Symbols = splitSymbols(symbolsArg)
	}

	logger := newLogger(cfg.App.LogLevel)
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 捕获 SIGINT/SIGTERM，触发优雅退出
	sigCh := make(chan os.Signal, 2)
	ossignal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("收到退出信号，开始优雅关闭")
		cancel()
	}()

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", m.Handler())
			logger.Info("指标端点已启动", zap.String("addr", cfg.Metrics.Addr))
			if err := http.ListenAndServe(cfg.Metrics.Addr, mux); err != nil {
				logger.Warn("指标端点退出", zap.Error(err))
			}
		}()
	}

	c, err := cache.New(cfg.Cache.Dir, time.Duration(cfg.Cache.TTLSeconds)*time.Second, logger, m)
	if err != nil {
		logger.Error("初始化缓存失败", zap.Error(err))
		os.Exit(1)
	}

	client := source.NewClient(cfg.Upstream, logger, m)
	quotes, err := source.NewQuoteProvider(cfg.Upstream, client, logger, m)
	if err != nil {
		logger.Error("初始化行情提供器失败", zap.Error(err))
		os.Exit(1)
	}

	tr := tracker.New(cfg, c, client, quotes, logger, m)

	var alertsWriter, radarWriter *jsonl.Writer
	if cfg.Output.AlertsEnabled {
		alertsWriter, err = jsonl.NewAlertWriter(cfg.Output.Dir, cfg.Output.BufferSize)
		if err != nil {
			logger.Error("创建告警写入器失败", zap.Error(err))
			os.Exit(1)
		}
	}
	if cfg.Output.RadarEnabled {
		radarWriter, err = jsonl.NewRadarWriter(cfg.Output.Dir, cfg.Output.BufferSize)
		if err != nil {
			logger.Error("创建雷达写入器失败", zap.Error(err))
			os.Exit(1)
		}
	}

	if watch {
		runWatch(ctx, cfg, tr, alertsWriter, radarWriter, logger, intervalS)
	} else {
		scanOnce(ctx, cfg, tr, alertsWriter, radarWriter, logger)
	}

	// 优雅关闭（10s 超时）
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = alertsWriter.Close()
		_ = radarWriter.Close()
	}()

	select {
	case <-shutdownCtx.Done():
		logger.Warn("关闭超时，强制退出")
	case <-done:
		logger.Info("关闭完成")
	}
}

// scanOnce 执行一轮扫描：拉取告警流和雷达快照并落盘
func scanOnce(ctx context.Context, cfg *config.Config, tr *tracker.Tracker, alertsWriter, radarWriter *jsonl.Writer, logger *zap.Logger) {
	feed, err := tr.Alerts(ctx, cfg.Symbols, defaultAlertLimit)
	if err != nil {
		logger.Error("获取告警流失败", zap.Error(err))
		return
	}

	logger.Info("扫描完成",
		zap.Int("alerts", len(feed.Alerts)),
		zap.Int("bullish", feed.Bullish),
		zap.Int("bearish", feed.Bearish),
		zap.String("sentiment", string(feed.Sentiment)))

	if alertsWriter != nil {
		for i := range feed.Alerts {
			_ = alertsWriter.Write(feed.Alerts[i])
		}
		_ = alertsWriter.Flush()
	}

	if radarWriter != nil {
		data, err := tr.Radar(ctx, cfg.Symbols)
		if err != nil {
			logger.Error("获取雷达快照失败", zap.Error(err))
			return
		}
		_ = radarWriter.Write(data)
		_ = radarWriter.Flush()
	}
}

// runWatch 持续监控模式
// 周期执行扫描；启用数据流时并行消费实时申报，达到门槛的
// 申报立即产出告警。
func runWatch(ctx context.Context, cfg *config.Config, tr *tracker.Tracker, alertsWriter, radarWriter *jsonl.Writer, logger *zap.Logger, intervalS int) {
	if intervalS <= 0 {
		intervalS = 300
	}

	var streamClient *stream.Client
	if cfg.Stream.Enabled {
		streamClient = stream.NewClient(&cfg.Stream, cfg.Symbols, logger)
		startCtx, startCancel := context.WithTimeout(ctx, 10*time.Second)
		if err := streamClient.Connect(startCtx); err != nil {
			logger.Error("连接申报数据流失败，仅周期扫描", zap.Error(err))
			streamClient = nil
		} else if err := streamClient.Subscribe(); err != nil {
			logger.Error("订阅申报数据流失败，仅周期扫描", zap.Error(err))
			streamClient.Close()
			streamClient = nil
		}
		startCancel()
		if streamClient != nil {
			go streamClient.Run(ctx)
			defer streamClient.Close()
		}
	}

	var txCh <-chan *model.Transaction
	if streamClient != nil {
		txCh = streamClient.TxCh()
	}

	scanOnce(ctx, cfg, tr, alertsWriter, radarWriter, logger)

	ticker := time.NewTicker(time.Duration(intervalS) * time.Second)
	defer ticker.Stop()

	watchlist := make(map[string]bool, len(cfg.Symbols))
	for _, sym := range cfg.Symbols {
		watchlist[sym] = true
	}

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			scanOnce(ctx, cfg, tr, alertsWriter, radarWriter, logger)

		case tx, ok := <-txCh:
			if !ok {
				txCh = nil
				continue
			}
			if tx == nil {
				continue
			}

			// 关注列表内的符号用较低门槛，其余按全市场门槛降噪
			floor := cfg.Strategy.MarketMinValueUSD
			if watchlist[tx.Symbol] {
				floor = cfg.Strategy.MinValueUSD
			}
			if tx.TotalValue < floor {
				continue
			}

			a := alert.FromTransaction(tx)
			logger.Info("实时申报告警",
				zap.String("symbol", a.Symbol),
				zap.String("headline", a.Headline),
				zap.String("signal", string(a.Signal)))
			if alertsWriter != nil {
				_ = alertsWriter.Write(a)
				_ = alertsWriter.Flush()
			}
		}
	}
}

// splitSymbols 解析逗号分隔的符号参数
func splitSymbols(arg string) []string {
	parts := strings.Split(arg, ",")
	symbols := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.ToUpper(strings.TrimSpace(p)); s != "" {
			symbols = append(symbols, s)
		}
	}
	return symbols
}

func newLogger(level string) *zap.Logger {
	lvl := zapcore.InfoLevel
	if err := lvl.Set(level); err != nil {
		lvl = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
