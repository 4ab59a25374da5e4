// Package config 负责加载和验证 YAML 配置文件。
// 提供应用程序所需的所有配置项，包括上游数据源、缓存、策略参数、指标与输出设置。
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config 应用配置根结构
// 包含所有子模块的配置项
type Config struct {
	// App 应用基础配置
	App AppConfig `yaml:"app"`
	// Symbols 关注列表，符号维度扫描使用
	Symbols []string `yaml:"symbols"`
	// Upstream 上游申报/行情 API 配置
	Upstream UpstreamConfig `yaml:"upstream"`
	// Stream 实时申报数据流配置（可选）
	Stream StreamConfig `yaml:"stream"`
	// Cache 两层 TTL 缓存配置
	Cache CacheConfig `yaml:"cache"`
	// Strategy 信号策略参数配置
	Strategy StrategyConfig `yaml:"strategy"`
	// Metrics Prometheus 指标配置
	Metrics MetricsConfig `yaml:"metrics"`
	// Output 输出配置
	Output OutputConfig `yaml:"output"`
}

// AppConfig 应用基础配置
type AppConfig struct {
	// Name 应用名称，用于日志标识
	Name string `yaml:"name"`
	// LogLevel 日志级别: debug, info, warn, error
	LogLevel string `yaml:"log_level"`
}

// UpstreamConfig 上游申报/行情 API 配置
type UpstreamConfig struct {
	// BaseURL 申报 API 基础地址
	BaseURL string `yaml:"base_url"`
	// APIKey API 密钥，留空时回退到 FMP_API_KEY 环境变量
	APIKey string `yaml:"api_key"`
	// QuoteProvider 行情提供方: fmp 或 yahoo
	QuoteProvider string `yaml:"quote_provider"`
	// TimeoutMs HTTP 请求超时时间（毫秒）
	TimeoutMs int `yaml:"timeout_ms"`
}

// StreamConfig 实时申报数据流配置
type StreamConfig struct {
	// Enabled 是否启用实时流（watch 模式）
	Enabled bool `yaml:"enabled"`
	// URL WebSocket 连接地址
	URL string `yaml:"url"`
	// PingIntervalMs 心跳间隔（毫秒）
	PingIntervalMs int `yaml:"ping_interval_ms"`
	// ReadTimeoutMs 读取超时（毫秒）
	ReadTimeoutMs int `yaml:"read_timeout_ms"`
}

// CacheConfig 两层 TTL 缓存配置
type CacheConfig struct {
	// Dir 文件层目录
	Dir string `yaml:"dir"`
	// TTLSeconds 缓存有效期（秒）
	TTLSeconds int `yaml:"ttl_seconds"`
}

// StrategyConfig 信号策略参数配置
type StrategyConfig struct {
	// WindowDays 集群检测回溯窗口（天）
	WindowDays int `yaml:"window_days"`
	// MinActors 集群检测最小去重内部人数量
	MinActors int `yaml:"min_actors"`
	// MaxQuoteSymbols 单批补全的行情查询上限（限流准入控制）
	MaxQuoteSymbols int `yaml:"max_quote_symbols"`
	// MinValueUSD 符号维度告警的最小名义价值（USD）
	MinValueUSD float64 `yaml:"min_value_usd"`
	// MarketMinValueUSD 全市场扫描的最小名义价值（USD），需更强的降噪
	MarketMinValueUSD float64 `yaml:"market_min_value_usd"`
	// MaxSymbolsPerScan 符号维度扫描单次访问的符号上限
	MaxSymbolsPerScan int `yaml:"max_symbols_per_scan"`
	// HistoryLimit 集群检测拉取的历史交易条数
	HistoryLimit int `yaml:"history_limit"`
	// MaxBlips 雷达投影的光点上限
	MaxBlips int `yaml:"max_blips"`
}

// MetricsConfig Prometheus 指标配置
type MetricsConfig struct {
	// Enabled 是否暴露指标端点
	Enabled bool `yaml:"enabled"`
	// Addr 指标 HTTP 监听地址，如 :9105
	Addr string `yaml:"addr"`
}

// OutputConfig 输出配置
type OutputConfig struct {
	// Dir 输出目录
	Dir string `yaml:"dir"`
	// AlertsEnabled 是否输出告警文件
	AlertsEnabled bool `yaml:"alerts_enabled"`
	// RadarEnabled 是否输出雷达快照文件
	RadarEnabled bool `yaml:"radar_enabled"`
	// BufferSize 异步写入缓冲区大小
	BufferSize int `yaml:"buffer_size"`
}

// Load 从文件加载配置并验证
// 参数 path: 配置文件路径
// 返回: 解析后的配置对象，若失败则返回错误
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("配置验证失败: %w", err)
	}

	return &cfg, nil
}

// setDefaults 设置配置默认值
func (c *Config) setDefaults() {
	if c.App.Name == "" {
		c.App.Name = "smart-money-radar"
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}

	// 上游默认值
	if c.Upstream.BaseURL == "" {
		c.Upstream.BaseURL = "https://financialmodelingprep.com/api"
	}
	if c.Upstream.APIKey == "" {
		c.Upstream.APIKey = os.Getenv("FMP_API_KEY")
	}
	if c.Upstream.QuoteProvider == "" {
		c.Upstream.QuoteProvider = "fmp"
	}
	if c.Upstream.TimeoutMs == 0 {
		c.Upstream.TimeoutMs = 15000 // 15 秒
	}

	// 实时流默认值
	if c.Stream.PingIntervalMs == 0 {
		c.Stream.PingIntervalMs = 25000 // 25 秒
	}
	if c.Stream.ReadTimeoutMs == 0 {
		c.Stream.ReadTimeoutMs = 30000 // 30 秒
	}

	// 缓存默认值
	if c.Cache.Dir == "" {
		c.Cache.Dir = "./cache/whale"
	}
	if c.Cache.TTLSeconds == 0 {
		c.Cache.TTLSeconds = 300 // 5 分钟
	}

	// 策略默认值
	if c.Strategy.WindowDays == 0 {
		c.Strategy.WindowDays = 30
	}
	if c.Strategy.MinActors == 0 {
		c.Strategy.MinActors = 2
	}
	if c.Strategy.MaxQuoteSymbols == 0 {
		c.Strategy.MaxQuoteSymbols = 20
	}
	if c.Strategy.MinValueUSD == 0 {
		c.Strategy.MinValueUSD = 100_000
	}
	if c.Strategy.MarketMinValueUSD == 0 {
		c.Strategy.MarketMinValueUSD = 500_000
	}
	if c.Strategy.MaxSymbolsPerScan == 0 {
		c.Strategy.MaxSymbolsPerScan = 5
	}
	if c.Strategy.HistoryLimit == 0 {
		c.Strategy.HistoryLimit = 100
	}
	if c.Strategy.MaxBlips == 0 {
		c.Strategy.MaxBlips = 20
	}

	// 指标默认值
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9105"
	}

	// 输出默认值
	if c.Output.Dir == "" {
		c.Output.Dir = "./output"
	}
	if c.Output.BufferSize == 0 {
		c.Output.BufferSize = 1000
	}
}

// Validate 验证配置合法性
// 检查所有必填项和数值范围
// 返回: 若配置无效则返回描述性错误
func (c *Config) Validate() error {
	var errs []string

	// 验证上游配置
	if c.Upstream.BaseURL == "" {
		errs = append(errs, "upstream.base_url: 上游 API 地址不能为空")
	}
	switch strings.ToLower(c.Upstream.QuoteProvider) {
	case "fmp", "yahoo":
	default:
		errs = append(errs, fmt.Sprintf("upstream.quote_provider: 无效的行情提供方 '%s'，有效值: fmp, yahoo", c.Upstream.QuoteProvider))
	}
	if c.Upstream.TimeoutMs <= 0 {
		errs = append(errs, "upstream.timeout_ms: 超时时间必须为正数")
	}

	// 验证实时流配置
	if c.Stream.Enabled && c.Stream.URL == "" {
		errs = append(errs, "stream.url: 启用实时流时 WebSocket 地址不能为空")
	}

	// 验证缓存配置
	if c.Cache.TTLSeconds <= 0 {
		errs = append(errs, "cache.ttl_seconds: 缓存有效期必须为正数")
	}

	// 验证策略参数
	if c.Strategy.WindowDays <= 0 {
		errs = append(errs, "strategy.window_days: 回溯窗口必须为正数")
	}
	if c.Strategy.MinActors < 1 {
		errs = append(errs, "strategy.min_actors: 最小内部人数量必须 >= 1")
	}
	if c.Strategy.MaxQuoteSymbols <= 0 {
		errs = append(errs, "strategy.max_quote_symbols: 行情查询上限必须为正数")
	}
	if c.Strategy.MinValueUSD < 0 {
		errs = append(errs, "strategy.min_value_usd: 名义价值下限不能为负数")
	}
	if c.Strategy.MarketMinValueUSD < 0 {
		errs = append(errs, "strategy.market_min_value_usd: 名义价值下限不能为负数")
	}
	if c.Strategy.MaxBlips <= 0 {
		errs = append(errs, "strategy.max_blips: 光点上限必须为正数")
	}

	// 验证指标配置
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		errs = append(errs, "metrics.addr: 启用指标时监听地址不能为空")
	}

	// 验证日志级别
	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.App.LogLevel)] {
		errs = append(errs, fmt.Sprintf("app.log_level: 无效的日志级别 '%s'，有效值: debug, info, warn, error", c.App.LogLevel))
	}

	if len(errs) > 0 {
		return fmt.Errorf("配置验证错误:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}
