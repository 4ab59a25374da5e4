// Package stream 实现申报数据流的 WebSocket 客户端。
// 连接配置的推送地址，接收实时内部人申报消息，
// 心跳机制: 文本 ping/pong，默认 25 秒间隔。
package stream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"smart-money-radar/internal/config"
	"smart-money-radar/internal/core/model"
	"smart-money-radar/internal/util/backoff"
	"smart-money-radar/internal/util/fastparse"
	"smart-money-radar/internal/util/timeutil"
)

// SubscribeRequest 订阅请求
type SubscribeRequest struct {
	// Op 操作类型，固定为 subscribe
	Op string `json:"op"`
	// Symbols 订阅的股票代码列表，空表示全市场
	Symbols []string `json:"symbols,omitempty"`
}

// Client 申报数据流 WebSocket 客户端
type Client struct {
	// cfg 数据流配置
	cfg *config.StreamConfig
	// symbols 订阅的股票代码
	symbols []string
	// logger 日志记录器
	logger *zap.Logger
	// conn WebSocket 连接
	conn *websocket.Conn
	// connMu 连接锁
	connMu sync.Mutex
	// txCh 交易事件输出通道
	txCh chan *model.Transaction
	// lastMsgTime 最后消息时间（纳秒）
	lastMsgTime int64
	// backoff 重连退避
	backoff *backoff.Backoff
	// closed 是否已关闭
	closed int32

	// parseErrSampleCount 解析错误计数（用于采样日志）
	parseErrSampleCount uint64
	// lastParseErrLogNs 上次解析错误日志时间（纳秒）
	lastParseErrLogNs int64
}

// NewClient 创建申报数据流客户端
// 参数 cfg: 数据流配置
// 参数 symbols: 订阅的股票代码，空表示全市场
// 参数 logger: 日志记录器
func NewClient(cfg *config.StreamConfig, symbols []string, logger *zap.Logger) *Client {
	return &Client{
		cfg:     cfg,
		symbols: symbols,
		logger:  logger.Named("stream"),
		txCh:    make(chan *model.Transaction, 1000),
		backoff: backoff.NewDefault(),
	}
}

// Connect 建立 WebSocket 连接
// 参数 ctx: 上下文，用于取消连接
func (c *Client) Connect(ctx context.Context) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	header := http.Header{}
	header.Set("User-Agent", "smart-money-radar/1.0")

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, c.cfg.URL, header)
	if err != nil {
		return fmt.Errorf("连接申报数据流失败: %w", err)
	}

	c.conn = conn
	c.backoff.Reset()
	c.logger.Info("申报数据流连接成功", zap.String("url", c.cfg.URL))

	return nil
}

// Subscribe 订阅申报推送
func (c *Client) Subscribe() error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn == nil {
		return fmt.Errorf("WebSocket 未连接")
	}

	req := SubscribeRequest{
		Op:      "subscribe",
		Symbols: c.symbols,
	}

	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("序列化订阅请求失败: %w", err)
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("发送订阅请求失败: %w", err)
	}

	c.logger.Info("申报订阅请求已发送", zap.Int("symbols", len(c.symbols)))
	return nil
}

// Run 启动客户端主循环
// 包含读取循环和心跳循环
func (c *Client) Run(ctx context.Context) {
	go c.heartbeatLoop(ctx)
	c.readLoop(ctx)
}

// readLoop 读取循环
// 持续读取 WebSocket 消息并解析为交易事件
func (c *Client) readLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if atomic.LoadInt32(&c.closed) == 1 {
			return
		}

		c.connMu.Lock()
		conn := c.conn
		c.connMu.Unlock()

		if conn == nil {
			c.reconnect(ctx)
			continue
		}

		conn.SetReadDeadline(time.Now().Add(time.Duration(c.cfg.ReadTimeoutMs) * time.Millisecond))
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.logger.Warn("读取申报消息失败", zap.Error(err))
			c.reconnect(ctx)
			continue
		}

		atomic.StoreInt64(&c.lastMsgTime, timeutil.NowNano())

		if bytes.Equal(data, []byte("pong")) {
			continue
		}

		tx, err := parseTransaction(data)
		if err != nil {
			c.maybeLogParseError(err, data)
			continue
		}
		if tx == nil {
			// 订阅确认等非申报消息
			continue
		}

		select {
		case c.txCh <- tx:
		default:
			c.logger.Warn("申报事件通道已满，丢弃事件")
		}
	}
}

// parseTransaction 解析申报推送消息
// 返回 nil 交易且无错误表示消息合法但不是申报记录。
func parseTransaction(data []byte) (*model.Transaction, error) {
	var msg map[string]any
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("解析申报消息失败: %w", err)
	}

	// 订阅响应不携带 symbol 字段
	if _, ok := msg["event"]; ok {
		return nil, nil
	}

	symbol, _ := msg["symbol"].(string)
	if symbol == "" {
		return nil, fmt.Errorf("申报消息缺少 symbol 字段")
	}

	company, _ := msg["companyName"].(string)
	if company == "" {
		company = symbol
	}
	reporter, _ := msg["reportingName"].(string)
	if reporter == "" {
		reporter = "Unknown"
	}
	title, _ := msg["typeOfOwner"].(string)
	if title == "" {
		title = "Insider"
	}
	txType, _ := msg["transactionType"].(string)
	date, _ := msg["transactionDate"].(string)
	// 推送与拉取走同一套容错数值转换，字符串编码的股数/价格同样接受
	shares := fastparse.ToFloat(msg["securitiesTransacted"])
	price := fastparse.ToFloat(msg["price"])

	tx := model.NewTransaction(symbol, company, reporter, title, txType, date, shares, price)
	return &tx, nil
}

// heartbeatLoop 心跳循环
// 按配置间隔发送文本 ping
func (c *Client) heartbeatLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Duration(c.cfg.PingIntervalMs) * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if atomic.LoadInt32(&c.closed) == 1 {
				return
			}

			c.connMu.Lock()
			conn := c.conn
			if conn == nil {
				c.connMu.Unlock()
				continue
			}

			// gorilla/websocket 不允许并发多写者，用 connMu 串行化写入
			if err := conn.WriteMessage(websocket.TextMessage, []byte("ping")); err != nil {
				c.connMu.Unlock()
				c.logger.Warn("发送申报流 ping 失败", zap.Error(err))
				continue
			}
			c.connMu.Unlock()
		}
	}
}

// reconnect 重连
func (c *Client) reconnect(ctx context.Context) {
	c.closeConn()

	delay := c.backoff.Next()
	c.logger.Info("申报数据流准备重连", zap.Duration("delay", delay))

	select {
	case <-ctx.Done():
		return
	case <-time.After(delay):
	}

	if err := c.Connect(ctx); err != nil {
		c.logger.Error("申报数据流重连失败", zap.Error(err))
		return
	}

	if err := c.Subscribe(); err != nil {
		c.logger.Error("申报数据流重新订阅失败", zap.Error(err))
	}
}

// closeConn 关闭连接
func (c *Client) closeConn() {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

// Close 关闭客户端
func (c *Client) Close() error {
	atomic.StoreInt32(&c.closed, 1)
	c.closeConn()
	close(c.txCh)
	c.logger.Info("申报数据流客户端已关闭")
	return nil
}

// TxCh 获取交易事件通道
func (c *Client) TxCh() <-chan *model.Transaction {
	return c.txCh
}

// maybeLogParseError 采样记录解析错误原始消息，避免刷盘
// 采样策略：每 100 次错误记录 1 条，且同一类日志至少间隔 1 分钟。
func (c *Client) maybeLogParseError(err error, data []byte) {
	count := atomic.AddUint64(&c.parseErrSampleCount, 1)
	if count%100 != 1 {
		return
	}

	nowNs := timeutil.NowNano()
	last := atomic.LoadInt64(&c.lastParseErrLogNs)
	if last > 0 && nowNs-last < int64(time.Minute) {
		return
	}
	atomic.StoreInt64(&c.lastParseErrLogNs, nowNs)

	sample := data
	if len(sample) > 200 {
		sample = sample[:200]
	}
	c.logger.Warn("解析申报消息失败（采样）", zap.Error(err), zap.ByteString("data", sample))
}
