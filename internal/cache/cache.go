// Package cache 实现两层 TTL 读穿缓存。
// 第一层为进程内内存映射，第二层为按 key 落盘的 JSON 文件，
// 文件层以修改时间判断新鲜度，损坏或不可读的文件条目一律按未命中处理，
// 保证持久层不可用时管道仍然正确（只是变慢）。
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"smart-money-radar/internal/metrics"
)

// DefaultTTL 默认缓存有效期（5 分钟）
const DefaultTTL = 300 * time.Second

// memEntry 内存层条目
type memEntry struct {
	// data 序列化后的载荷
	data []byte
	// at 写入时间
	at time.Time
}

// Cache 两层 TTL 缓存
// 读顺序：内存层 -> 文件层（新鲜则回填内存层）；写同时落两层。
// 两层均由互斥锁保护，并发请求抢填同一过期 key 时允许至少一次重算
//（写入幂等，同 key 同值）。
type Cache struct {
	// dir 文件层目录
	dir string
	// ttl 每实例固定的有效期
	ttl time.Duration
	// logger 日志记录器
	logger *zap.Logger
	// metrics 指标（可为 nil）
	metrics *metrics.Metrics

	mu  sync.Mutex
	mem map[string]memEntry

	// nowFn 时钟函数，测试时可替换
	nowFn func() time.Time
}

// New 创建两层 TTL 缓存
// 参数 dir: 文件层目录，会自动创建
// 参数 ttl: 有效期，<=0 时取 DefaultTTL
// 参数 logger: 日志记录器
// 参数 m: 指标集合，可为 nil
func New(dir string, ttl time.Duration, logger *zap.Logger, m *metrics.Metrics) (*Cache, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("创建缓存目录失败: %w", err)
	}

	return &Cache{
		dir:     dir,
		ttl:     ttl,
		logger:  logger,
		metrics: m,
		mem:     make(map[string]memEntry),
		nowFn:   time.Now,
	}, nil
}

// Key 生成规范化缓存 key
// 格式: name_k1=v1_k2=v2，参数按字典序排列，空值参数省略。
// 保证逻辑相同的调用（同函数同参数，与传参顺序无关）命中同一条目，
// 仅多出空/默认参数的调用与省略该参数的调用折叠为同一 key。
func Key(name string, kwargs map[string]string) string {
	parts := []string{name}
	keys := make([]string, 0, len(kwargs))
	for k, v := range kwargs {
		if v == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, k+"="+kwargs[k])
	}
	return strings.Join(parts, "_")
}

// Get 读取缓存
// 参数 key: 规范化 key
// 参数 out: 反序列化目标指针
// 返回: 命中且在 TTL 内返回 true，否则 false
func (c *Cache) Get(key string, out any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.nowFn()

	// 内存层
	if e, ok := c.mem[key]; ok {
		if now.Sub(e.at) < c.ttl {
			if err := json.Unmarshal(e.data, out); err == nil {
				c.metrics.CacheHit("memory")
				return true
			}
			// 载荷与目标类型不符按未命中处理
			delete(c.mem, key)
		} else {
			delete(c.mem, key)
		}
	}

	// 文件层
	path := c.filePath(key)
	info, err := os.Stat(path)
	if err != nil || now.Sub(info.ModTime()) >= c.ttl {
		c.metrics.CacheMiss()
		return false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		c.metrics.CacheMiss()
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		// 文件损坏视为未命中，不向上抛错
		if c.logger != nil {
			c.logger.Debug("缓存文件损坏，按未命中处理", zap.String("key", key), zap.Error(err))
		}
		c.metrics.CacheMiss()
		return false
	}

	// 回填内存层，写入时间取文件修改时间
	c.mem[key] = memEntry{data: data, at: info.ModTime()}
	c.metrics.CacheHit("file")
	return true
}

// Set 写入缓存
// 同时写内存层和文件层；文件层写失败只记录日志，不影响内存层。
// 参数 key: 规范化 key
// 参数 v: 可 JSON 序列化的载荷
func (c *Cache) Set(key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		if c.logger != nil {
			c.logger.Warn("缓存载荷序列化失败", zap.String("key", key), zap.Error(err))
		}
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.mem[key] = memEntry{data: data, at: c.nowFn()}

	if err := os.WriteFile(c.filePath(key), data, 0o644); err != nil {
		if c.logger != nil {
			c.logger.Debug("缓存文件写入失败", zap.String("key", key), zap.Error(err))
		}
	}
}

// filePath 计算 key 对应的文件路径
// key 中的路径分隔符替换为下划线，避免逃出缓存目录。
func (c *Cache) filePath(key string) string {
	safe := strings.NewReplacer("/", "_", string(os.PathSeparator), "_").Replace(key)
	return filepath.Join(c.dir, safe+".json")
}
