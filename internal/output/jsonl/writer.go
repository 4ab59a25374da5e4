// Package jsonl 实现扫描结果的异步 JSONL 落盘。
// 每轮扫描产出的告警和雷达快照逐行追加到输出文件，
// JSON 编码与文件 I/O 在后台 goroutine 完成，投递路径不阻塞。
package jsonl

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"
)

// 输出文件名
const (
	// AlertsFile 告警输出文件
	AlertsFile = "alerts.jsonl"
	// RadarFile 雷达快照输出文件
	RadarFile = "radar.jsonl"
)

// Record 落盘记录信封
// 每条记录带上扫描时间与记录类别，便于下游按类别过滤回放。
type Record struct {
	// ScanTime 扫描时间，RFC3339
	ScanTime string `json:"scan_time"`
	// Kind 记录类别: alert 或 radar
	Kind string `json:"kind"`
	// Payload 记录内容
	Payload any `json:"payload"`
}

// control 控制请求，flush 与 close 复用
type control struct {
	closing bool
	done    chan error
}

// Writer 异步 JSONL 写入器
// Write 只负责投递，实际编码与落盘在后台 goroutine 完成。
type Writer struct {
	// path 输出文件路径
	path string
	// kind 记录类别
	kind string
	// records 数据通道，容量即写入缓冲区大小
	records chan Record
	// ctl 控制通道，flush/close 经此同步
	ctl chan control

	closeOnce sync.Once
	closeErr  error
	closed    int32

	// sendMu 保证关闭后不再向通道投递
	sendMu sync.Mutex

	wg sync.WaitGroup
}

// NewAlertWriter 创建告警写入器，输出到 dir/alerts.jsonl
func NewAlertWriter(dir string, bufferSize int) (*Writer, error) {
	return newWriter(filepath.Join(dir, AlertsFile), "alert", bufferSize)
}

// NewRadarWriter 创建雷达快照写入器，输出到 dir/radar.jsonl
func NewRadarWriter(dir string, bufferSize int) (*Writer, error) {
	return newWriter(filepath.Join(dir, RadarFile), "radar", bufferSize)
}

func newWriter(path, kind string, bufferSize int) (*Writer, error) {
	if bufferSize <= 0 {
		bufferSize = 1000
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("创建输出目录失败: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("打开输出文件失败: %w", err)
	}

	w := &Writer{
		path:    path,
		kind:    kind,
		records: make(chan Record, bufferSize),
		ctl:     make(chan control),
	}

	w.wg.Add(1)
	go w.loop(f)

	return w, nil
}

// Write 异步写入一条记录，自动包上扫描时间信封
func (w *Writer) Write(payload any) error {
	if w == nil {
		return fmt.Errorf("writer 为空")
	}
	rec := Record{
		ScanTime: time.Now().Format(time.RFC3339),
		Kind:     w.kind,
		Payload:  payload,
	}
	w.sendMu.Lock()
	defer w.sendMu.Unlock()
	if atomic.LoadInt32(&w.closed) == 1 {
		return fmt.Errorf("writer 已关闭")
	}
	w.records <- rec
	return nil
}

// Flush 写出所有已投递记录并强制 flush 文件缓冲区
func (w *Writer) Flush() error {
	if w == nil {
		return nil
	}
	w.sendMu.Lock()
	defer w.sendMu.Unlock()
	if atomic.LoadInt32(&w.closed) == 1 {
		return nil
	}
	done := make(chan error, 1)
	w.ctl <- control{done: done}
	return <-done
}

// Close 关闭写入器（会先写出积压记录并 flush）
func (w *Writer) Close() error {
	if w == nil {
		return nil
	}
	w.closeOnce.Do(func() {
		w.sendMu.Lock()
		defer w.sendMu.Unlock()
		atomic.StoreInt32(&w.closed, 1)
		done := make(chan error, 1)
		w.ctl <- control{closing: true, done: done}
		w.closeErr = <-done
	})
	w.wg.Wait()
	return w.closeErr
}

// loop 后台写入循环，数据通道与控制通道二选一。
// 处理控制请求前先清空积压数据，保证 flush 不丢先到的记录。
func (w *Writer) loop(f *os.File) {
	defer w.wg.Done()
	defer f.Close()

	bw := bufio.NewWriterSize(f, 1<<20) // 1MB buffer

	for {
		select {
		case rec := <-w.records:
			writeRecord(bw, rec)
		case req := <-w.ctl:
			w.drain(bw)
			req.done <- bw.Flush()
			if req.closing {
				return
			}
		}
	}
}

// drain 非阻塞写出数据通道中的全部积压记录
func (w *Writer) drain(bw *bufio.Writer) {
	for {
		select {
		case rec := <-w.records:
			writeRecord(bw, rec)
		default:
			return
		}
	}
}

func writeRecord(bw *bufio.Writer, rec Record) {
	b, err := json.Marshal(rec)
	if err != nil {
		return
	}
	if _, err := bw.Write(b); err != nil {
		return
	}
	_ = bw.WriteByte('\n')
}
