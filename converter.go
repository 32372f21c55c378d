package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
)

// ConverterState 轉換器狀態
type ConverterState int

const (
	StateAwaitingLine ConverterState = iota
	StateHaveDescriptor
)

func (s ConverterState) String() string {
	switch s {
	case StateAwaitingLine:
		return "awaiting_line"
	case StateHaveDescriptor:
		return "have_descriptor"
	default:
		return "unknown"
	}
}

// maxLineLength 單行上限
const maxLineLength = 1024 * 1024

// Summary 轉換結果統計
type Summary struct {
	Lines       int
	Descriptors int
	Frames      int
	Bytes       int
	Rejected    int
	Errors      []error
}

// Converter 描述檔驅動的批次轉換器
type Converter struct {
	builder *FrameBuilder
	sink    FrameSink
	metrics *MetricsCollector
	logger  *zap.Logger

	// 狀態
	state   ConverterState
	desc    *MessageDescriptor
	line    int
	summary Summary
}

// ConverterOption 轉換器選項
type ConverterOption func(*Converter)

// WithLogger 設定日誌
func WithLogger(logger *zap.Logger) ConverterOption {
	return func(c *Converter) {
		c.logger = logger
	}
}

// WithOverflowPolicy 設定溢位策略
func WithOverflowPolicy(policy OverflowPolicy) ConverterOption {
	return func(c *Converter) {
		c.builder = NewFrameBuilder(policy)
	}
}

// WithMetrics 設定指標收集器
func WithMetrics(metrics *MetricsCollector) ConverterOption {
	return func(c *Converter) {
		c.metrics = metrics
	}
}

// NewConverter 建立轉換器
func NewConverter(sink FrameSink, opts ...ConverterOption) *Converter {
	c := &Converter{
		builder: NewFrameBuilder(OverflowReject),
		sink:    sink,
		logger:  zap.NewNop(),
		state:   StateAwaitingLine,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State 目前狀態
func (c *Converter) State() ConverterState {
	return c.state
}

// Summary 目前為止的統計
func (c *Converter) Summary() Summary {
	s := c.summary
	s.Errors = append([]error(nil), c.summary.Errors...)
	return s
}

// ConvertFile 開啟並轉換描述檔
func (c *Converter) ConvertFile(path string) (Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		return c.Summary(), fmt.Errorf("開啟描述檔失敗: %w", err)
	}
	defer f.Close()

	return c.Convert(f)
}

// Convert 逐行讀取並轉換，每個訊框在讀取下一行前寫出
// 資料列錯誤會被記錄並略過；標頭錯誤與輸出錯誤則中止轉換
func (c *Converter) Convert(r io.Reader) (Summary, error) {
	if c.metrics != nil {
		c.metrics.Begin()
		defer c.metrics.End()
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)

	for scanner.Scan() {
		if err := c.ProcessLine(scanner.Text()); err != nil {
			return c.Summary(), err
		}
	}
	if err := scanner.Err(); err != nil {
		return c.Summary(), fmt.Errorf("讀取描述檔失敗: %w", err)
	}

	c.logger.Info("轉換完成",
		zap.Int("lines", c.summary.Lines),
		zap.Int("descriptors", c.summary.Descriptors),
		zap.Int("frames", c.summary.Frames),
		zap.Int("bytes", c.summary.Bytes),
		zap.Int("rejected", c.summary.Rejected),
	)
	return c.Summary(), nil
}

// ProcessLine 處理一行輸入，只有無法繼續時才返回錯誤
func (c *Converter) ProcessLine(text string) error {
	c.line++
	c.summary.Lines++

	line := strings.TrimSpace(text)
	switch {
	case line == "":
		return nil
	case strings.HasPrefix(line, CommentPrefix):
		return c.sink.Comment(line)
	}

	tokens := splitTokens(line)
	if tokens[0] == HeaderClassColumn {
		return c.handleHeader(line, tokens)
	}
	return c.handleRow(line, tokens)
}

func (c *Converter) handleHeader(line string, tokens []string) error {
	desc, err := ParseHeader(tokens)
	if err != nil {
		// 標頭無效時其後的資料列都無法解讀
		c.desc = nil
		c.state = StateAwaitingLine
		lineErr := &LineError{Line: c.line, Text: line, Err: err}
		c.summary.Errors = append(c.summary.Errors, lineErr)
		c.logger.Error("標頭無效，中止轉換",
			zap.Int("line", c.line),
			zap.String("text", line),
			zap.Error(err),
		)
		return lineErr
	}

	c.desc = desc
	c.state = StateHaveDescriptor
	c.summary.Descriptors++
	if c.metrics != nil {
		c.metrics.RecordDescriptor()
	}

	c.logger.Debug("載入訊息描述",
		zap.Int("line", c.line),
		zap.Strings("columns", desc.HeaderTokens()),
		zap.Int("payload_length", desc.PayloadLength()),
	)
	return c.sink.Descriptor(desc)
}

func (c *Converter) handleRow(line string, tokens []string) error {
	if c.state != StateHaveDescriptor {
		c.reject(line, ErrDescriptorMissing)
		return nil
	}

	frame, err := c.builder.Build(c.desc, tokens)
	if err != nil {
		c.reject(line, err)
		return nil
	}

	rec := FrameRecord{
		Line:       c.line,
		Descriptor: c.desc,
		Row:        tokens,
		Frame:      frame,
	}
	if err := c.sink.WriteFrame(rec); err != nil {
		return fmt.Errorf("第 %d 行: %w", c.line, err)
	}

	c.summary.Frames++
	c.summary.Bytes += frame.Len()
	if c.metrics != nil {
		c.metrics.RecordFrame(frame.Len())
	}
	return nil
}

// reject 記錄被拒絕的資料列，轉換繼續
func (c *Converter) reject(line string, err error) {
	lineErr := &LineError{Line: c.line, Text: line, Err: err}
	c.summary.Rejected++
	c.summary.Errors = append(c.summary.Errors, lineErr)
	if c.metrics != nil {
		c.metrics.RecordRejected(err)
	}

	c.logger.Warn("資料列被拒絕",
		zap.Int("line", c.line),
		zap.String("text", line),
		zap.Error(err),
	)
}

// splitTokens 以逗號切分並去除前後空白
func splitTokens(line string) []string {
	tokens := strings.Split(line, ",")
	for i, tok := range tokens {
		tokens[i] = strings.TrimSpace(tok)
	}
	return tokens
}

