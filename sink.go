package main

import (
	"fmt"
	"io"
	"strings"
)

// FrameRecord 一個已編碼的資料列
type FrameRecord struct {
	Line       int
	Descriptor *MessageDescriptor
	Row        []string
	Frame      Frame
}

// FrameSink 訊框輸出介面
type FrameSink interface {
	// Comment 收到註解行
	Comment(line string) error

	// Descriptor 收到新的標頭
	Descriptor(desc *MessageDescriptor) error

	// WriteFrame 輸出一個訊框，返回前必須完成寫出
	WriteFrame(rec FrameRecord) error
}

// RawSink 將訊框位元組直接寫到二進位輸出，訊框之間無分隔
type RawSink struct {
	w io.Writer
}

// NewRawSink 建立原始輸出
func NewRawSink(w io.Writer) *RawSink {
	return &RawSink{w: w}
}

func (s *RawSink) Comment(string) error { return nil }

func (s *RawSink) Descriptor(*MessageDescriptor) error { return nil }

func (s *RawSink) WriteFrame(rec FrameRecord) error {
	if _, err := s.w.Write(rec.Frame.Bytes()); err != nil {
		return fmt.Errorf("寫出訊框失敗: %w", err)
	}
	if f, ok := s.w.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}

// DiagnosticSink 以文字逐欄列出訊框內容，不輸出原始位元組
type DiagnosticSink struct {
	w io.Writer
}

// NewDiagnosticSink 建立診斷輸出
func NewDiagnosticSink(w io.Writer) *DiagnosticSink {
	return &DiagnosticSink{w: w}
}

func (s *DiagnosticSink) Comment(line string) error {
	_, err := fmt.Fprintln(s.w, line)
	return err
}

func (s *DiagnosticSink) Descriptor(desc *MessageDescriptor) error {
	_, err := fmt.Fprintf(s.w, "%s\ncolumns: [%s]\n\n",
		strings.Repeat("=", 39), strings.Join(desc.HeaderTokens(), " "))
	return err
}

func (s *DiagnosticSink) WriteFrame(rec FrameRecord) error {
	var b strings.Builder

	frame := rec.Frame
	fmt.Fprintf(&b, "values: [%s]\n", strings.Join(rec.Row, " "))
	fmt.Fprintf(&b, "%d field bytes, %d bytes total\n", frame.Len()-FrameOverhead, frame.Len())
	fmt.Fprintln(&b, hexBytes(frame.Bytes()))

	for _, span := range frame.Spans(rec.Descriptor, rec.Row[ImplicitColumns:]) {
		fmt.Fprintf(&b, "%-15s: %s\n", span.Name, hexBytes(span.Bytes))
	}
	b.WriteString("\n")

	_, err := io.WriteString(s.w, b.String())
	return err
}

// hexBytes 以空白分隔的大寫十六進位字串
func hexBytes(data []byte) string {
	parts := make([]string, len(data))
	for i, v := range data {
		parts[i] = fmt.Sprintf("%02X", v)
	}
	return strings.Join(parts, " ")
}
