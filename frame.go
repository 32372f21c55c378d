package main

import (
	"encoding/binary"
	"fmt"
)

// FieldDescriptor 酬載欄位描述 (型別 + 在欄位清單中的序號)
type FieldDescriptor struct {
	Code     TypeCode
	Position int
}

// MessageDescriptor 一組酬載欄位配置，由標頭行建立後不再變動
type MessageDescriptor struct {
	fields []FieldDescriptor
}

// NewMessageDescriptor 由型別代碼建立描述 (不含 CLASS/ID)
func NewMessageDescriptor(codes ...TypeCode) *MessageDescriptor {
	fields := make([]FieldDescriptor, len(codes))
	for i, tc := range codes {
		fields[i] = FieldDescriptor{Code: tc, Position: i}
	}
	return &MessageDescriptor{fields: fields}
}

// ParseHeader 解析標頭行，前兩欄必須為 CLASS 與 ID
func ParseHeader(tokens []string) (*MessageDescriptor, error) {
	if len(tokens) < ImplicitColumns || tokens[0] != HeaderClassColumn || tokens[1] != HeaderIDColumn {
		return nil, ErrMalformedHeader
	}

	codes := make([]TypeCode, 0, len(tokens)-ImplicitColumns)
	for _, tok := range tokens[ImplicitColumns:] {
		tc, err := ParseTypeCode(tok)
		if err != nil {
			return nil, err
		}
		codes = append(codes, tc)
	}
	return NewMessageDescriptor(codes...), nil
}

// Fields 返回欄位描述的副本
func (d *MessageDescriptor) Fields() []FieldDescriptor {
	result := make([]FieldDescriptor, len(d.fields))
	copy(result, d.fields)
	return result
}

// Columns 資料列應有的欄位數 (含 CLASS/ID)
func (d *MessageDescriptor) Columns() int {
	return len(d.fields) + ImplicitColumns
}

// PayloadLength 酬載位元組數
func (d *MessageDescriptor) PayloadLength() int {
	n := 0
	for _, f := range d.fields {
		n += f.Code.Width()
	}
	return n
}

// HeaderTokens 還原標頭行欄位
func (d *MessageDescriptor) HeaderTokens() []string {
	tokens := []string{HeaderClassColumn, HeaderIDColumn}
	for _, f := range d.fields {
		tokens = append(tokens, f.Code.String())
	}
	return tokens
}

// Frame 完整的 UBX 訊框，建立後不可變更
type Frame struct {
	raw []byte
}

// NewFrame 組裝同步字元、標頭、酬載與校驗碼
func NewFrame(class, id byte, payload []byte) (Frame, error) {
	if len(payload) > MaxPayloadLength {
		return Frame{}, fmt.Errorf("%w: 酬載長度 %d", ErrValueOutOfRange, len(payload))
	}

	raw := make([]byte, 0, len(payload)+FrameOverhead)
	raw = append(raw, SyncChar1, SyncChar2, class, id)
	raw = binary.LittleEndian.AppendUint16(raw, uint16(len(payload)))
	raw = append(raw, payload...)

	ckA, ckB := Checksum(raw[2:])
	raw = append(raw, ckA, ckB)

	return Frame{raw: raw}, nil
}

// Bytes 返回訊框位元組的副本
func (f Frame) Bytes() []byte {
	result := make([]byte, len(f.raw))
	copy(result, f.raw)
	return result
}

// Len 訊框總長度
func (f Frame) Len() int {
	return len(f.raw)
}

func (f Frame) Class() byte {
	return f.raw[2]
}

func (f Frame) ID() byte {
	return f.raw[3]
}

// Length 長度欄位的值
func (f Frame) Length() uint16 {
	return binary.LittleEndian.Uint16(f.raw[4:6])
}

// Payload 返回酬載副本
func (f Frame) Payload() []byte {
	payload := f.raw[FrameHeaderLength : len(f.raw)-FrameChecksumLength]
	result := make([]byte, len(payload))
	copy(result, payload)
	return result
}

// Checksum 返回訊框尾端的兩個校驗位元組
func (f Frame) Checksum() (byte, byte) {
	n := len(f.raw)
	return f.raw[n-2], f.raw[n-1]
}

// FieldSpan 訊框中一個欄位的名稱與位元組
type FieldSpan struct {
	Name  string
	Bytes []byte
}

// Spans 依描述切分訊框，values 為 CLASS/ID 之後的原始文字值
func (f Frame) Spans(desc *MessageDescriptor, values []string) []FieldSpan {
	spans := []FieldSpan{
		{Name: "Sync Char 1", Bytes: f.raw[0:1]},
		{Name: "Sync Char 2", Bytes: f.raw[1:2]},
		{Name: HeaderClassColumn, Bytes: f.raw[2:3]},
		{Name: HeaderIDColumn, Bytes: f.raw[3:4]},
		{Name: "LENGTH", Bytes: f.raw[4:6]},
	}

	idx := FrameHeaderLength
	for i, field := range desc.fields {
		width := field.Code.Width()
		name := field.Code.String()
		if i < len(values) {
			name = fmt.Sprintf("%s(%s)", name, values[i])
		}
		spans = append(spans, FieldSpan{Name: name, Bytes: f.raw[idx : idx+width]})
		idx += width
	}

	n := len(f.raw)
	spans = append(spans,
		FieldSpan{Name: "Checksum A", Bytes: f.raw[n-2 : n-1]},
		FieldSpan{Name: "Checksum B", Bytes: f.raw[n-1:]},
	)
	return spans
}

// Checksum 計算 UBX 8-bit Fletcher 校驗碼
// data 範圍為 CLASS、ID、LENGTH 與酬載，不含同步字元
func Checksum(data []byte) (ckA, ckB byte) {
	for _, b := range data {
		ckA += b
		ckB += ckA
	}
	return ckA, ckB
}

// FrameBuilder 依描述將資料列組成訊框
type FrameBuilder struct {
	encoder *FieldEncoder
}

// NewFrameBuilder 建立訊框建構器
func NewFrameBuilder(policy OverflowPolicy) *FrameBuilder {
	return &FrameBuilder{encoder: NewFieldEncoder(policy)}
}

// Build 將一列文字值 (CLASS, ID, 欄位...) 編碼為訊框
// 任何欄位失敗時不產生部分訊框
func (b *FrameBuilder) Build(desc *MessageDescriptor, row []string) (Frame, error) {
	if len(row) != desc.Columns() {
		return Frame{}, fmt.Errorf("%w: 預期 %d 欄，實際 %d 欄", ErrRowFieldCountMismatch, desc.Columns(), len(row))
	}

	class, err := b.headerByte(HeaderClassColumn, row[0])
	if err != nil {
		return Frame{}, err
	}
	id, err := b.headerByte(HeaderIDColumn, row[1])
	if err != nil {
		return Frame{}, err
	}

	payload := make([]byte, 0, desc.PayloadLength())
	for i, field := range desc.fields {
		raw := row[ImplicitColumns+i]
		v, err := ParseValue(field.Code, raw)
		if err != nil {
			return Frame{}, fmt.Errorf("欄位 %d (%s): %w", field.Position, field.Code, err)
		}
		payload, err = b.encoder.Append(payload, field.Code, v)
		if err != nil {
			return Frame{}, fmt.Errorf("欄位 %d (%s): %w", field.Position, field.Code, err)
		}
	}

	return NewFrame(class, id, payload)
}

// headerByte CLASS 與 ID 皆以單一無號位元組編碼
func (b *FrameBuilder) headerByte(column, raw string) (byte, error) {
	encoded, err := b.encoder.EncodeRaw(TypeU1, raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", column, err)
	}
	return encoded[0], nil
}
