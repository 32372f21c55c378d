package main

import (
	"encoding/binary"
	"fmt"
	"math"
)

// OverflowPolicy 數值超出欄位寬度時的處理方式
type OverflowPolicy int

const (
	// OverflowReject 拒絕該資料列
	OverflowReject OverflowPolicy = iota
	// OverflowWrap 截斷為欄位寬度 (與舊版輸出逐位元組相容)
	OverflowWrap
)

func (p OverflowPolicy) String() string {
	switch p {
	case OverflowReject:
		return "reject"
	case OverflowWrap:
		return "wrap"
	default:
		return "unknown"
	}
}

// ParseOverflowPolicy 解析溢位策略
func ParseOverflowPolicy(s string) (OverflowPolicy, error) {
	switch s {
	case "", "reject":
		return OverflowReject, nil
	case "wrap":
		return OverflowWrap, nil
	default:
		return OverflowReject, fmt.Errorf("無效的溢位策略: %s", s)
	}
}

// FieldEncoder 將中間值打包為小端序位元組
type FieldEncoder struct {
	policy OverflowPolicy
}

// NewFieldEncoder 建立欄位編碼器
func NewFieldEncoder(policy OverflowPolicy) *FieldEncoder {
	return &FieldEncoder{policy: policy}
}

// Encode 將單一欄位編碼為剛好 Width() 個位元組
func (e *FieldEncoder) Encode(tc TypeCode, v Value) ([]byte, error) {
	return e.Append(nil, tc, v)
}

// EncodeRaw 解析文字值並編碼
func (e *FieldEncoder) EncodeRaw(tc TypeCode, raw string) ([]byte, error) {
	v, err := ParseValue(tc, raw)
	if err != nil {
		return nil, err
	}
	return e.Encode(tc, v)
}

// Append 將編碼結果附加到 dst
func (e *FieldEncoder) Append(dst []byte, tc TypeCode, v Value) ([]byte, error) {
	if !tc.Valid() {
		return dst, fmt.Errorf("%w: %d", ErrUnknownTypeCode, int(tc))
	}

	width := tc.Width()

	switch tc.Kind() {
	case KindUnsigned, KindBitfield, KindSigned:
		if e.policy == OverflowReject && !fitsWidth(tc.Kind(), width, v.Int) {
			return dst, fmt.Errorf("%w: %s 無法表示 %d", ErrValueOutOfRange, tc, v.Int)
		}
		return appendUint(dst, width, uint64(v.Int)), nil

	case KindFloat:
		if width == 4 {
			f := float32(v.Float)
			if e.policy == OverflowReject && math.IsInf(float64(f), 0) && !math.IsInf(v.Float, 0) {
				return dst, fmt.Errorf("%w: %s 無法表示 %g", ErrValueOutOfRange, tc, v.Float)
			}
			return binary.LittleEndian.AppendUint32(dst, math.Float32bits(f)), nil
		}
		return binary.LittleEndian.AppendUint64(dst, math.Float64bits(v.Float)), nil

	case KindChar:
		return append(dst, v.Char), nil
	}

	return dst, fmt.Errorf("%w: %s", ErrUnknownTypeCode, tc)
}

// fitsWidth 檢查整數是否可用指定寬度表示
func fitsWidth(kind Kind, width int, n int64) bool {
	bits := uint(width * 8)
	if kind == KindSigned {
		lo := -(int64(1) << (bits - 1))
		hi := int64(1)<<(bits-1) - 1
		return n >= lo && n <= hi
	}
	if n < 0 {
		return false
	}
	return uint64(n) <= uint64(1)<<bits-1
}

// appendUint 以小端序附加 width 個位元組，超出的高位元被截斷
func appendUint(dst []byte, width int, u uint64) []byte {
	switch width {
	case 1:
		return append(dst, byte(u))
	case 2:
		return binary.LittleEndian.AppendUint16(dst, uint16(u))
	case 4:
		return binary.LittleEndian.AppendUint32(dst, uint32(u))
	default:
		return binary.LittleEndian.AppendUint64(dst, u)
	}
}
