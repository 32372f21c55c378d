package main

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownTypeCode       = errors.New("ubx: 未知的型別代碼")
	ErrInvalidIntegerLiteral = errors.New("ubx: 無效的整數字面值")
	ErrInvalidFloatLiteral   = errors.New("ubx: 無效的浮點數字面值")
	ErrInvalidCharLiteral    = errors.New("ubx: 無效的字元字面值")
	ErrRowFieldCountMismatch = errors.New("ubx: 資料列欄位數與標頭不符")
	ErrDescriptorMissing     = errors.New("ubx: 資料列之前缺少標頭")
	ErrValueOutOfRange       = errors.New("ubx: 數值超出型別範圍")
	ErrMalformedHeader       = errors.New("ubx: 標頭必須以 CLASS 與 ID 欄位開始")
)

// LineError 帶有輸入行號的轉換錯誤
type LineError struct {
	Line int
	Text string
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("第 %d 行 (%s): %v", e.Line, e.Text, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

// errorReason 將錯誤歸類為指標標籤
func errorReason(err error) string {
	switch {
	case errors.Is(err, ErrUnknownTypeCode):
		return "unknown_type_code"
	case errors.Is(err, ErrInvalidIntegerLiteral):
		return "invalid_integer_literal"
	case errors.Is(err, ErrInvalidFloatLiteral):
		return "invalid_float_literal"
	case errors.Is(err, ErrInvalidCharLiteral):
		return "invalid_char_literal"
	case errors.Is(err, ErrRowFieldCountMismatch):
		return "row_field_count_mismatch"
	case errors.Is(err, ErrDescriptorMissing):
		return "descriptor_missing"
	case errors.Is(err, ErrValueOutOfRange):
		return "value_out_of_range"
	case errors.Is(err, ErrMalformedHeader):
		return "malformed_header"
	default:
		return "other"
	}
}
