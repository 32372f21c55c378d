package main

import (
	"errors"
	"fmt"
	"strconv"
)

// Value 欄位的中間表示 (解析後、打包前)
type Value struct {
	Int   int64
	Float float64
	Char  byte
}

// typeInfo 型別表項目
type typeInfo struct {
	name  string
	width int
	kind  Kind
	parse func(raw string) (Value, error)
}

// typeTable 型別註冊表，以 TypeCode 為索引，程式啟動後唯讀
var typeTable = [typeCodeCount]typeInfo{
	TypeU1: {name: "U1", width: 1, kind: KindUnsigned, parse: parseIntLiteral},
	TypeI1: {name: "I1", width: 1, kind: KindSigned, parse: parseIntLiteral},
	TypeX1: {name: "X1", width: 1, kind: KindBitfield, parse: parseIntLiteral},
	TypeU2: {name: "U2", width: 2, kind: KindUnsigned, parse: parseIntLiteral},
	TypeI2: {name: "I2", width: 2, kind: KindSigned, parse: parseIntLiteral},
	TypeX2: {name: "X2", width: 2, kind: KindBitfield, parse: parseIntLiteral},
	TypeU4: {name: "U4", width: 4, kind: KindUnsigned, parse: parseIntLiteral},
	TypeI4: {name: "I4", width: 4, kind: KindSigned, parse: parseIntLiteral},
	TypeX4: {name: "X4", width: 4, kind: KindBitfield, parse: parseIntLiteral},
	TypeR4: {name: "R4", width: 4, kind: KindFloat, parse: parseFloatLiteral},
	TypeR8: {name: "R8", width: 8, kind: KindFloat, parse: parseFloatLiteral},
	TypeCH: {name: "CH", width: 1, kind: KindChar, parse: parseCharLiteral},
}

// typeCodesByName 名稱反查表
var typeCodesByName = func() map[string]TypeCode {
	m := make(map[string]TypeCode, typeCodeCount)
	for tc, info := range typeTable {
		m[info.name] = TypeCode(tc)
	}
	return m
}()

// ParseTypeCode 解析型別代碼字串 (區分大小寫)
func ParseTypeCode(s string) (TypeCode, error) {
	tc, ok := typeCodesByName[s]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownTypeCode, s)
	}
	return tc, nil
}

// ParseValue 依型別將文字值轉換為中間表示
func ParseValue(tc TypeCode, raw string) (Value, error) {
	if !tc.Valid() {
		return Value{}, fmt.Errorf("%w: %d", ErrUnknownTypeCode, int(tc))
	}
	return typeTable[tc].parse(raw)
}

// parseIntLiteral 解析整數字面值，支援 0x / 0 / 0b / 0o 前綴
func parseIntLiteral(raw string) (Value, error) {
	n, err := strconv.ParseInt(raw, 0, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return Value{}, fmt.Errorf("%w: %q", ErrValueOutOfRange, raw)
		}
		return Value{}, fmt.Errorf("%w: %q", ErrInvalidIntegerLiteral, raw)
	}
	return Value{Int: n}, nil
}

func parseFloatLiteral(raw string) (Value, error) {
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return Value{}, fmt.Errorf("%w: %q", ErrValueOutOfRange, raw)
		}
		return Value{}, fmt.Errorf("%w: %q", ErrInvalidFloatLiteral, raw)
	}
	return Value{Float: f}, nil
}

// parseCharLiteral 字元欄位必須剛好一個位元組
func parseCharLiteral(raw string) (Value, error) {
	if len(raw) != 1 {
		return Value{}, fmt.Errorf("%w: %q", ErrInvalidCharLiteral, raw)
	}
	return Value{Char: raw[0]}, nil
}
