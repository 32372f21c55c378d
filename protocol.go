package main

// UBX 協議常數
const (
	// 同步字元
	SyncChar1 = 0xB5
	SyncChar2 = 0x62

	// 訊框結構
	FrameHeaderLength   = 6 // Sync(2) + Class(1) + ID(1) + Length(2)
	FrameChecksumLength = 2
	FrameOverhead       = FrameHeaderLength + FrameChecksumLength
	MaxPayloadLength    = 0xFFFF

	// 描述檔標頭欄位
	HeaderClassColumn = "CLASS"
	HeaderIDColumn    = "ID"
	ImplicitColumns   = 2

	// 註解前綴
	CommentPrefix = "#"
)

// TypeCode UBX 欄位型別代碼
type TypeCode int

const (
	TypeU1 TypeCode = iota
	TypeI1
	TypeX1
	TypeU2
	TypeI2
	TypeX2
	TypeU4
	TypeI4
	TypeX4
	TypeR4
	TypeR8
	TypeCH

	typeCodeCount
)

func (tc TypeCode) String() string {
	if !tc.Valid() {
		return "unknown"
	}
	return typeTable[tc].name
}

// Valid 判斷是否為已定義的型別代碼
func (tc TypeCode) Valid() bool {
	return tc >= 0 && tc < typeCodeCount
}

// Width 返回該型別佔用的位元組數
func (tc TypeCode) Width() int {
	if !tc.Valid() {
		return 0
	}
	return typeTable[tc].width
}

// Kind 返回該型別的數值解讀方式
func (tc TypeCode) Kind() Kind {
	if !tc.Valid() {
		return KindUnknown
	}
	return typeTable[tc].kind
}

// Kind 欄位數值種類
type Kind int

const (
	KindUnknown Kind = iota
	KindUnsigned
	KindSigned
	KindBitfield
	KindFloat
	KindChar
)

func (k Kind) String() string {
	switch k {
	case KindUnsigned:
		return "unsigned"
	case KindSigned:
		return "signed"
	case KindBitfield:
		return "bitfield"
	case KindFloat:
		return "float"
	case KindChar:
		return "char"
	default:
		return "unknown"
	}
}

// Integer 判斷是否以整數字面值解析
func (k Kind) Integer() bool {
	return k == KindUnsigned || k == KindSigned || k == KindBitfield
}

// ListTypeCodes 依協議順序列出所有型別代碼
func ListTypeCodes() []TypeCode {
	codes := make([]TypeCode, 0, typeCodeCount)
	for tc := TypeCode(0); tc < typeCodeCount; tc++ {
		codes = append(codes, tc)
	}
	return codes
}
