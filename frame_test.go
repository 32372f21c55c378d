package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustHeader(t *testing.T, tokens ...string) *MessageDescriptor {
	t.Helper()
	desc, err := ParseHeader(tokens)
	require.NoError(t, err)
	return desc
}

func TestChecksum(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		ckA  byte
		ckB  byte
	}{
		{"empty", nil, 0x00, 0x00},
		{"CFG-PRT poll", []byte{0x06, 0x00, 0x00, 0x00}, 0x06, 0x18},
		{"single U1 field", []byte{0x06, 0x01, 0x01, 0x00, 0x01}, 0x09, 0x26},
		{"accumulators wrap", []byte{0x06, 0x08, 0x03, 0x00, 0xE8, 0x03, 0xFF}, 0xFB, 0x26},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ckA, ckB := Checksum(tt.data)
			assert.Equal(t, tt.ckA, ckA)
			assert.Equal(t, tt.ckB, ckB)

			// 重複計算結果一致
			ckA2, ckB2 := Checksum(tt.data)
			assert.Equal(t, ckA, ckA2)
			assert.Equal(t, ckB, ckB2)
		})
	}
}

func TestFrameBuilder_FixedVectors(t *testing.T) {
	builder := NewFrameBuilder(OverflowReject)

	tests := []struct {
		name     string
		header   []string
		row      []string
		expected []byte
	}{
		{
			name:     "single U1 field",
			header:   []string{"CLASS", "ID", "U1"},
			row:      []string{"0x06", "0x01", "0x01"},
			expected: []byte{0xB5, 0x62, 0x06, 0x01, 0x01, 0x00, 0x01, 0x09, 0x26},
		},
		{
			name:     "empty payload poll",
			header:   []string{"CLASS", "ID"},
			row:      []string{"0x06", "0x00"},
			expected: []byte{0xB5, 0x62, 0x06, 0x00, 0x00, 0x00, 0x06, 0x18},
		},
		{
			name:   "mixed field types",
			header: []string{"CLASS", "ID", "U2", "I1", "R4", "CH", "U4"},
			row:    []string{"0x0A", "4", "0x1234", "-2", "1.5", "Z", "7"},
			expected: []byte{
				0xB5, 0x62, 0x0A, 0x04, 0x0C, 0x00,
				0x34, 0x12, 0xFE, 0x00, 0x00, 0xC0, 0x3F, 0x5A, 0x07, 0x00, 0x00, 0x00,
				0xBE, 0x3E,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame, err := builder.Build(mustHeader(t, tt.header...), tt.row)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, frame.Bytes())
		})
	}
}

func TestFrameBuilder_LengthInvariant(t *testing.T) {
	builder := NewFrameBuilder(OverflowReject)
	desc := mustHeader(t, "CLASS", "ID", "U1", "I2", "X4", "R8", "CH")

	frame, err := builder.Build(desc, []string{"1", "2", "3", "-4", "0x5", "6.0", "c"})
	require.NoError(t, err)

	payloadLen := desc.PayloadLength()
	assert.Equal(t, 16, payloadLen)
	assert.Equal(t, payloadLen+FrameOverhead, frame.Len())
	assert.Equal(t, uint16(payloadLen), frame.Length())
	assert.Len(t, frame.Payload(), payloadLen)
	assert.Equal(t, byte(1), frame.Class())
	assert.Equal(t, byte(2), frame.ID())

	raw := frame.Bytes()
	ckA, ckB := Checksum(raw[2 : len(raw)-2])
	gotA, gotB := frame.Checksum()
	assert.Equal(t, ckA, gotA)
	assert.Equal(t, ckB, gotB)
}

func TestFrameBuilder_Errors(t *testing.T) {
	builder := NewFrameBuilder(OverflowReject)
	desc := mustHeader(t, "CLASS", "ID", "U1", "U2", "CH")

	tests := []struct {
		name string
		row  []string
		want error
	}{
		{"too few columns", []string{"1", "2", "3", "4"}, ErrRowFieldCountMismatch},
		{"too many columns", []string{"1", "2", "3", "4", "A", "5"}, ErrRowFieldCountMismatch},
		{"class not integer", []string{"x", "2", "3", "4", "A"}, ErrInvalidIntegerLiteral},
		{"id too large", []string{"1", "0x100", "3", "4", "A"}, ErrValueOutOfRange},
		{"field not integer", []string{"1", "2", "three", "4", "A"}, ErrInvalidIntegerLiteral},
		{"field out of range", []string{"1", "2", "3", "70000", "A"}, ErrValueOutOfRange},
		{"char too long", []string{"1", "2", "3", "4", "AB"}, ErrInvalidCharLiteral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame, err := builder.Build(desc, tt.row)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, 0, frame.Len())
		})
	}
}

func TestParseHeader(t *testing.T) {
	desc, err := ParseHeader([]string{"CLASS", "ID", "U2", "CH"})
	require.NoError(t, err)
	assert.Equal(t, 4, desc.Columns())
	assert.Equal(t, []string{"CLASS", "ID", "U2", "CH"}, desc.HeaderTokens())
	assert.Equal(t, []FieldDescriptor{{Code: TypeU2, Position: 0}, {Code: TypeCH, Position: 1}}, desc.Fields())

	_, err = ParseHeader([]string{"CLASS"})
	assert.ErrorIs(t, err, ErrMalformedHeader)

	_, err = ParseHeader([]string{"CLASS", "U1"})
	assert.ErrorIs(t, err, ErrMalformedHeader)

	_, err = ParseHeader([]string{"CLASS", "ID", "U1", "Z9"})
	assert.ErrorIs(t, err, ErrUnknownTypeCode)
}

func TestNewFrame_PayloadTooLarge(t *testing.T) {
	_, err := NewFrame(0x01, 0x02, make([]byte, MaxPayloadLength+1))
	assert.ErrorIs(t, err, ErrValueOutOfRange)

	frame, err := NewFrame(0x01, 0x02, make([]byte, MaxPayloadLength))
	require.NoError(t, err)
	assert.Equal(t, uint16(MaxPayloadLength), frame.Length())
}

func TestFrame_Spans(t *testing.T) {
	builder := NewFrameBuilder(OverflowReject)
	desc := mustHeader(t, "CLASS", "ID", "U2", "CH")
	row := []string{"0x06", "0x01", "0x0102", "A"}

	frame, err := builder.Build(desc, row)
	require.NoError(t, err)

	spans := frame.Spans(desc, row[ImplicitColumns:])
	names := make([]string, len(spans))
	total := 0
	for i, s := range spans {
		names[i] = s.Name
		total += len(s.Bytes)
	}

	assert.Equal(t, []string{
		"Sync Char 1", "Sync Char 2", "CLASS", "ID", "LENGTH",
		"U2(0x0102)", "CH(A)", "Checksum A", "Checksum B",
	}, names)
	assert.Equal(t, frame.Len(), total)
	assert.Equal(t, []byte{0x02, 0x01}, spans[5].Bytes)
}

func TestFrame_BytesIsCopy(t *testing.T) {
	frame, err := NewFrame(0x06, 0x00, nil)
	require.NoError(t, err)

	b := frame.Bytes()
	b[0] = 0x00
	assert.Equal(t, byte(SyncChar1), frame.Bytes()[0])
}

func BenchmarkFrameBuilder_Build(b *testing.B) {
	builder := NewFrameBuilder(OverflowReject)
	desc, _ := ParseHeader([]string{"CLASS", "ID", "U1", "U2", "I4", "R8"})
	row := []string{"0x06", "0x01", "1", "0x1234", "-5", "3.14"}
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		builder.Build(desc, row)
	}
}
