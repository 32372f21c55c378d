package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMetricsCollector_RecordsConversion(t *testing.T) {
	metrics := NewMetricsCollector(zap.NewNop())
	input := strings.Join([]string{
		"CLASS,ID,U1",
		"1,2,3",
		"1,2",
		"1,2,abc",
		"1,2,4",
	}, "\n")

	conv := NewConverter(&recordingSink{}, WithMetrics(metrics))
	_, err := conv.Convert(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.framesTotal))
	assert.Equal(t, 18.0, testutil.ToFloat64(metrics.bytesTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.descriptorsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.rowsRejected.WithLabelValues("row_field_count_mismatch")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.rowsRejected.WithLabelValues("invalid_integer_literal")))
	assert.GreaterOrEqual(t, testutil.ToFloat64(metrics.lastDuration), 0.0)
}

func TestMetricsCollector_WriteTextfile(t *testing.T) {
	metrics := NewMetricsCollector(zap.NewNop())
	metrics.RecordFrame(9)

	path := filepath.Join(t.TempDir(), "ubxmaker.prom")
	require.NoError(t, metrics.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "ubxmaker_frames_total 1")
	assert.Contains(t, string(data), "ubxmaker_frame_bytes_total 9")
}

func TestErrorReason(t *testing.T) {
	tests := []struct {
		err      error
		expected string
	}{
		{ErrUnknownTypeCode, "unknown_type_code"},
		{ErrInvalidFloatLiteral, "invalid_float_literal"},
		{ErrInvalidCharLiteral, "invalid_char_literal"},
		{ErrDescriptorMissing, "descriptor_missing"},
		{ErrValueOutOfRange, "value_out_of_range"},
		{ErrMalformedHeader, "malformed_header"},
		{&LineError{Line: 3, Err: ErrRowFieldCountMismatch}, "row_field_count_mismatch"},
		{os.ErrNotExist, "other"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, errorReason(tt.err))
		})
	}
}
