package main

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// MetricsCollector 轉換指標收集器
type MetricsCollector struct {
	registry *prometheus.Registry

	framesTotal      prometheus.Counter
	bytesTotal       prometheus.Counter
	descriptorsTotal prometheus.Counter
	rowsRejected     *prometheus.CounterVec
	lastDuration     prometheus.Gauge

	startTime time.Time
	logger    *zap.Logger
}

// NewMetricsCollector 建立指標收集器，使用獨立的 registry
func NewMetricsCollector(logger *zap.Logger) *MetricsCollector {
	m := &MetricsCollector{
		registry: prometheus.NewRegistry(),
		framesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ubxmaker_frames_total",
			Help: "Total number of encoded frames",
		}),
		bytesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ubxmaker_frame_bytes_total",
			Help: "Total number of frame bytes emitted",
		}),
		descriptorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ubxmaker_descriptors_total",
			Help: "Total number of header lines parsed",
		}),
		rowsRejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ubxmaker_rows_rejected_total",
				Help: "Total number of rejected rows by reason",
			},
			[]string{"reason"},
		),
		lastDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ubxmaker_conversion_duration_seconds",
			Help: "Duration of the last conversion",
		}),
		logger: logger,
	}

	m.registry.MustRegister(
		m.framesTotal,
		m.bytesTotal,
		m.descriptorsTotal,
		m.rowsRejected,
		m.lastDuration,
	)
	return m
}

// Begin 標記轉換開始
func (m *MetricsCollector) Begin() {
	m.startTime = time.Now()
}

// End 記錄轉換耗時
func (m *MetricsCollector) End() {
	if m.startTime.IsZero() {
		return
	}
	m.lastDuration.Set(time.Since(m.startTime).Seconds())
}

// RecordFrame 記錄一個輸出訊框
func (m *MetricsCollector) RecordFrame(size int) {
	m.framesTotal.Inc()
	m.bytesTotal.Add(float64(size))
}

// RecordDescriptor 記錄一個標頭
func (m *MetricsCollector) RecordDescriptor() {
	m.descriptorsTotal.Inc()
}

// RecordRejected 記錄被拒絕的資料列
func (m *MetricsCollector) RecordRejected(err error) {
	m.rowsRejected.WithLabelValues(errorReason(err)).Inc()
}

// Registry 取得 prometheus registry
func (m *MetricsCollector) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile 以 node_exporter textfile 格式寫出指標
func (m *MetricsCollector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("寫入指標檔失敗: %w", err)
	}
	m.logger.Debug("指標已寫出", zap.String("path", path))
	return nil
}
