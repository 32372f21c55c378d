package main

import (
	"fmt"

	"go.bug.st/serial"
	"go.uber.org/zap"
)

// SerialSink 將訊框寫到序列埠 (例如 GPS 接收器)
type SerialSink struct {
	*RawSink

	port   serial.Port
	name   string
	logger *zap.Logger
}

// OpenSerialSink 依配置開啟序列埠
func OpenSerialSink(cfg SerialConfig, logger *zap.Logger) (*SerialSink, error) {
	if cfg.Port == "" {
		return nil, fmt.Errorf("未指定序列埠")
	}

	mode := &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(cfg.Port, mode)
	if err != nil {
		return nil, fmt.Errorf("開啟序列埠 %s 失敗: %w", cfg.Port, err)
	}

	logger.Info("序列埠已開啟",
		zap.String("port", cfg.Port),
		zap.Int("baud_rate", cfg.BaudRate),
	)

	return &SerialSink{
		RawSink: NewRawSink(port),
		port:    port,
		name:    cfg.Port,
		logger:  logger,
	}, nil
}

// Close 關閉序列埠
func (s *SerialSink) Close() error {
	if err := s.port.Close(); err != nil {
		return fmt.Errorf("關閉序列埠 %s 失敗: %w", s.name, err)
	}
	s.logger.Debug("序列埠已關閉", zap.String("port", s.name))
	return nil
}

// ListSerialPorts 列出系統上的序列埠
func ListSerialPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("列出序列埠失敗: %w", err)
	}
	return ports, nil
}
