package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// 輸出模式
const (
	OutputModeRaw   = "raw"
	OutputModeDebug = "debug"
)

// Config 全域配置
type Config struct {
	Encoder EncoderConfig `json:"encoder" mapstructure:"encoder" toml:"encoder" yaml:"encoder"`
	Output  OutputConfig  `json:"output" mapstructure:"output" toml:"output" yaml:"output"`
	Serial  SerialConfig  `json:"serial" mapstructure:"serial" toml:"serial" yaml:"serial"`
	Logging LoggingConfig `json:"logging" mapstructure:"logging" toml:"logging" yaml:"logging"`
	Metrics MetricsConfig `json:"metrics" mapstructure:"metrics" toml:"metrics" yaml:"metrics"`
}

// EncoderConfig 編碼器配置
type EncoderConfig struct {
	// Overflow 為 "reject" 或 "wrap"
	Overflow string `json:"overflow" mapstructure:"overflow" toml:"overflow" yaml:"overflow"`
}

// OutputConfig 輸出配置
type OutputConfig struct {
	Mode string `json:"mode" mapstructure:"mode" toml:"mode" yaml:"mode"`
	// Path 為空時寫到 stdout
	Path string `json:"path" mapstructure:"path" toml:"path" yaml:"path"`
}

// SerialConfig 序列埠配置
type SerialConfig struct {
	Port     string `json:"port" mapstructure:"port" toml:"port" yaml:"port"`
	BaudRate int    `json:"baud_rate" mapstructure:"baud_rate" toml:"baud_rate" yaml:"baud_rate"`
}

// LoggingConfig 日誌配置
type LoggingConfig struct {
	Level  string `json:"level" mapstructure:"level" toml:"level" yaml:"level"`
	Format string `json:"format" mapstructure:"format" toml:"format" yaml:"format"`
}

// MetricsConfig 指標配置
type MetricsConfig struct {
	Enabled  bool   `json:"enabled" mapstructure:"enabled" toml:"enabled" yaml:"enabled"`
	Textfile string `json:"textfile" mapstructure:"textfile" toml:"textfile" yaml:"textfile"`
}

// DefaultConfig 返回預設配置
func DefaultConfig() *Config {
	return &Config{
		Encoder: EncoderConfig{
			Overflow: OverflowReject.String(),
		},
		Output: OutputConfig{
			Mode: OutputModeRaw,
		},
		Serial: SerialConfig{
			BaudRate: 9600, // u-blox 出廠預設
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Metrics: MetricsConfig{
			Enabled: false,
		},
	}
}

// LoadConfig 載入配置檔
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("ubxmaker")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/ubxmaker/")
		v.AddConfigPath("$HOME/.ubxmaker/")
	}

	// 預設值需先登記，環境變數才能覆蓋
	v.SetDefault("encoder.overflow", cfg.Encoder.Overflow)
	v.SetDefault("output.mode", cfg.Output.Mode)
	v.SetDefault("output.path", cfg.Output.Path)
	v.SetDefault("serial.port", cfg.Serial.Port)
	v.SetDefault("serial.baud_rate", cfg.Serial.BaudRate)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("metrics.enabled", cfg.Metrics.Enabled)
	v.SetDefault("metrics.textfile", cfg.Metrics.Textfile)

	// 環境變數覆蓋 (UBXMAKER_SERIAL_PORT 等)
	v.SetEnvPrefix("UBXMAKER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("讀取配置檔失敗: %w", err)
		}
		// 配置檔不存在，使用預設值
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("解析配置失敗: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("配置驗證失敗: %w", err)
	}

	return cfg, nil
}

// Validate 驗證配置
func (c *Config) Validate() error {
	if _, err := ParseOverflowPolicy(c.Encoder.Overflow); err != nil {
		return err
	}

	switch c.Output.Mode {
	case OutputModeRaw, OutputModeDebug:
	default:
		return fmt.Errorf("無效的輸出模式: %s", c.Output.Mode)
	}

	if c.Serial.BaudRate <= 0 {
		return fmt.Errorf("無效的鮑率: %d", c.Serial.BaudRate)
	}

	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("無效的日誌等級: %s", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("無效的日誌格式: %s", c.Logging.Format)
	}

	if c.Metrics.Enabled && c.Metrics.Textfile == "" {
		return fmt.Errorf("啟用指標時必須指定 textfile 路徑")
	}

	return nil
}

// OverflowPolicy 取得溢位策略
func (c *Config) OverflowPolicy() OverflowPolicy {
	policy, _ := ParseOverflowPolicy(c.Encoder.Overflow)
	return policy
}

// SaveConfig 依副檔名 (.json / .toml / .yaml) 儲存配置
func (c *Config) SaveConfig(path string) error {
	var (
		data []byte
		err  error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		data, err = toml.Marshal(c)
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("序列化配置失敗: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("寫入配置檔失敗: %w", err)
	}

	return nil
}
