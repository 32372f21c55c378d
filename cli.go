package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfgFile   string
	logger    *zap.Logger
	appConfig *Config
)

// rootCmd 根命令，直接接受描述檔路徑
var rootCmd = &cobra.Command{
	Use:   "ubxmaker [--debug] <input.csv>",
	Short: "UBX 訊息產生器",
	Long: `將 CSV 描述檔轉換為 UBX 二進位訊框。
標頭行 CLASS,ID,<型別代碼...> 定義欄位配置，其後每一列資料產生一個訊框。`,
	Args:          cobra.ExactArgs(1),
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// 載入配置 (除了 version 和 help 命令)
		var cfgErr error
		appConfig = DefaultConfig()
		if cmd.Name() != "version" && cmd.Name() != "help" && cmd.Name() != "generate" {
			if cfg, err := LoadConfig(cfgFile); err != nil {
				cfgErr = err
			} else {
				appConfig = cfg
			}
		}

		// 初始化日誌
		var err error
		logger, err = initLogger(appConfig.Logging)
		if err != nil {
			return fmt.Errorf("初始化日誌失敗: %w", err)
		}

		if cfgErr != nil {
			if cfgFile != "" {
				return cfgErr
			}
			logger.Warn("載入配置檔失敗，使用預設配置", zap.Error(cfgErr))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runConvert,
}

// convertCmd 轉換命令
var convertCmd = &cobra.Command{
	Use:   "convert [--debug] <input.csv>",
	Short: "轉換描述檔",
	Long:  "將描述檔轉換為 UBX 訊框，輸出原始位元組或逐欄診斷報告。",
	Args:  cobra.ExactArgs(1),
	RunE:  runConvert,
}

// sendCmd 傳送命令
var sendCmd = &cobra.Command{
	Use:   "send <input.csv>",
	Short: "傳送訊框到序列埠",
	Long:  "轉換描述檔並將每個訊框寫到接收器的序列埠。",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if port, _ := cmd.Flags().GetString("port"); port != "" {
			appConfig.Serial.Port = port
		}
		if baud, _ := cmd.Flags().GetInt("baud"); baud > 0 {
			appConfig.Serial.BaudRate = baud
		}
		applyEncoderFlags(cmd)
		cmd.SilenceUsage = true

		sink, err := OpenSerialSink(appConfig.Serial, logger)
		if err != nil {
			return err
		}
		defer sink.Close()

		return convert(args[0], sink)
	},
}

// portsCmd 列出序列埠
var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "列出序列埠",
	RunE: func(cmd *cobra.Command, args []string) error {
		ports, err := ListSerialPorts()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(ports) == 0 {
			fmt.Fprintln(out, "找不到序列埠")
			return nil
		}

		fmt.Fprintf(out, "可用的序列埠 (%d 個):\n", len(ports))
		for _, p := range ports {
			fmt.Fprintf(out, "  - %s\n", p)
		}
		return nil
	},
}

// typesCmd 列出型別代碼
var typesCmd = &cobra.Command{
	Use:   "types",
	Short: "列出欄位型別代碼",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "可用的型別代碼 (多位元組值為小端序):")
		for _, tc := range ListTypeCodes() {
			fmt.Fprintf(out, "  %-4s %d bytes  %s\n", tc, tc.Width(), tc.Kind())
		}
	},
}

// checksumCmd 計算校驗碼
var checksumCmd = &cobra.Command{
	Use:   "checksum <hex>...",
	Short: "計算 UBX 校驗碼",
	Long:  "計算 CLASS、ID、LENGTH 與酬載位元組的校驗碼，例如: checksum 06 01 01 00 01",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := hex.DecodeString(strings.Join(args, ""))
		if err != nil {
			return fmt.Errorf("無效的十六進位字串: %w", err)
		}

		ckA, ckB := Checksum(data)
		fmt.Fprintf(cmd.OutOrStdout(), "%02X %02X\n", ckA, ckB)
		return nil
	},
}

// configCmd 配置命令組
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "配置管理命令",
	Long:  "管理配置檔。",
}

// configValidateCmd 驗證配置
var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "驗證配置檔",
	Long:  "驗證指定的配置檔是否有效。",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := LoadConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("配置驗證失敗: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "配置驗證通過")
		fmt.Fprintf(out, "  Overflow: %s\n", cfg.Encoder.Overflow)
		fmt.Fprintf(out, "  Output: %s\n", cfg.Output.Mode)
		fmt.Fprintf(out, "  Serial: %s @ %d\n", cfg.Serial.Port, cfg.Serial.BaudRate)
		return nil
	},
}

// configGenerateCmd 生成配置
var configGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "生成範例配置",
	Long:  "生成範例配置檔，格式依副檔名 (.json/.toml/.yaml) 決定。",
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")
		if output == "" {
			output = "ubxmaker.json"
		}

		cfg := DefaultConfig()
		cfg.Serial.Port = "/dev/ttyACM0"

		if err := cfg.SaveConfig(output); err != nil {
			return fmt.Errorf("生成配置失敗: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "範例配置已生成: %s\n", output)
		return nil
	},
}

// versionCmd 版本命令
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "顯示版本資訊",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "ubxmaker version %s\n", Version)
		fmt.Fprintf(out, "  Build: %s\n", BuildTime)
		fmt.Fprintf(out, "  Commit: %s\n", GitCommit)
	},
}

func init() {
	// 全域 flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "配置檔路徑")

	// 轉換 flags
	addConvertFlags(rootCmd)
	addConvertFlags(convertCmd)

	// send 命令 flags
	sendCmd.Flags().StringP("port", "p", "", "序列埠")
	sendCmd.Flags().IntP("baud", "b", 0, "鮑率")
	sendCmd.Flags().Bool("wrap", false, "超出範圍的數值截斷而非拒絕")

	// config 命令 flags
	configGenerateCmd.Flags().StringP("output", "o", "ubxmaker.json", "輸出檔案路徑")

	// 組裝命令樹
	configCmd.AddCommand(configValidateCmd, configGenerateCmd)

	rootCmd.AddCommand(
		convertCmd,
		sendCmd,
		portsCmd,
		typesCmd,
		checksumCmd,
		configCmd,
		versionCmd,
	)
}

func addConvertFlags(cmd *cobra.Command) {
	cmd.Flags().BoolP("debug", "d", false, "輸出逐欄診斷報告而非原始位元組")
	cmd.Flags().Bool("wrap", false, "超出範圍的數值截斷而非拒絕")
	cmd.Flags().StringP("output", "o", "", "原始位元組輸出檔 (預設 stdout)")
}

// applyEncoderFlags 以 CLI 參數覆蓋編碼器配置
func applyEncoderFlags(cmd *cobra.Command) {
	if wrap, _ := cmd.Flags().GetBool("wrap"); wrap {
		appConfig.Encoder.Overflow = OverflowWrap.String()
	}
}

func runConvert(cmd *cobra.Command, args []string) error {
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		appConfig.Output.Mode = OutputModeDebug
	}
	if output, _ := cmd.Flags().GetString("output"); output != "" {
		appConfig.Output.Path = output
	}
	applyEncoderFlags(cmd)
	cmd.SilenceUsage = true

	if appConfig.Output.Mode == OutputModeDebug {
		return convert(args[0], NewDiagnosticSink(cmd.OutOrStdout()))
	}

	var w io.Writer = cmd.OutOrStdout()
	if appConfig.Output.Path != "" {
		f, err := os.Create(appConfig.Output.Path)
		if err != nil {
			return fmt.Errorf("建立輸出檔失敗: %w", err)
		}
		defer f.Close()
		w = f
	}

	return convert(args[0], NewRawSink(w))
}

// convert 執行轉換並依結果決定結束狀態
func convert(path string, sink FrameSink) error {
	opts := []ConverterOption{
		WithLogger(logger),
		WithOverflowPolicy(appConfig.OverflowPolicy()),
	}

	var metrics *MetricsCollector
	if appConfig.Metrics.Enabled {
		metrics = NewMetricsCollector(logger)
		opts = append(opts, WithMetrics(metrics))
	}

	logger.Debug("開始轉換",
		zap.String("input", path),
		zap.String("mode", appConfig.Output.Mode),
		zap.String("overflow", appConfig.Encoder.Overflow),
	)

	summary, err := NewConverter(sink, opts...).ConvertFile(path)

	if metrics != nil {
		if mErr := metrics.WriteTextfile(appConfig.Metrics.Textfile); mErr != nil {
			logger.Warn("寫入指標檔失敗", zap.Error(mErr))
		}
	}

	if err != nil {
		return fmt.Errorf("轉換中止: %w", err)
	}
	if summary.Rejected > 0 {
		return fmt.Errorf("%d 列資料被拒絕", summary.Rejected)
	}
	return nil
}

func initLogger(cfg LoggingConfig) (*zap.Logger, error) {
	var zcfg zap.Config
	if cfg.Format == "json" {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}

	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	zcfg.Level = level

	// stdout 保留給訊框輸出
	zcfg.OutputPaths = []string{"stderr"}
	zcfg.ErrorOutputPaths = []string{"stderr"}
	return zcfg.Build()
}

// Execute 執行 CLI
func Execute() error {
	return rootCmd.Execute()
}
