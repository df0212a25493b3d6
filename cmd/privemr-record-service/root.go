package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"privemr-record-service/internal/config"
	"privemr-record-service/internal/logger"
	"privemr-record-service/internal/service"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "privemr-record-service",
	Short: "Local EMR record processing core",
	Long: `Processes medical record submissions through a staged pipeline
(validation, encryption, signing, storage, indexing, notification)
and manages the resulting records in a local key-value backed store.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newService 加载配置、初始化日志并创建记录服务（各子命令共用）
func newService() (*service.RecordService, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "privemr-record-service")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	svc, err := service.NewRecordService(cfg, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create record service: %w", err)
	}
	return svc, log, nil
}

func fatal(msg string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
	os.Exit(1)
}
