package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/daohuymanh/bio-data-analysis/internal/config"
	"github.com/daohuymanh/bio-data-analysis/internal/importer"
	"github.com/daohuymanh/bio-data-analysis/internal/store"
)

var (
	configPath string
	dataDir    string
	logLevel   string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "edengue",
		Short:         "eDengue extraction and aggregation pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: config.toml next to the executable)")
	root.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory (overrides config)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(
		newGSTXCmd(),
		newDMOSSCmd(),
		newCasesCmd(),
		newMergeCmd(),
		newConvertCmd(),
		newExportCmd(),
		newServeCmd(),
	)
	return root
}

// loadConfig 加载配置；配置文件不存在时使用默认配置，解析或校验失败直接返回错误
func loadConfig() (*config.AppConfig, config.LoadConfigInfo, error) {
	cfg, info, err := config.LoadConfigWithInfo(configPath)
	if err != nil {
		return nil, info, fmt.Errorf("invalid config: %w", err)
	}
	if dataDir != "" {
		cfg.Data.DataDir = dataDir
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	config.SetupLogging(cfg.Log)
	log.WithFields(log.Fields{"path": info.Path, "found": info.FileFound}).Debug("config loaded")
	return cfg, info, nil
}

// openStore 打开数据目录下的数据库
func openStore(cfg *config.AppConfig) (*store.Store, error) {
	if _, err := config.EnsureDataDir(cfg); err != nil {
		return nil, err
	}
	return store.New(config.DBPath(cfg))
}

// newCoordinator 需要落库时才打开数据库；返回的 cleanup 总是可调用
func newCoordinator(cfg *config.AppConfig, persist bool) (*importer.Coordinator, func(), error) {
	if !persist {
		return importer.NewCoordinator(nil, cfg), func() {}, nil
	}
	st, err := openStore(cfg)
	if err != nil {
		return nil, nil, err
	}
	return importer.NewCoordinator(st, cfg), func() { _ = st.Close() }, nil
}

// printProgress 输出 sheet 级别的处理结果与跳过原因
func printProgress(evt importer.ProgressEvent) {
	switch evt.Type {
	case importer.EventSheetDone, importer.EventWarning:
		fmt.Println("  " + evt.Message)
	case importer.EventInfo:
		if m, ok := evt.Data.(map[string]interface{}); ok {
			if _, skipped := m["reason"]; skipped {
				fmt.Println("  " + evt.Message)
			}
		}
	}
}

// printSummary 每个数据源输出处理行数
func printSummary(name string, s *importer.ImportSummary) {
	fmt.Printf("%s: %d rows", name, s.Rows)
	if s.Report != nil && s.Report.CoercedCells > 0 {
		fmt.Printf(" (%d non-numeric cells counted as 0)", s.Report.CoercedCells)
	}
	if s.Output != "" {
		fmt.Printf(" -> %s", s.Output)
	}
	fmt.Println()
}
