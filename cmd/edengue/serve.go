package main

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/daohuymanh/bio-data-analysis/internal/config"
	"github.com/daohuymanh/bio-data-analysis/internal/server"
)

func newServeCmd() *cobra.Command {
	var (
		port    int
		devMode bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP import/export API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, info, err := loadConfig()
			if err != nil {
				return err
			}

			// 配置文件显式指定的端口优先
			if port > 0 && !info.PortSpecified {
				cfg.Server.Port = port
			}
			if devMode {
				cfg.Server.DevMode = true
			}

			dir, err := config.EnsureDataDir(cfg)
			if err != nil {
				return err
			}
			log.WithField("dir", dir).Info("data directory ready")

			srv, err := server.NewServer(cfg)
			if err != nil {
				return err
			}
			defer srv.Close()

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Run(fmt.Sprintf(":%d", cfg.Server.Port))
			}()
			fmt.Printf("listening on http://localhost:%d (Ctrl+C to stop)\n", cfg.Server.Port)

			select {
			case err := <-errCh:
				return err
			case <-cmd.Context().Done():
				log.Info("shutting down")
				return nil
			}
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "listen port (used when the config file does not set one)")
	cmd.Flags().BoolVar(&devMode, "dev", false, "development mode (gin debug logging)")
	return cmd
}
