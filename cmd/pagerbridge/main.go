package main

import (
	"fmt"
	"log/slog"
	"os"

	"pagerbridge/internal/config"

	"github.com/spf13/cobra"
)

var (
	version    = "0.1.0"
	logger     *slog.Logger
	configPath string // overridable via --config flag
)

func main() {
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	root := &cobra.Command{
		Use:     "pagerbridge",
		Short:   "Telegram to pager-platform relay bridge",
		Long:    "pagerbridge relays private Telegram chats to a webhook-based helpdesk channel and delivers operator replies back to Telegram.",
		Version: version,
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.json (default: ~/.pagerbridge/config.json)")

	root.AddCommand(initCmd())
	root.AddCommand(checkCmd())
	root.AddCommand(serveCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveConfigPath returns the config path from --config flag or default.
func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultConfigPath()
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a starter config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			if _, err := os.Stat(cfgPath); err == nil {
				return fmt.Errorf("config already exists at %s", cfgPath)
			}
			cfg := config.Defaults()
			if err := config.Save(cfgPath, cfg); err != nil {
				return err
			}
			logger.Info("initialized", "config", cfgPath)
			return nil
		},
	}
}

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate config and print the effective settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			logger.Info("config ok", "path", cfgPath)
			logger.Info("telegram", "pollTimeoutSeconds", cfg.Telegram.PollTimeoutSec)
			logger.Info("pager", "inboundUrl", cfg.Pager.InboundURL)
			logger.Info("server", "host", cfg.Server.Host, "port", cfg.Server.Port)
			logger.Info("media", "dir", cfg.Media.Dir, "publicBaseUrl", cfg.Media.PublicBaseURL,
				"retentionDays", cfg.Media.RetentionDays)
			return nil
		},
	}
}
