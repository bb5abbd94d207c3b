package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"signcast/internal/config"
	"signcast/internal/daemon"
	"signcast/internal/logging"
	"signcast/internal/store"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configFlag string

	cmd := &cobra.Command{
		Use:           "signcastd",
		Short:         "ISL video generation daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), configFlag)
		},
	}
	cmd.Flags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	return cmd
}

func run(ctx context.Context, configPath string) error {
	// Optional .env in the working directory for api_token and friends.
	_ = godotenv.Load()

	signalCtx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	logPath := filepath.Join(cfg.Paths.LogDir, "signcastd.log")
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()

	logger := logging.New(io.MultiWriter(os.Stdout, logFile), logging.Options{
		Format: cfg.Logging.Format,
		Level:  cfg.Logging.Level,
	})

	db, err := store.Open(cfg)
	if err != nil {
		logger.Error("open database", logging.Error(err))
		return err
	}

	d, err := daemon.New(cfg, db, logger)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		return err
	}

	<-signalCtx.Done()
	logger.Info("signcast daemon shutting down")
	return nil
}
