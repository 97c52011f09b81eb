package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/popdyn/internal/config"
	"github.com/san-kum/popdyn/internal/experiment"
	"github.com/san-kum/popdyn/internal/server"
)

var (
	addr    string
	envFile string
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "serve the JSON API",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config or "+config.EnvAddr+")")
	cmd.Flags().StringVar(&envFile, "env", ".env", "dotenv file with "+config.EnvAddr+" and friends")
	cmd.Flags().IntVar(&workers, "workers", 0, "concurrent solves per sweep")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig("", "")
	if err != nil {
		return err
	}
	if err := config.LoadEnv(cfg, envFile); err != nil {
		return err
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(experiment.NewRegistry(cfg), logger)
	srv.Workers = workers
	logger.Info("serving",
		zap.String("address", cfg.Server.Addr),
		zap.Strings("cors_origins", cfg.Server.CORSOrigins),
		zap.Int("max_resolution", cfg.Server.MaxResolution),
	)
	return srv.ListenAndServe(ctx, cfg.Server.Addr)
}
