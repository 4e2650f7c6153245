package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"mareo-monitor/internal/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server and poll every configured station",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadRuntime()
		if err != nil {
			return err
		}

		logger.Info("starting",
			"version", build.Version,
			"commit", build.Commit,
			"date", build.Date,
		)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := app.Run(ctx, cfg, build, logger); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("run failed", "err", err)
			return err
		}

		logger.Info("shutting down")
		return nil
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "HTTP listen address (overrides http_addr)")
	cobra.CheckErr(v.BindPFlag("http_addr", serveCmd.Flags().Lookup("addr")))
	rootCmd.AddCommand(serveCmd)
}
