package cli

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/labi1240/amazon-shifts-bot/internal/control"
	"github.com/labi1240/amazon-shifts-bot/internal/core/config"
)

var (
	cfgPath string
	isDebug bool
)

var rootCmd = &cobra.Command{
	Use:   "shiftbot",
	Short: "Shift monitoring and booking engine",
	Long:  `Shiftbot watches hiring-portal targets for open shifts, claims them through layered strategies, and reports every outcome to the operator channel.`,
	Run:   runEngine,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "config.yaml", "config file (default is config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&isDebug, "debug", false, "enable debug logging")
}

func initLogger(cfg *config.AppConfig) *slog.Logger {
	level := slog.LevelInfo
	if isDebug || (cfg != nil && cfg.Logging.Level == "debug") {
		level = slog.LevelDebug
	}

	var handler slog.Handler
	if cfg != nil && cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = tint.NewHandler(os.Stderr, &tint.Options{
			Level:      level,
			TimeFormat: time.RFC3339,
		})
	}
	log := slog.New(handler)
	slog.SetDefault(log)
	return log
}

func runEngine(cmd *cobra.Command, args []string) {
	_ = godotenv.Load()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		initLogger(nil)
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	log := initLogger(cfg)

	app, err := control.NewApp(cfg, log)
	if err != nil {
		log.Error("Failed to initialize engine", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 2)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan error, 1)
	go func() {
		done <- app.Run(ctx)
	}()

	log.Info("Engine started", "config", cfgPath, "targets", cfg.Targets)

	var runErr error
loop:
	for {
		select {
		case runErr = <-done:
			break loop
		case sig := <-sigChan:
			log.Info("Received signal, finishing current cycle...", "signal", sig)
			app.RequestShutdown()
			// A second signal aborts the cycle in progress.
			select {
			case runErr = <-done:
			case sig = <-sigChan:
				log.Warn("Received second signal, aborting", "signal", sig)
				cancel()
				runErr = <-done
			}
			break loop
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := app.Stop(shutdownCtx); err != nil {
		log.Error("Error during shutdown", "error", err)
		os.Exit(1)
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Engine stopped with error", "error", runErr)
		os.Exit(1)
	}
	log.Info("Engine stopped gracefully")
}
