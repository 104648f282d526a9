package control

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/labi1240/amazon-shifts-bot/internal/core/config"
	"github.com/labi1240/amazon-shifts-bot/internal/health"
	redisclient "github.com/labi1240/amazon-shifts-bot/internal/infra/redis"
	"github.com/labi1240/amazon-shifts-bot/internal/infra/storage"
	"github.com/labi1240/amazon-shifts-bot/internal/infra/storage/memory"
	"github.com/labi1240/amazon-shifts-bot/internal/infra/storage/postgres"
	"github.com/labi1240/amazon-shifts-bot/internal/notify"
	"github.com/labi1240/amazon-shifts-bot/internal/portal"
	"github.com/labi1240/amazon-shifts-bot/internal/resilience"
	"github.com/labi1240/amazon-shifts-bot/internal/scan"
	"github.com/labi1240/amazon-shifts-bot/internal/session"

	"github.com/pressly/goose/v3"
)

// App is the main application struct that manages the engine lifecycle.
type App struct {
	cfg          *config.AppConfig
	orch         *Orchestrator
	healthServer *health.Server
	db           *postgres.DB
	redisClient  *redisclient.Client
	log          *slog.Logger
}

// NewApp creates an App with all dependencies initialized.
func NewApp(cfg *config.AppConfig, log *slog.Logger) (*App, error) {
	if log == nil {
		log = slog.Default()
	}
	exec := resilience.NewExecutor(log)

	// 1. Storage
	var ledger storage.BookingLedger
	var db *postgres.DB
	if cfg.Database.URL != "" {
		var err error
		db, err = postgres.NewDB(context.Background(), cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to init db: %w", err)
		}
		if err := goose.SetDialect("postgres"); err != nil {
			return nil, err
		}
		if err := goose.Up(db.DB.DB, "migrations"); err != nil {
			return nil, fmt.Errorf("failed to migrate db: %w", err)
		}
		ledger = postgres.NewBookingRepo(db)
		log.Info("using postgresql booking ledger")
	} else {
		ledger = memory.NewBookingRepo()
		log.Info("using in-memory booking ledger")
	}

	// 2. Optional Redis seen store. Losing dedupe only costs duplicate
	// claim attempts, so redis failures downgrade rather than abort.
	var redisClient *redisclient.Client
	var seen scan.SeenStore
	if cfg.Redis.URL != "" {
		var err error
		redisClient, err = redisclient.NewClient(redisclient.Config{
			URL:      cfg.Redis.URL,
			Password: cfg.Redis.Password,
			SeenTTL:  cfg.Redis.SeenTTL.Std(),
		})
		if err != nil {
			log.Warn("failed to connect to redis, dedupe disabled", "error", err)
		} else {
			seen = redisClient
		}
	}

	// 3. Portal client: scanner, claim strategies, session probes, login.
	pc, err := portal.NewClient(portal.Config{
		BaseURL:  cfg.Portal.BaseURL,
		Email:    cfg.Portal.Email,
		Password: cfg.Portal.Password,
		Timeout:  cfg.Portal.Timeout.Std(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init portal client: %w", err)
	}
	claimers := make([]Claimer, 0, 2)
	for _, s := range pc.ClaimStrategies() {
		claimers = append(claimers, s)
	}

	// 4. Notification dispatcher
	var channel notify.Channel
	if cfg.Notify.WebhookURL != "" {
		channel = notify.NewDiscordChannel(cfg.Notify.WebhookURL, cfg.Notify.Username)
	} else {
		log.Warn("no webhook configured, notifications go to the process log")
		channel = notify.NewLogChannel(log)
	}
	fallback := notify.NewFileFallback(cfg.Notify.FallbackPath)
	var alerter notify.Alerter = notify.NopAlerter{}
	if cfg.Notify.BellAlert {
		alerter = notify.BellAlerter{}
	}
	dispatcher := notify.NewDispatcher(notify.Config{
		Timeouts:    durations(cfg.Notify.Timeouts),
		MaxAttempts: cfg.Notify.MaxAttempts,
	}, channel, exec, fallback, alerter, log)

	// 5. Session monitor
	sess := session.NewMonitor(session.Config{
		StalenessBound: cfg.Session.StalenessBound.Std(),
		MaxAttempts:    cfg.Session.MaxAttempts,
		BaseDelay:      cfg.Session.BaseDelay.Std(),
		MaxDelay:       cfg.Session.MaxDelay.Std(),
	}, exec, pc.Probes(), pc, log)

	// 6. Orchestrator
	orch := NewOrchestrator(Config{
		Targets:              cfg.Targets,
		ParallelScan:         cfg.Monitor.ParallelScan,
		CheckInterval:        cfg.Monitor.CheckInterval.Std(),
		RecoveryInterval:     cfg.Monitor.RecoveryInterval.Std(),
		RecoveryIntervalMax:  cfg.Monitor.RecoveryIntervalMax.Std(),
		FailureThreshold:     cfg.Monitor.FailureThreshold,
		DailyQuota:           cfg.Booking.DailyQuota,
		PerCycleLimit:        cfg.Booking.PerCycleLimit,
		ClaimPolicy:          ClaimPolicy(cfg.Booking.ClaimPolicy),
		PauseBetweenBookings: cfg.Booking.PauseBetweenBookings.Std(),
		SummaryEvery:         cfg.Monitor.SummaryEvery,
		MaxCycles:            cfg.Monitor.MaxCycles,
		ClaimMaxAttempts:     cfg.Booking.MaxAttempts,
		ClaimBaseDelay:       cfg.Booking.BaseDelay.Std(),
		ClaimMaxDelay:        cfg.Booking.MaxDelay.Std(),
	}, exec, sess, pc, claimers, dispatcher, ledger, seen, fallback, log)

	// 7. Health monitor and server
	healthMon := health.NewMonitor(orch, cfg.Monitor.FailureThreshold)
	healthServer := health.NewServer(healthMon, cfg.Server.Port)

	return &App{
		cfg:          cfg,
		orch:         orch,
		healthServer: healthServer,
		db:           db,
		redisClient:  redisClient,
		log:          log,
	}, nil
}

// Run starts the health server and blocks in the monitoring loop until
// the context is cancelled, a fatal condition stops the engine, or a
// terminal condition (quota, max cycles) is reached.
func (a *App) Run(ctx context.Context) error {
	go func() {
		if err := a.healthServer.Start(); err != nil {
			a.log.Error("health server failed", "error", err)
		}
	}()
	return a.orch.Run(ctx)
}

// Stop releases resources after the monitoring loop has exited.
func (a *App) Stop(ctx context.Context) error {
	a.log.Info("stopping engine")

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.log.Warn("failed to close redis", "error", err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Warn("failed to close database", "error", err)
		}
	}
	return a.healthServer.Stop(ctx)
}

// RequestShutdown asks the monitoring loop to exit after the current cycle.
func (a *App) RequestShutdown() {
	a.orch.State().RequestShutdown()
}

func durations(ds []config.Duration) []time.Duration {
	out := make([]time.Duration, len(ds))
	for i, d := range ds {
		out[i] = d.Std()
	}
	return out
}
