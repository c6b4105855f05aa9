package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"meditriage/internal/alert"
	"meditriage/internal/analytics"
	"meditriage/internal/catalog"
	"meditriage/internal/config"
	"meditriage/internal/health"
	"meditriage/internal/logger"
	"meditriage/internal/platform/telegram"
	"meditriage/internal/report"
	"meditriage/internal/selfcare"
	"meditriage/internal/transcribe"
	"meditriage/internal/triage"
)

const dbConnectAttempts = 10

func main() {
	configPath := flag.String("config", os.Getenv("MEDITRIAGE_CONFIG"), "path to config.yaml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	zl, err := logger.New(cfg.App.LogLevel)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()
	zl = zl.With(zap.String("service", "meditriage"), zap.String("env", cfg.App.Env))

	if err := run(cfg, zl); err != nil {
		zl.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, zl *zap.Logger) error {
	sentryOn := false
	if cfg.Alerts.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Alerts.SentryDSN,
			Environment: cfg.App.Env,
			Release:     "meditriage@" + cfg.App.Version,
		}); err != nil {
			zl.Warn("sentry init failed", zap.Error(err))
		} else {
			sentryOn = true
			defer sentry.Flush(2 * time.Second)
		}
	}

	// 1. Infrastructure
	db, err := connectDB(cfg.Database, zl)
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.Database.RunMigrations {
		if err := runMigrations(cfg.Database, zl); err != nil {
			return err
		}
	}

	gormDB, err := analytics.OpenGorm(db)
	if err != nil {
		return fmt.Errorf("open gorm: %w", err)
	}

	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
	}

	// 2. Clients
	var tg *telegram.Client
	if cfg.Alerts.TelegramToken != "" {
		tg = telegram.NewClient(cfg.Alerts.TelegramToken)
	}

	// 3. Services
	engineCfg, err := cfg.Triage.EngineConfig()
	if err != nil {
		return err
	}

	repo := catalog.NewRepository(db)
	logs := analytics.NewTriageLogDAO(gormDB)

	notifierOpts := alert.Options{ChatID: cfg.Alerts.TelegramChatID, MinInterval: cfg.Alerts.MinInterval, Sentry: sentryOn}
	if tg != nil {
		notifierOpts.Sender = tg
	}
	notifier := alert.NewNotifier(notifierOpts, zl)
	defer notifier.Wait()

	var publisher analytics.EventPublisher
	if rdb != nil {
		publisher = analytics.NewPublisher(rdb, cfg.Redis.Channel)
	}
	sinks := []triage.AssessmentSink{analytics.NewRecorder(logs, publisher, 0, zl)}

	renderer := report.NewRenderer(nil)
	if tg != nil && cfg.Alerts.ClinicianChatID != 0 {
		sinks = append(sinks, report.NewClinicianEscalation(renderer, tg, cfg.Alerts.ClinicianChatID, 30*time.Second, zl))
	} else {
		zl.Warn("clinician chat is not configured; EMERGENCY results will not be escalated")
	}

	triageSvc, err := triage.NewService(engineCfg, repo, notifier, zl, sinks...)
	if err != nil {
		return err
	}

	redFlags := triage.NewRedFlagDetector(engineCfg, repo, notifier, zl)
	healthDeps := health.Dependencies{
		DB:          repo,
		Pool:        db.Stats,
		RedFlags:    redFlags,
		Degradation: notifier.Stats,
		Version:     cfg.App.Version,
	}
	if rdb != nil {
		healthDeps.Redis = health.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	}

	h := handlers{
		health:    health.NewHandler(healthDeps, zl),
		triage:    triage.NewHandler(triageSvc, engineCfg.GeneralNotice, zl),
		catalog:   catalog.NewHandler(repo, zl),
		analytics: analytics.NewHandler(logs, zl),
		report:    report.NewHandler(logs, renderer, engineCfg.GeneralNotice, zl),
		selfcare:  selfcare.NewHandler(redFlags, zl),
	}
	if cfg.Transcription.URL != "" {
		h.transcribe = transcribe.NewHandler(transcribe.NewWhisperClient(cfg.Transcription.URL, cfg.Transcription.Timeout), zl)
	}

	// 4. Router
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      newRouter(cfg, h, zl),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		zl.Info("server starting", zap.String("addr", srv.Addr), zap.Bool("rate_limited", cfg.RateLimited()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		zl.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	zl.Info("server stopped")
	return nil
}

// connectDB retries until Postgres answers a ping.
func connectDB(cfg config.DatabaseConfig, zl *zap.Logger) (*sql.DB, error) {
	var db *sql.DB
	var err error
	for i := 0; i < dbConnectAttempts; i++ {
		db, err = sql.Open("postgres", cfg.URL)
		if err == nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			err = db.PingContext(ctx)
			cancel()
		}
		if err == nil {
			break
		}
		if db != nil {
			_ = db.Close()
		}
		zl.Warn("waiting for database", zap.Int("attempt", i+1), zap.Int("of", dbConnectAttempts), zap.Error(err))
		time.Sleep(time.Duration(i+1) * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("could not connect to database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(30 * time.Minute)
	zl.Info("connected to database")
	return db, nil
}

func runMigrations(cfg config.DatabaseConfig, zl *zap.Logger) error {
	m, err := migrate.New(cfg.MigrationsPath, cfg.URL)
	if err != nil {
		return fmt.Errorf("migration init failed: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	zl.Info("migrations applied")
	return nil
}
