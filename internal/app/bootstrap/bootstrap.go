package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	contestengine "aquajudge/contexts/contest-judging/contest-engine"
	"aquajudge/contexts/contest-judging/contest-engine/adapters/memory"
	postgresadapter "aquajudge/contexts/contest-judging/contest-engine/adapters/postgres"
	redisadapter "aquajudge/contexts/contest-judging/contest-engine/adapters/redis"
	telegramadapter "aquajudge/contexts/contest-judging/contest-engine/adapters/telegram"
	workerapp "aquajudge/contexts/contest-judging/contest-engine/application/workers"
	"aquajudge/contexts/contest-judging/contest-engine/ports"
	"aquajudge/internal/platform/config"
	"aquajudge/internal/platform/db"
	"aquajudge/internal/platform/httpserver"
	"aquajudge/internal/platform/logging"
	"aquajudge/internal/platform/messaging"
	"aquajudge/internal/platform/metrics"
	"aquajudge/internal/platform/observability"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/redis/go-redis/v9"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type eventBus interface {
	ports.EventPublisher
	ports.EventSubscriber
}

// runtime holds the infrastructure shared by the api and worker processes.
type runtime struct {
	cfg         config.Config
	log         *logging.Log
	logger      *slog.Logger
	flushSentry func()
	postgres    *db.Postgres
	redis       *redis.Client
	module      contestengine.Module
	outbox      ports.OutboxRepository
	dedup       ports.EventDedupStore
	clock       ports.Clock
	bus         eventBus
}

type APIApp struct {
	rt     *runtime
	server *httpserver.Server
	worker *WorkerApp
	logger *slog.Logger
}

type WorkerApp struct {
	rt            *runtime
	outboxRelay   workerapp.OutboxRelay
	notifications workerapp.NotificationConsumer
	closer        *workerapp.RegistrationCloser
	pollInterval  time.Duration
	logger        *slog.Logger
}

func BuildAPI(ctx context.Context) (*APIApp, error) {
	rt, err := buildRuntime(ctx, "api")
	if err != nil {
		return nil, err
	}

	server := httpserver.New(
		rt.module,
		httpserver.NewIdentity(rt.cfg.JWTSecret),
		rt.logger,
		normalizeAddr(rt.cfg.HTTPPort),
	)
	app := &APIApp{rt: rt, server: server, logger: rt.logger}

	// Without Postgres the store lives in this process, so the workers
	// have to run here too.
	if rt.postgres == nil {
		worker, err := buildWorker(rt)
		if err != nil {
			_ = rt.close()
			return nil, err
		}
		app.worker = worker
	}
	return app, nil
}

func BuildWorker(ctx context.Context) (*WorkerApp, error) {
	rt, err := buildRuntime(ctx, "worker")
	if err != nil {
		return nil, err
	}
	if rt.postgres == nil {
		rt.logger.Warn("worker running on the in-memory store sees no api writes",
			"event", "bootstrap_worker_memory_store",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	worker, err := buildWorker(rt)
	if err != nil {
		_ = rt.close()
		return nil, err
	}
	return worker, nil
}

func buildRuntime(ctx context.Context, process string) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log, err := logging.Init(cfg.LogLevel, cfg.AppEnv, cfg.ServiceName)
	if err != nil {
		return nil, err
	}
	logger := log.Slog.With("process", process)
	slog.SetDefault(logger)

	flush, err := observability.InitSentry(cfg.SentryDSN, cfg.AppEnv, cfg.Release)
	if err != nil {
		logger.Warn("sentry init failed",
			"event", "bootstrap_sentry_init_failed",
			"module", "internal/app/bootstrap",
			"layer", "platform",
			"error", err.Error(),
		)
	}

	rt := &runtime{cfg: cfg, log: log, logger: logger, flushSentry: flush}

	var (
		contests ports.ContestRepository
		judges   ports.JudgeDirectory
		idGen    ports.IDGenerator
	)
	if strings.TrimSpace(cfg.PostgresDSN) != "" {
		pg, err := db.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			_ = rt.close()
			return nil, err
		}
		rt.postgres = pg
		if cfg.RunMigrations {
			if err := pg.Migrate(ctx); err != nil {
				_ = rt.close()
				return nil, err
			}
		}
		repo := postgresadapter.NewRepository(pg.DB, logger)
		contests, judges, rt.outbox, rt.dedup = repo, repo, repo, repo
		rt.clock = postgresadapter.SystemClock{}
		idGen = postgresadapter.UUIDGenerator{}
	} else {
		logger.Warn("POSTGRES_DSN is empty, using the in-memory store",
			"event", "bootstrap_memory_store",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
		store := memory.NewStore(nil)
		contests, judges, rt.outbox, rt.dedup = store, store, store, store
		rt.clock = store
		idGen = store
	}

	var cache ports.ResultsCache
	if strings.TrimSpace(cfg.RedisAddr) != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := client.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			_ = client.Close()
			_ = rt.close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		rt.redis = client
		cache = redisadapter.NewResultsCache(client, cfg.ResultsCacheTTL)
		rt.bus = messaging.NewRedisBus(client, logger)
	} else {
		rt.bus = messaging.NewBus(0, logger)
	}

	rt.module = contestengine.NewModule(contestengine.Dependencies{
		Contests: contests,
		Judges:   judges,
		Cache:    cache,
		Clock:    rt.clock,
		IDGen:    idGen,
		Metrics:  metrics.Contest{},
		Logger:   logger,
	})
	return rt, nil
}

func buildWorker(rt *runtime) (*WorkerApp, error) {
	notifier, err := buildNotifier(rt)
	if err != nil {
		return nil, err
	}

	worker := &WorkerApp{
		rt: rt,
		outboxRelay: workerapp.OutboxRelay{
			Outbox:    rt.outbox,
			Publisher: rt.bus,
			Clock:     rt.clock,
			BatchSize: rt.cfg.OutboxBatchSize,
			Logger:    rt.logger,
		},
		notifications: workerapp.NotificationConsumer{
			Subscriber: rt.bus,
			Dedup:      rt.dedup,
			Notifier:   notifier,
			Judges:     rt.module.Judges,
			DedupTTL:   7 * 24 * time.Hour,
			Logger:     rt.logger,
		},
		pollInterval: rt.cfg.WorkerPollInterval,
		logger:       rt.logger,
	}
	if rt.cfg.AutoCloseRegistration {
		closer := rt.module.Closer
		worker.closer = &closer
	}
	return worker, nil
}

func buildNotifier(rt *runtime) (ports.Notifier, error) {
	token := strings.TrimSpace(rt.cfg.TelegramBotToken)
	if token == "" {
		return memory.NewNotifier(rt.logger), nil
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot init: %w", err)
	}
	return telegramadapter.NewNotifier(bot, rt.cfg.TelegramAnnounceChatID, observability.CaptureErr, rt.logger), nil
}

func (a *APIApp) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if a.worker != nil {
		go func() {
			if err := a.worker.Run(ctx); err != nil {
				a.logger.Error("embedded worker stopped",
					"event", "bootstrap_embedded_worker_failed",
					"module", "internal/app/bootstrap",
					"layer", "platform",
					"error", err.Error(),
				)
			}
		}()
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
		defer done()
		_ = a.server.Shutdown(shutdownCtx)
	}()

	a.logger.Info("api app started",
		"event", "bootstrap_api_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"embedded_worker", a.worker != nil,
	)
	return a.server.Start()
}

func (a *APIApp) Close() error {
	return a.rt.close()
}

func (w *WorkerApp) Run(ctx context.Context) error {
	if err := w.notifications.Start(ctx); err != nil {
		return err
	}

	pollInterval := w.pollInterval
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", pollInterval.String(),
		"auto_close_registration", w.closer != nil,
	)

	for {
		if w.closer != nil {
			w.runJob(ctx, "registration_closer", w.closer.RunOnce)
		}
		w.runJob(ctx, "outbox_relay", w.outboxRelay.RunOnce)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// runJob runs one job cycle. A failed cycle is recorded and reported; the
// next tick retries.
func (w *WorkerApp) runJob(ctx context.Context, name string, fn func(context.Context) error) {
	started := time.Now()
	err := fn(ctx)
	metrics.ObserveJob(name, started, err)
	if err == nil || errors.Is(err, context.Canceled) {
		return
	}
	observability.CaptureErr(err)
	w.logger.Error("worker job failed",
		"event", "bootstrap_worker_job_failed",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"job", name,
		"error", err.Error(),
	)
}

func (w *WorkerApp) Close() error {
	return w.rt.close()
}

func (rt *runtime) close() error {
	var errs []error
	if rt.redis != nil {
		errs = append(errs, rt.redis.Close())
	}
	if rt.postgres != nil {
		errs = append(errs, rt.postgres.Close())
	}
	if rt.flushSentry != nil {
		rt.flushSentry()
	}
	if rt.log != nil && rt.log.Closer != nil {
		rt.log.Closer()
	}
	return errors.Join(errs...)
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
