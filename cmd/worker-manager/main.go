// cmd/worker-manager/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"loan-intake-workers/internal/api"
	"loan-intake-workers/internal/common/aws"
	"loan-intake-workers/internal/common/camunda"
	"loan-intake-workers/internal/common/config"
	"loan-intake-workers/internal/common/database"
	"loan-intake-workers/internal/common/logger"
	"loan-intake-workers/internal/common/observability"
	"loan-intake-workers/internal/common/validation"
	"loan-intake-workers/internal/scorestore"
	"loan-intake-workers/pkg/registry"

	calc "loan-intake-workers/internal/workers/scoring/calculate-crust-score"
	idx "loan-intake-workers/internal/workers/scoring/index-crust-score"
	notify "loan-intake-workers/internal/workers/scoring/notify-crust-score"
	persist "loan-intake-workers/internal/workers/scoring/persist-crust-score"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}

	log.Info("starting worker manager", map[string]interface{}{
		"app":         cfg.App.Name,
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
	})

	if err := run(cfg, log); err != nil {
		log.Error("worker manager failed", map[string]interface{}{"error": err})
		os.Exit(1)
	}
	log.Info("worker manager stopped gracefully", nil)
}

// retryLogger logs each failed startup attempt.
func retryLogger(log logger.Logger, what string) func(int, time.Duration, error) {
	return func(attempt int, delay time.Duration, err error) {
		log.Warn(what+" failed, retrying", map[string]interface{}{
			"attempt":     attempt,
			"nextRetryIn": delay.String(),
			"transient":   camunda.IsTransient(err),
			"error":       err,
		})
	}
}

func run(cfg *config.Config, log logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	obs, err := observability.New(cfg.App.Name, prometheus.DefaultRegisterer)
	if err != nil {
		return fmt.Errorf("observability: %w", err)
	}
	defer func() {
		if err := obs.Shutdown(context.Background()); err != nil {
			log.Warn("observability shutdown failed", map[string]interface{}{"error": err})
		}
	}()

	// --- Zeebe ---
	var zc *camunda.Client
	err = camunda.Retry(ctx, camunda.DefaultRetryConfig, "Zeebe connection", func(ctx context.Context) error {
		c, err := camunda.NewClient(ctx, cfg.Camunda.BrokerAddress)
		if err != nil {
			return err
		}
		zc = c
		return nil
	}, retryLogger(log, "Zeebe connection"))
	if err != nil {
		return err
	}
	defer zc.Close()
	log.Info("Zeebe client connected", map[string]interface{}{"gateway": cfg.Camunda.BrokerAddress})

	// --- PostgreSQL ---
	var pg *database.PostgresClient
	pgRetry := camunda.DefaultRetryConfig
	pgRetry.MaxRetries = 15
	err = camunda.Retry(ctx, pgRetry, "PostgreSQL connection", func(ctx context.Context) error {
		c, err := database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		if err := c.Ping(ctx); err != nil {
			c.Close()
			return err
		}
		pg = c
		return nil
	}, retryLogger(log, "PostgreSQL connection"))
	if err != nil {
		return err
	}
	defer pg.Close()
	log.Info("PostgreSQL connected", nil)

	// --- Redis ---
	rdb := database.NewRedis(cfg.Database.Redis)
	defer rdb.Close()
	err = camunda.Retry(ctx, camunda.DefaultRetryConfig, "Redis connection", rdb.Ping, retryLogger(log, "Redis connection"))
	if err != nil {
		return err
	}
	log.Info("Redis connected", nil)

	store := scorestore.New(pg.DB, rdb.Client, cfg.Scoring.TTL(), log)

	// --- Elasticsearch (optional) ---
	var es *database.ElasticsearchClient
	if cfg.Database.Elasticsearch.Enabled() {
		es, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		err = camunda.Retry(ctx, camunda.DefaultRetryConfig, "Elasticsearch connection", func(ctx context.Context) error {
			if err := es.Ping(ctx); err != nil {
				return err
			}
			return es.EnsureIndex(ctx, cfg.Scoring.IndexName, database.ScoreIndexMapping)
		}, retryLogger(log, "Elasticsearch connection"))
		if err != nil {
			return err
		}
		log.Info("Elasticsearch connected", map[string]interface{}{"index": cfg.Scoring.IndexName})
	} else {
		log.Info("Elasticsearch not configured, score indexing disabled", nil)
	}

	// --- AWS (only when a notification channel is on) ---
	var (
		emailSender    aws.EmailSender
		topicPublisher aws.TopicPublisher
	)
	if cfg.Notifications.Email.Enabled || cfg.Notifications.Alerts.Enabled {
		clients, err := aws.NewClients(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			return err
		}
		emailSender = clients.SES
		topicPublisher = clients.SNS
	}

	// --- Job variable validation ---
	reg, err := registry.Default()
	if err != nil {
		return fmt.Errorf("activity registry: %w", err)
	}
	validator, err := validation.NewValidator(reg)
	if err != nil {
		return err
	}

	// --- Workers ---
	var workers []worker.JobWorker
	start := func(taskType string, handler camunda.JobHandler) {
		wcfg := config.GetWorkerConfig(cfg, taskType)
		if activity, ok := reg.Lookup(taskType); !ok {
			log.Warn("task type missing from activity registry", map[string]interface{}{"taskType": taskType})
		} else if suggested, err := activity.TimeoutDuration(); err == nil && suggested > config.GetDuration(wcfg.Timeout) {
			log.Warn("worker timeout below registry suggestion", map[string]interface{}{
				"taskType":   taskType,
				"timeout_ms": wcfg.Timeout,
				"suggested":  suggested.String(),
			})
		}
		if w := camunda.StartWorker(zc.GetClient(), taskType, wcfg, handler, obs, log); w != nil {
			workers = append(workers, w)
		}
	}

	start(calc.TaskType, calc.NewHandler(calc.HandlerOptions{
		Config:    calc.NewConfig(cfg),
		Validator: validator,
		Logger:    log,
	}).Handle)

	start(persist.TaskType, persist.NewHandler(persist.HandlerOptions{
		Config:    persist.NewConfig(cfg),
		Store:     store,
		Validator: validator,
		Logger:    log,
	}).Handle)

	if es != nil {
		start(idx.TaskType, idx.NewHandler(idx.HandlerOptions{
			Config:    idx.NewConfig(cfg),
			ES:        es.Client,
			Validator: validator,
			Logger:    log,
		}).Handle)
	}

	start(notify.TaskType, notify.NewHandler(notify.HandlerOptions{
		Config:    notify.NewConfig(cfg),
		Contacts:  store,
		Email:     emailSender,
		Alerts:    topicPublisher,
		Validator: validator,
		Logger:    log,
	}).Handle)

	log.Info("workers registered", map[string]interface{}{"count": len(workers)})

	// --- HTTP ---
	gin.SetMode(gin.ReleaseMode)
	checks := map[string]api.CheckFunc{"zeebe": zc.HealthCheck}
	if es != nil {
		checks["elasticsearch"] = es.Ping
	}
	srv := &http.Server{
		Addr: cfg.HTTP.Address,
		Handler: api.NewServer(api.Options{
			Store:    store,
			Gatherer: prometheus.DefaultGatherer,
			Checks:   checks,
			Logger:   log,
		}).Handler(),
		ReadTimeout:  config.GetDuration(cfg.HTTP.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.HTTP.WriteTimeout),
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", map[string]interface{}{"address": cfg.HTTP.Address})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, stopping workers", nil)
	case err := <-serveErr:
		log.Error("HTTP server failed", map[string]interface{}{"error": err})
	}

	// --- Graceful shutdown ---
	for _, w := range workers {
		w.Close()
		w.AwaitClose()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.HTTP.ShutdownTimeout))
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown failed", map[string]interface{}{"error": err})
	}

	return nil
}
