package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/feedback"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/policy"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/infrastructure/cache"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/infrastructure/config"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/infrastructure/database"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/infrastructure/feedbacklog"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/infrastructure/modelstore"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/infrastructure/telemetry"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/metrics"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/service/fraud"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/service/intel"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/service/learning"
)

// feedbackStore is the append-only store behind the feedback, train and
// auto-train commands.
type feedbackStore interface {
	Append(ctx context.Context, rec feedback.Record) (feedback.Record, error)
	Snapshot(ctx context.Context) ([]feedback.Record, error)
}

// app holds everything a command needs, built from one config.
type app struct {
	cfg     *config.Config
	policy  policy.Config
	logger  *slog.Logger
	zlog    *zap.Logger
	metrics *metrics.Registry
	models  *modelstore.Store
	service fraud.Service

	telemetry *telemetry.Provider
	server    *http.Server
	feedback  feedbackStore
	closers   []func()
}

type appOptions struct {
	configPath string
	// workers overrides batch.workers when positive.
	workers int
}

// newApp loads configuration and wires the review pipeline. Every error it
// returns is a configuration problem; no record has been touched yet.
func newApp(ctx context.Context, opts appOptions) (*app, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.workers > 0 {
		cfg.Batch.Workers = opts.workers
	}

	logger, err := telemetry.SetupLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	zlog, err := telemetry.NewZapLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:     cfg,
		logger:  logger,
		zlog:    zlog,
		metrics: metrics.NewRegistry(),
	}

	a.telemetry, err = telemetry.InitializeOpenTelemetry(ctx, telemetry.TracingConfigFrom(cfg))
	if err != nil {
		return nil, err
	}

	if a.policy, err = config.LoadPolicy(cfg.Policy.Path); err != nil {
		a.close()
		return nil, err
	}
	if a.models, err = modelstore.New(cfg.Model.Dir, zlog); err != nil {
		a.close()
		return nil, err
	}

	svcOpts := []fraud.Option{
		fraud.WithLogger(zlog),
		fraud.WithMetrics(a.metrics),
		fraud.WithWorkers(cfg.Batch.Workers),
	}
	if cfg.Model.Enabled {
		svcOpts = append(svcOpts, fraud.WithAdjustor(learning.LoadAdjustor(ctx, a.models, zlog)))
	}
	if cfg.Intel.Enabled {
		svcOpts = append(svcOpts, fraud.WithEnricher(a.newEnricher()))
	}

	if a.service, err = fraud.NewService(a.policy, svcOpts...); err != nil {
		a.close()
		return nil, err
	}

	if cfg.Metrics.Addr != "" {
		a.serveMetrics(cfg.Metrics.Addr)
	}
	return a, nil
}

// newEnricher builds the HTTP intelligence provider, behind the Redis
// cache when one is configured and reachable.
func (a *app) newEnricher() *intel.Enricher {
	ic := a.cfg.Intel
	var provider intel.Provider = intel.NewHTTPProvider(intel.HTTPConfig{
		Timeout:          ic.Timeout,
		UserAgent:        ic.UserAgent,
		RateLimit:        ic.RateLimit,
		Burst:            ic.Burst,
		MaxBodyBytes:     ic.MaxBodyBytes,
		RDAPURL:          ic.RDAPURL,
		FailureThreshold: ic.FailureThreshold,
		ResetTimeout:     ic.ResetTimeout,
	}, a.zlog)

	if a.cfg.Redis.URL != "" {
		c, err := cache.NewRedisCache(&a.cfg.Redis, a.zlog)
		if err != nil {
			a.logger.Warn("intel cache unavailable, lookups will not be cached", "error", err)
		} else {
			a.closers = append(a.closers, func() { _ = c.Close() })
			provider = intel.NewCachedProvider(provider, c, ic.CacheTTL, a.zlog, a.metrics)
		}
	}
	return intel.NewEnricher(provider, ic.MaxURLs, a.zlog, a.metrics)
}

func (a *app) serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.metrics.Handler())
	a.server = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server failed", "addr", addr, "error", err)
		}
	}()
	a.logger.Info("serving metrics", "addr", addr)
}

// feedbackLog opens the configured feedback backend on first use.
func (a *app) feedbackLog(ctx context.Context) (feedbackStore, error) {
	if a.feedback != nil {
		return a.feedback, nil
	}

	switch a.cfg.Feedback.Backend {
	case config.BackendPostgres:
		pool, err := database.NewConnectionPool(ctx, &a.cfg.Database, a.zlog)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, pool.Close)
		a.feedback = database.NewFeedbackStore(pool.Pool(), a.zlog, a.metrics)
	default:
		fl, err := feedbacklog.Open(a.cfg.Feedback.Path, a.zlog, a.metrics)
		if err != nil {
			return nil, err
		}
		a.feedback = fl
	}
	return a.feedback, nil
}

func (a *app) trainer(ctx context.Context) (*learning.Trainer, error) {
	source, err := a.feedbackLog(ctx)
	if err != nil {
		return nil, err
	}
	tc := a.cfg.Training
	return learning.NewTrainer(source, a.models, a.service, learning.TrainingConfig{
		MinRecords:      tc.MinRecords,
		MinClassRecords: tc.MinClassRecords,
		MinClassRatio:   tc.MinClassRatio,
		MinNewRecords:   tc.MinNewRecords,
		Epochs:          tc.Epochs,
		LearningRate:    tc.LearningRate,
		L2:              tc.L2,
		Tolerance:       tc.Tolerance,
	}, a.zlog, a.metrics), nil
}

// close releases resources in reverse order of acquisition.
func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if a.server != nil {
		_ = a.server.Shutdown(ctx)
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	if a.telemetry != nil {
		if err := a.telemetry.Shutdown(ctx); err != nil {
			a.logger.Warn("telemetry shutdown failed", "error", err)
		}
	}
	_ = a.zlog.Sync()
}
