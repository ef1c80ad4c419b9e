package cli

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/roach88/safeline/internal/clock"
	"github.com/roach88/safeline/internal/collab"
	"github.com/roach88/safeline/internal/config"
	"github.com/roach88/safeline/internal/delivery"
	"github.com/roach88/safeline/internal/logging"
	"github.com/roach88/safeline/internal/metrics"
	"github.com/roach88/safeline/internal/service"
	"github.com/roach88/safeline/internal/store"
)

// app is one command invocation's wiring: store, service, dispatcher and
// authenticator built from configuration.
type app struct {
	cfg        *config.Config
	logger     *zap.Logger
	store      *store.Store
	svc        *service.Service
	auth       *collab.JWTAuthenticator
	dispatcher *delivery.Dispatcher
	registry   *prometheus.Registry
	metricsOut string
	cancel     context.CancelFunc
	done       chan struct{}
}

// openApp wires the application. Callers must Close it.
func openApp(opts *RootOptions) (*app, error) {
	cfg := opts.loadConfig()

	logger, err := logging.New(logging.Config{
		Level:       cfg.Log.Level,
		Environment: cfg.Log.Environment,
		ServiceName: "safeline",
	})
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to build logger", err)
	}

	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("failed to open database %s", cfg.Database.Path), err)
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	d := delivery.New(collab.NewLogDeliverer(logger), delivery.Options{
		MaxAttempts: cfg.Delivery.MaxAttempts,
		Backoff:     cfg.Delivery.Backoff,
		Timeout:     cfg.Collaborator.Timeout,
		Rate:        cfg.Delivery.Rate,
		Workers:     cfg.Delivery.Workers,
	}, m, logger)

	svc := service.New(st, service.Options{
		Clock:               clock.System{},
		IDs:                 clock.UUIDv7{},
		Classifier:          collab.NewHTTPClassifier(cfg.Collaborator.ClassifierURL, &http.Client{Timeout: cfg.Collaborator.Timeout}),
		Storage:             collab.NewDiskStorage(cfg.Collaborator.StorageDir),
		Verifiers:           collab.NewStaticVerifiers(cfg.Collaborator.VerifierIDs...),
		Dispatcher:          d,
		Metrics:             m,
		Logger:              logger,
		CollaboratorTimeout: cfg.Collaborator.Timeout,
	})

	ctx, cancel := context.WithCancel(context.Background())
	a := &app{
		cfg:        cfg,
		logger:     logger,
		store:      st,
		svc:        svc,
		auth:       collab.NewJWTAuthenticator(cfg.JWT.SigningKey, cfg.JWT.ExpirationTime, clock.System{}),
		dispatcher: d,
		registry:   reg,
		metricsOut: opts.MetricsFile,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
	go func() {
		defer close(a.done)
		if err := d.Run(ctx); err != nil {
			logger.Warn("dispatcher stopped", zap.Error(err))
		}
	}()
	return a, nil
}

// principal authenticates the --token credential.
func (a *app) principal(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", NewExitError(ExitCommandError, "--token is required")
	}
	return a.auth.Authenticate(ctx, token)
}

// Close drains queued notifications, writes the metrics file if one was
// requested, then releases the store.
func (a *app) Close() error {
	a.dispatcher.Stop()
	<-a.done
	a.cancel()
	if a.metricsOut != "" {
		if err := prometheus.WriteToTextfile(a.metricsOut, a.registry); err != nil {
			a.logger.Error("failed to write metrics file", zap.String("path", a.metricsOut), zap.Error(err))
		}
	}
	_ = a.logger.Sync()
	return a.store.Close()
}
