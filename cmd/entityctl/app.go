package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jonwraymond/hyperentity/auth"
	"github.com/jonwraymond/hyperentity/entity"
	"github.com/jonwraymond/hyperentity/observe"
	"github.com/jonwraymond/hyperentity/secret"
	"github.com/jonwraymond/hyperentity/transport"
)

// app wires the store and its collaborators for one command run.
type app struct {
	cfg     *config
	token   string
	obs     observe.Observer
	mw      *observe.Middleware
	logger  observe.Logger
	secrets *secret.Resolver
	client  *transport.Client
	store   *entity.Store
}

func newApp(ctx context.Context, cfg *config, stderr io.Writer) (*app, error) {
	obs, err := observe.NewObserver(ctx, observe.Config{
		ServiceName: "entityctl",
		Version:     version,
		Tracing:     observe.TracingConfig{Enabled: cfg.tracingEnabled(), Exporter: cfg.traces, SamplePct: 1},
		Metrics:     observe.MetricsConfig{Enabled: cfg.metricsEnabled(), Exporter: cfg.metrics},
		Logging:     observe.LoggingConfig{Enabled: true, Level: cfg.logLevel, Writer: stderr},
	})
	if err != nil {
		return nil, fmt.Errorf("observer: %w", err)
	}
	a := &app{cfg: cfg, obs: obs, logger: obs.Logger()}

	if a.mw, err = observe.MiddlewareFromObserver(obs); err != nil {
		return nil, a.fail(ctx, fmt.Errorf("middleware: %w", err))
	}

	if a.secrets, err = secret.DefaultRegistry.Resolver(true, nil); err != nil {
		return nil, a.fail(ctx, err)
	}
	if a.token, err = a.secrets.ResolveToken(ctx, cfg.token); err != nil {
		return nil, a.fail(ctx, fmt.Errorf("resolve token: %w", err))
	}
	if a.token == "" {
		return nil, a.fail(ctx, fmt.Errorf("%w: token resolved to an empty value", errUsage))
	}
	a.inspectToken(ctx)

	a.client, err = transport.New(transport.Config{
		BaseURL:   cfg.baseURL,
		Timeout:   cfg.timeout,
		Retry:     transport.RetryConfig{MaxAttempts: cfg.retries + 1, Jitter: true},
		Breaker:   transport.BreakerConfig{MaxFailures: cfg.breaker},
		UserAgent: cfg.userAgent,
		Logger:    a.logger,
	})
	if err != nil {
		return nil, a.fail(ctx, err)
	}

	a.store = entity.NewStore(a.client,
		entity.WithMiddleware(a.mw),
		entity.WithPolicy(entity.Policy{MaxAge: cfg.maxAge}),
	)
	return a, nil
}

// href returns the configured href resolved against the base URL, so store
// keys match the absolute URLs actions write back to.
func (a *app) href() (string, error) {
	u, err := a.client.Resolve(a.cfg.href)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

func (a *app) inspectToken(ctx context.Context) {
	info := auth.InspectToken(a.token)
	fields := []observe.Field{
		{Key: "entity.credential", Value: info.Fingerprint},
		{Key: "jwt", Value: info.JWT},
	}
	if info.Subject != "" {
		fields = append(fields, observe.Field{Key: "subject", Value: info.Subject})
	}
	if info.TenantID != "" {
		fields = append(fields, observe.Field{Key: "tenant", Value: info.TenantID})
	}
	if info.Expired(time.Now()) {
		a.logger.Warn(ctx, "token expired", append(fields, observe.Field{Key: "expired_at", Value: info.ExpiresAt})...)
		return
	}
	a.logger.Debug(ctx, "token loaded", fields...)
}

func (a *app) fail(ctx context.Context, err error) error {
	return errors.Join(err, a.close(ctx))
}

func (a *app) close(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	var errs []error
	if a.secrets != nil {
		errs = append(errs, a.secrets.Close())
	}
	errs = append(errs, a.obs.Shutdown(ctx))
	return errors.Join(errs...)
}
