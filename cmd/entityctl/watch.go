package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/jonwraymond/hyperentity/binding"
	"github.com/jonwraymond/hyperentity/health"
	"github.com/jonwraymond/hyperentity/observe"
)

type watchOptions struct {
	interval   time.Duration
	healthAddr string
	count      int
	raw        bool
}

func runWatch(ctx context.Context, args []string, stdout, stderr io.Writer) (err error) {
	var opts watchOptions
	cfg, err := parseFlags("watch", args, stderr, func(fs *flag.FlagSet) {
		fs.DurationVar(&opts.interval, "interval", envDuration("ENTITYCTL_INTERVAL", 0), "refresh interval (0 disables)")
		fs.StringVar(&opts.healthAddr, "health-addr", envOr("ENTITYCTL_HEALTH_ADDR", ""), "serve health endpoints on this address")
		fs.IntVar(&opts.count, "count", 0, "exit after this many changes (0 runs until interrupted)")
		fs.BoolVar(&opts.raw, "json", false, "print raw JSON")
	})
	if err != nil {
		return err
	}
	if opts.interval < 0 || opts.count < 0 {
		return fmt.Errorf("%w: -interval and -count must be >= 0", errUsage)
	}

	a, err := newApp(ctx, cfg, stderr)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.close(ctx); err == nil {
			err = cerr
		}
	}()

	href, err := a.href()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu   sync.Mutex
		seen int
	)
	b := binding.NewSiren(a.store,
		binding.WithLogger(a.logger),
		binding.WithOnChange(func(v binding.View) {
			mu.Lock()
			defer mu.Unlock()
			printView(stdout, v, opts.raw)
			seen++
			if opts.count > 0 && seen >= opts.count {
				cancel()
			}
		}),
	)

	g, gctx := errgroup.WithContext(ctx)
	if opts.healthAddr != "" {
		srv, ln, err := a.healthServer(opts.healthAddr)
		if err != nil {
			return err
		}
		a.logger.Info(ctx, "health server listening", observe.Field{Key: "addr", Value: ln.Addr().String()})
		g.Go(func() error {
			if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			sctx, scancel := context.WithTimeout(context.WithoutCancel(gctx), 5*time.Second)
			defer scancel()
			return srv.Shutdown(sctx)
		})
	}

	g.Go(func() error {
		b.Set(gctx, href, a.token)
		defer b.Detach()
		return refreshLoop(gctx, opts.interval, func() {
			a.store.Refresh(gctx, href, a.token)
		})
	})
	return g.Wait()
}

// refreshLoop calls refresh every interval until ctx ends. A zero interval
// only waits.
func refreshLoop(ctx context.Context, interval time.Duration, refresh func()) error {
	if interval <= 0 {
		<-ctx.Done()
		return nil
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			refresh()
		}
	}
}

func (a *app) healthServer(addr string) (*http.Server, net.Listener, error) {
	agg := health.NewAggregator()
	agg.Register("store", health.NewStoreChecker(a.store, health.StoreCheckerConfig{}))
	agg.Register("transport", health.NewCircuitChecker(a.client))

	mux := http.NewServeMux()
	health.RegisterHandlers(mux, agg)
	if a.cfg.metrics == "prometheus" {
		mux.Handle("/metrics", promhttp.Handler())
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, fmt.Errorf("health listener: %w", err)
	}
	return &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}, ln, nil
}

func printView(w io.Writer, v binding.View, raw bool) {
	_, _ = fmt.Fprintf(w, "--- %s version %d\n", v.Key.Href, v.Version)
	if v.Err != nil {
		_, _ = fmt.Fprintf(w, "error: %v\n", v.Err)
		return
	}
	if err := printPayload(w, v.Entity, raw); err != nil {
		_, _ = fmt.Fprintf(w, "error: %v\n", err)
	}
}
