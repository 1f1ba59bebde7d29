package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"siftin-engine/internal/capture"
	"siftin-engine/internal/config"
	"siftin-engine/internal/deferred"
	"siftin-engine/internal/events"
	"siftin-engine/internal/exports"
	"siftin-engine/internal/fixtures"
	"siftin-engine/internal/help"
	"siftin-engine/internal/httpapi"
	"siftin-engine/internal/integrations"
	"siftin-engine/internal/scheduler"
	"siftin-engine/internal/secrets"
	"siftin-engine/internal/settings"
	"siftin-engine/internal/store"
	"siftin-engine/internal/view"
)

// engine is everything serve wires together.
type engine struct {
	log      *zap.Logger
	live     *config.Live
	hub      *events.Hub
	queue    *deferred.Queue
	stores   *store.Stores
	views    *view.Registry
	captures *capture.Wizard
	deps     httpapi.Deps
}

func newEngine(ctx context.Context, cfg config.Config, cfgPath string, log *zap.Logger) (*engine, error) {
	if !cfg.Integrations.UseSystemKeyring {
		secrets.UseMemory()
	}

	stores, err := store.New(cfg.Store.Backend, cfg.Store.SQLiteDSN, store.WithLatency(latencyFrom(cfg.Latency)))
	if err != nil {
		return nil, err
	}
	if err := stores.Seed(ctx, fixtures.MustLoad()); err != nil {
		_ = stores.Close()
		return nil, err
	}

	content, err := help.Load()
	if err != nil {
		_ = stores.Close()
		return nil, fmt.Errorf("help content: %w", err)
	}

	live := config.NewLive(cfg)
	hub := events.NewHub()
	queue := deferred.New(log.Named("deferred"))

	exp := exports.NewService(stores.Exports, queue,
		exports.SeededPolicy(cfg.Exports.Seed),
		exports.NewDestinationLimiter(cfg.Exports.RatePerSecond, cfg.Exports.Burst),
		hub,
		exports.Options{
			CreateSettle:      cfg.CreateSettle(),
			RetrySettle:       cfg.RetrySettle(),
			CreateSuccessRate: cfg.Exports.CreateSuccessRate,
			RetrySuccessRate:  cfg.Exports.RetrySuccessRate,
		},
		log,
	)

	wiz := capture.New(stores.Runs, stores.Leads, exp, liveScorer{live: live}, capture.Options{
		PreviewSize:  cfg.Capture.PreviewSize,
		PreviewDelay: config.MS(cfg.Latency.Preview),
		Seed:         cfg.Capture.Seed,
		CreatedBy:    cfg.App.CreatedBy,
		TTL:          cfg.CaptureTTL(),
	}, log)

	views := view.NewRegistry(stores.Leads, cfg.Views.PageSize, cfg.ViewTTL())

	live.OnChange(func(c config.Config) {
		hub.Emit("", events.TypeConfigReloaded, map[string]any{"path": cfgPath})
	})

	return &engine{
		log:      log,
		live:     live,
		hub:      hub,
		queue:    queue,
		stores:   stores,
		views:    views,
		captures: wiz,
		deps: httpapi.Deps{
			Log:          log,
			Hub:          hub,
			Leads:        stores.Leads,
			Runs:         stores.Runs,
			Exports:      exp,
			Views:        views,
			Captures:     wiz,
			Integrations: integrations.NewService(log),
			Settings:     settings.NewStore(),
			Help:         content,
			Live:         live,
			UserCfgPath:  cfgPath,
			LoadCfg:      func() (config.Config, error) { return config.Load(cfgPath) },
		},
	}, nil
}

// sweep drops idle view and wizard sessions.
func (e *engine) sweep(ctx context.Context) error {
	v, c := e.views.Sweep(), e.captures.Sweep()
	if v+c > 0 {
		e.log.Debug("swept idle sessions", zap.Int("views", v), zap.Int("captures", c))
	}
	return nil
}

func (e *engine) close() {
	e.queue.Close()
	e.hub.Close()
	_ = e.stores.Close()
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return err
	}
	lock := flock.New(filepath.Join(dataDir, "siftin.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("lock data dir: %w", err)
	}
	if !locked {
		return fmt.Errorf("another engine is already using %s", dataDir)
	}
	defer func() { _ = lock.Unlock() }()

	cfgPath, err := userConfigPath(dataDir)
	if err != nil {
		return fmt.Errorf("config bootstrap failed: %w", err)
	}
	cfg, res, err := loadConfig(cfgPath, os.Getenv)
	if err != nil {
		return err
	}
	if err := res.Err(); err != nil {
		return fmt.Errorf("config %s: %w", cfgPath, err)
	}
	logWarnings(log, res)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eng, err := newEngine(ctx, cfg, cfgPath, log)
	if err != nil {
		return err
	}
	defer eng.close()

	token, err := randomToken(16)
	if err != nil {
		return err
	}
	srv := &http.Server{ReadHeaderTimeout: 5 * time.Second}
	eng.deps.ShutdownToken = token
	eng.deps.Shutdown = srv.Shutdown
	srv.Handler = httpapi.NewRouter(eng.deps)
	// SSE streams end when the hub closes; without this Shutdown would wait on them.
	srv.RegisterOnShutdown(eng.hub.Close)

	go scheduler.Every(ctx, cfg.SweepEvery(), "session-sweep", eng.sweep, log)

	w := &config.Watcher{Path: cfgPath, Live: eng.live, Log: log}
	go func() {
		if err := w.Run(ctx); err != nil {
			log.Warn("config watcher stopped", zap.Error(err))
		}
	}()

	ln, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		return err
	}
	log.Info("engine listening",
		zap.String("addr", "http://"+ln.Addr().String()),
		zap.String("config", cfgPath),
		zap.String("store", cfg.Store.Backend),
	)
	// the desktop shell reads the token from stdout
	fmt.Fprintf(cmd.OutOrStdout(), "SIFTIN_SHUTDOWN_TOKEN=%s\n", token)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case <-ctx.Done():
		log.Info("signal received, shutting down")
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shCtx); err != nil {
			return err
		}
		<-errCh
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		log.Info("engine stopped via /shutdown")
	}
	return nil
}
