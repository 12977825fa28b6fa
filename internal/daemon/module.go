package daemon

import (
	"context"
	"net/http"

	"github.com/matheus3301/floodline/internal/api"
	"github.com/matheus3301/floodline/internal/backend"
	"github.com/matheus3301/floodline/internal/bus"
	"github.com/matheus3301/floodline/internal/cache"
	"github.com/matheus3301/floodline/internal/config"
	"github.com/matheus3301/floodline/internal/connectivity"
	"github.com/matheus3301/floodline/internal/lock"
	"github.com/matheus3301/floodline/internal/logging"
	"github.com/matheus3301/floodline/internal/outbox"
	"github.com/matheus3301/floodline/internal/profile"
	"github.com/matheus3301/floodline/internal/queue"
	"github.com/matheus3301/floodline/internal/snapshot"
	"github.com/matheus3301/floodline/internal/status"
	"github.com/matheus3301/floodline/internal/store"
	"github.com/matheus3301/floodline/internal/worker"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Params holds the resolved profile configuration passed to the fx module.
type Params struct {
	ProfileName string
	SocketPath  string         // optional override for testing; empty = use default
	Config      *config.Config // optional; nil = load config.toml
	Verbose     bool
}

// Module returns the fx module for the daemon, composing all providers and lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("daemon",
		fx.Supply(p),
		fx.Provide(
			provideConfig,
			provideLogger,
			provideBus,
			provideStateMachine,
			provideLock,
			provideStore,
			provideQueue,
			provideSnapshots,
			provideBackend,
			provideMonitor,
			provideSynchronizer,
			provideManager,
			provideLifecycle,
			NewGateway,
			provideSyncService,
			provideCacheService,
			NewServer,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideConfig(p Params) (*config.Config, error) {
	if p.Config != nil {
		return p.Config, p.Config.Validate()
	}
	return config.LoadOrDefault(profile.ConfigPath())
}

func provideLogger(p Params) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if p.Verbose {
		level = zapcore.DebugLevel
	}
	return logging.New(profile.LogPath(p.ProfileName), p.ProfileName, level)
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideStateMachine(b *bus.Bus) *status.Machine {
	return status.NewMachine(b)
}

func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	if err := profile.EnsureDir(p.ProfileName); err != nil {
		return nil, err
	}
	logger.Info("acquiring profile lock", zap.String("profile", p.ProfileName))
	l, err := lock.Acquire(profile.Dir(p.ProfileName))
	if err != nil {
		return nil, err
	}
	logger.Info("profile lock acquired")
	return l, nil
}

// provideStore depends on the lock so the database is only opened by its owner.
func provideStore(p Params, _ *lock.Lock, logger *zap.Logger) (*store.DB, error) {
	dbPath := profile.DBPath(p.ProfileName)
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}
	result, err := db.Migrate()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if result.Changed {
		logger.Info("migrations applied", zap.Uint("version", result.Version))
	} else {
		logger.Info("migrations up to date", zap.Uint("version", result.Version))
	}
	logger.Info("store initialized", zap.String("path", dbPath))
	return db, nil
}

func provideQueue(db *store.DB, b *bus.Bus, logger *zap.Logger) *queue.Queue {
	return queue.New(db, b, logger.Named("queue"))
}

func provideSnapshots(db *store.DB, b *bus.Bus, logger *zap.Logger) *snapshot.Store {
	return snapshot.NewStore(db, b, logger.Named("snapshot"))
}

func provideBackend(cfg *config.Config, logger *zap.Logger) *backend.Client {
	client := &http.Client{Timeout: cfg.Backend.Timeout.Duration}
	return backend.NewClient(cfg.Backend.URL, client, logger.Named("backend"))
}

func provideMonitor(cfg *config.Config, b *bus.Bus, logger *zap.Logger) *connectivity.Monitor {
	var prober connectivity.Prober
	if cfg.Sync.ProbeInterval.Duration > 0 {
		url := cfg.Sync.ProbeURL
		if url == "" {
			url = cfg.Backend.URL
		}
		timeout := cfg.Backend.Timeout.Duration
		if timeout == 0 {
			timeout = cfg.Sync.ProbeInterval.Duration
		}
		prober = &connectivity.HTTPProber{URL: url, Client: &http.Client{Timeout: timeout}}
	}
	return connectivity.NewMonitor(prober, cfg.Sync.ProbeInterval.Duration, b, logger.Named("connectivity"))
}

func provideSynchronizer(cfg *config.Config, q *queue.Queue, client *backend.Client, m *status.Machine, snaps *snapshot.Store, db *store.DB, b *bus.Bus, logger *zap.Logger) *outbox.Synchronizer {
	return outbox.NewSynchronizer(q, client, m, b, logger.Named("sync"), outbox.Options{
		MaxRetries:       cfg.Sync.MaxRetries,
		MinFlushInterval: cfg.Sync.MinFlushInterval.Duration,
		Settings:         snaps,
		Runs:             db,
	})
}

func provideManager(cfg *config.Config, db *store.DB, snaps *snapshot.Store, b *bus.Bus, logger *zap.Logger) (*worker.Manager, error) {
	router, err := worker.NewRouter(cfg.Cache.NetworkFirst, cfg.Cache.CacheFirst)
	if err != nil {
		return nil, err
	}
	return worker.NewManager(cache.NewSQLStorage(db), nil, db, b, logger.Named("worker"), worker.Options{
		Prefix:   cfg.Cache.Prefix,
		Version:  cfg.Cache.Version,
		Origin:   cfg.Gateway.Origin,
		Precache: cfg.Cache.Precache,
		Router:   router,
		ShouldStore: func(req *http.Request) bool {
			return !worker.IsMapTile(req) || snaps.Settings().CacheMaps
		},
	})
}

func provideLifecycle(cfg *config.Config, m *worker.Manager, b *bus.Bus, logger *zap.Logger) *worker.Lifecycle {
	return worker.NewLifecycle(m, cfg.Cache.SkipWaiting, cfg.Cache.InstallRetry.Duration, b, logger.Named("lifecycle"))
}

func provideSyncService(q *queue.Queue, s *outbox.Synchronizer, m *status.Machine, mon *connectivity.Monitor, snaps *snapshot.Store, db *store.DB, b *bus.Bus, logger *zap.Logger) *api.SyncService {
	return api.NewSyncService(q, s, m, mon, snaps, db, b, logger.Named("api"))
}

func provideCacheService(l *worker.Lifecycle, gw *Gateway) *api.CacheService {
	return api.NewCacheService(l, gw.Addr())
}

func registerLifecycle(lc fx.Lifecycle, srv *Server, gw *Gateway, lk *lock.Lock, db *store.DB, syncer *outbox.Synchronizer, monitor *connectivity.Monitor, wl *worker.Lifecycle, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			// The synchronizer subscribes to net.* before the monitor publishes.
			syncer.Start(context.Background())
			monitor.Start(context.Background())
			wl.Start(context.Background())

			go func() {
				if err := srv.Start(); err != nil {
					logger.Error("gRPC server error", zap.Error(err))
				}
			}()
			go func() {
				if err := gw.Start(); err != nil {
					logger.Error("gateway error", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			gw.Stop(ctx)
			monitor.Stop()
			syncer.Stop()
			wl.Stop()
			srv.Stop(ctx)
			if err := db.Close(); err != nil {
				logger.Warn("error closing store", zap.Error(err))
			}
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("daemon stopped")
			_ = logger.Sync()
			return nil
		},
	})
}
