package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"survey-activation-engine/internal/api"
	"survey-activation-engine/internal/config"
	"survey-activation-engine/internal/engine"
	"survey-activation-engine/internal/listener"
	"survey-activation-engine/internal/monitor"
	"survey-activation-engine/internal/storage"
)

// Server owns every long-lived component of the service.
type Server struct {
	cfg   config.Config
	store storage.Store
	eng   *engine.ActivationEngine
	mon   *monitor.Monitor
	http  *http.Server
}

// New opens the configured store and builds the first snapshot.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	eng := engine.NewEngine()
	if err := eng.BuildSnapshot(ctx, store); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("initial snapshot build: %w", err)
	}

	mon := monitor.New(cfg.Monitor.Capacity)
	if cfg.Monitor.AutoStart {
		mon.Start()
	}

	return newServer(cfg, store, eng, mon), nil
}

func newServer(cfg config.Config, store storage.Store, eng *engine.ActivationEngine, mon *monitor.Monitor) *Server {
	r := api.Router(api.NewSurveyHandler(eng, store), api.NewMonitorHandler(mon))
	return &Server{
		cfg:   cfg,
		store: store,
		eng:   eng,
		mon:   mon,
		http: &http.Server{
			Addr:         cfg.Server.Addr,
			Handler:      r,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 3 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

func openStore(ctx context.Context, cfg config.Config) (storage.Store, error) {
	switch cfg.Storage.Driver {
	case "memory":
		return storage.NewMemoryStore(), nil
	case "redis":
		rdb, err := storage.DialRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, err
		}
		log.Info().Str("addr", cfg.Redis.Addr).Msg("redis store ready")
		return storage.NewRedisStore(rdb, cfg.Storage.KeyPrefix, cfg.Storage.ResetPrefixes), nil
	case "postgres":
		pg, err := storage.NewPostgres(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if err := pg.Migrate(); err != nil {
			_ = pg.Close()
			return nil, err
		}
		log.Info().Str("dsn", storage.DSNRedacted(cfg)).Msg("postgres store ready")
		return pg, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// startBackground launches the refresh loop that suits the store, plus the
// seed file watcher when configured.
func (s *Server) startBackground(ctx context.Context) {
	switch st := s.store.(type) {
	case *storage.PostgresStore:
		go listener.ListenAndRefresh(ctx, st, s.eng, s.cfg.Listener.Channel, s.cfg.Backoff())
	case *storage.RedisStore:
		listener.StartRefresher(ctx, st, s.eng, s.cfg.RefreshInterval())
	}

	if s.cfg.Storage.SeedFile != "" {
		go func() {
			if err := listener.WatchSeedFile(ctx, s.cfg.Storage.SeedFile, s.store, s.eng, nil); err != nil {
				log.Error().Err(err).Msg("seed watcher stopped")
			}
		}()
	}
}

func Run(cfg config.Config) {
	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv, err := New(rootCtx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("init server")
	}
	defer srv.store.Close()

	srv.startBackground(rootCtx)

	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Str("storage", cfg.Storage.Driver).Msg("http server starting")
		if err := srv.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server crashed")
		}
	}()

	waitForSignal()
	log.Info().Msg("shutdown...")

	shCtx, shCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shCancel()
	cancel() // stop background goroutines
	srv.mon.Stop()
	_ = srv.http.Shutdown(shCtx)
}

func waitForSignal() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
}
