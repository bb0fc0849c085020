package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pribylovaa/authcore/internal/config"
	"github.com/pribylovaa/authcore/internal/hasher"
	"github.com/pribylovaa/authcore/internal/janitor"
	"github.com/pribylovaa/authcore/internal/pkg/log"
	"github.com/pribylovaa/authcore/internal/service"
	"github.com/pribylovaa/authcore/internal/storage"
	"github.com/pribylovaa/authcore/internal/storage/postgres"
	redisstore "github.com/pribylovaa/authcore/internal/storage/redis"
	"github.com/pribylovaa/authcore/internal/token"
	authhttp "github.com/pribylovaa/authcore/internal/transport/http"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.Parse()

	cfg := config.MustLoad(configPath)

	lg := log.New(cfg.Env, os.Stdout)
	slog.SetDefault(lg)
	lg.Info("starting auth-core", slog.String("env", cfg.Env))

	// Корневой контекст по сигналам.
	rootCtx, rootCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer rootCancel()
	rootCtx = log.Into(rootCtx, lg)

	// Подключение к БД c таймаутом.
	dbCtx, dbCancel := context.WithTimeout(rootCtx, 10*time.Second)
	pg, err := postgres.New(dbCtx, cfg.DB.DatabaseURL)
	dbCancel()
	if err != nil {
		lg.Error("postgres_connect_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}
	defer pg.Close()
	lg.Info("postgres_connected")

	if !cfg.DB.SkipMigrations {
		if err := postgres.Migrate(rootCtx, pg.Pool()); err != nil {
			lg.Error("migrations_failed", slog.String("err", err.Error()))
			os.Exit(1)
		}
		lg.Info("migrations_applied")
	}

	revocations, closeRevocations, err := openRevocations(rootCtx, cfg, pg)
	if err != nil {
		lg.Error("revocation_store_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}
	defer closeRevocations()
	lg.Info("revocation_store_ready", slog.String("backend", cfg.Revocation.Backend))

	h, err := hasher.New(hasher.Config{Cost: cfg.Hasher.Cost, Workers: cfg.Hasher.Workers})
	if err != nil {
		lg.Error("hasher_init_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}

	codec, err := token.New(cfg.Auth, revocations)
	if err != nil {
		lg.Error("token_codec_init_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}

	svc := service.New(pg, h, codec)
	lg.Info("service_initialized")

	// Фоновая очистка просроченных отзывов; Redis удаляет их сам по TTL.
	var janitorDone <-chan struct{}
	if cfg.Revocation.Backend == config.RevocationBackendPostgres {
		janitorDone = janitor.New(revocations, cfg.Revocation.PurgeInterval).Start(rootCtx)
	}

	var ready int32 // 0 — not ready; 1 — ready

	mux := chi.NewRouter()
	mux.Get("/livez", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if atomic.LoadInt32(&ready) == 1 {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
			return
		}

		http.Error(w, "not ready", http.StatusServiceUnavailable)
	})

	mux.Handle("/metrics", promhttp.Handler())

	mux.Mount("/", authhttp.NewRouter(svc, authhttp.Options{
		Logger:  lg,
		Timeout: cfg.Timeouts.Request,
	}))

	httpAddr := cfg.HTTP.Addr()
	httpSrv := &http.Server{
		Addr:              httpAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ln, err := net.Listen("tcp", httpAddr)
	if err != nil {
		lg.Error("http_listen_failed", slog.String("addr", httpAddr), slog.String("err", err.Error()))
		os.Exit(1)
	}

	lg.Info("http_listen_start", slog.String("addr", httpAddr))

	serveErrCh := make(chan error, 1)
	go func() {
		if err := httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErrCh <- err
		}
		close(serveErrCh)
	}()

	atomic.StoreInt32(&ready, 1)
	lg.Info("service_ready")

	// Ожидание сигнала завершения или фатальной ошибки сервера.
	select {
	case <-rootCtx.Done():
		lg.Info("shutdown_requested")
	case err := <-serveErrCh:
		if err != nil {
			lg.Error("http_serve_failed", slog.String("err", err.Error()))
		}
	}

	atomic.StoreInt32(&ready, 0)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		lg.Warn("http_shutdown_incomplete", slog.String("err", err.Error()))
	} else {
		lg.Info("http_stopped")
	}

	rootCancel()
	if janitorDone != nil {
		<-janitorDone
	}

	lg.Info("service_stopped")
}

// openRevocations выбирает хранилище отзывов по конфигурации.
// Возвращаемая функция освобождает ресурсы хранилища.
func openRevocations(ctx context.Context, cfg *config.Config, pg *postgres.Storage) (storage.RevocationStorage, func(), error) {
	switch cfg.Revocation.Backend {
	case config.RevocationBackendRedis:
		rctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		rs, err := redisstore.New(rctx, cfg.Redis.RedisURL, cfg.Redis.Prefix)
		if err != nil {
			return nil, nil, err
		}

		return rs, func() { _ = rs.Close() }, nil
	case config.RevocationBackendPostgres:
		return pg, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported revocation backend %q", cfg.Revocation.Backend)
	}
}
