package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bigbite-orderbot/internal/backend"
	"bigbite-orderbot/internal/config"
	"bigbite-orderbot/internal/conversation"
	"bigbite-orderbot/internal/db"
	"bigbite-orderbot/internal/events"
	"bigbite-orderbot/internal/httpserver"
	"bigbite-orderbot/internal/intent"
	"bigbite-orderbot/internal/logging"
	"bigbite-orderbot/internal/migrate"
	orderrepo "bigbite-orderbot/internal/repository/order"
	"bigbite-orderbot/internal/repository/session"
	"bigbite-orderbot/internal/service/orderbot"
	"bigbite-orderbot/internal/voice"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load(config.PathFromEnv())
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}
	logger := logging.Init(cfg.App.Name, cfg.App.LogFile, cfg.App.LogLevel)

	ctx := context.Background()

	var pool *pgxpool.Pool
	var orders orderrepo.Repository
	if cfg.DB.Enabled {
		pool, err = db.Connect(ctx, cfg.DB.DSN, logging.New("db"))
		if err != nil {
			fatal(logger, "connect to db", err)
		}
		defer pool.Close()
		if err := migrate.Apply(ctx, pool); err != nil {
			fatal(logger, "apply migrations", err)
		}
		orders = orderrepo.NewPostgres(pool, logging.New("order-repo"))
	}

	sessions, closeSessions, err := openSessions(ctx, cfg, logger)
	if err != nil {
		fatal(logger, "open session store", err)
	}
	defer closeSessions()

	publisher, err := events.New(cfg.Events, logging.New("events"))
	if err != nil {
		fatal(logger, "init events publisher", err)
	}
	defer publisher.Close()

	client := backend.New(cfg.Backend.BaseURL, cfg.Backend.Timeout, logging.New("backend"))
	detector := intent.NewDetector(client, client, logging.New("intent"))
	machine := conversation.NewMachine(detector, client, logging.New("conversation"))

	deps := orderbot.Deps{
		Sessions: sessions,
		Machine:  machine,
		Chat:     client,
		Profiles: client,
		Orders:   orders,
		Events:   publisher,
		Logger:   logging.New("orderbot"),
	}
	if cfg.Voice.Enabled {
		voiceLog := logging.New("voice")
		deps.Voice = voice.NewRegistry(
			voice.LogSynthesizer{Logger: voiceLog},
			voice.Options{MinFallback: cfg.Voice.MinFallback, PerRune: cfg.Voice.PerRune},
			voiceLog,
		)
	}
	bot := orderbot.New(deps)

	srv, err := httpserver.New(cfg.App.HTTPAddr, logging.New("http"), pool, httpserver.Deps{
		Bot:  bot,
		Auth: httpserver.Auth{JWTSecret: cfg.Auth.JWTSecret, Issuer: cfg.Auth.Issuer},
		RateLimit: httpserver.RateLimit{
			PerMinute: cfg.RateLimit.PerMinute,
			Burst:     cfg.RateLimit.Burst,
			Tracked:   cfg.RateLimit.Tracked,
		},
		CORSOrigins: cfg.CORS.AllowedOrigins,
	})
	if err != nil {
		fatal(logger, "init server", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting http server", "addr", cfg.App.HTTPAddr, "sessions", cfg.Sessions.Driver, "events", cfg.Events.Driver, "ledger", cfg.DB.Enabled)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Info("shutting down", "signal", sig.String())
	case err := <-serverErr:
		logger.Error("server error", "err", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "err", err)
	} else {
		logger.Info("server stopped")
	}
}

func openSessions(ctx context.Context, cfg config.Config, logger *slog.Logger) (session.Store, func(), error) {
	if cfg.Sessions.Driver != "redis" {
		return session.NewMemory(cfg.Sessions.TTL), func() {}, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, err
	}
	closeFn := func() {
		if err := rdb.Close(); err != nil {
			logger.Warn("close redis", "err", err)
		}
	}
	return session.NewRedis(rdb, cfg.Sessions.TTL, logging.New("sessions")), closeFn, nil
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, "err", err)
	os.Exit(1)
}
