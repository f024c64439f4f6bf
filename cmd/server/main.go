package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"
	"github.com/tarantool/go-tarantool/v2"

	"github.com/vncsmyrnk/kwickslot/internal/adapters/handler/http"
	"github.com/vncsmyrnk/kwickslot/internal/adapters/repository/memory"
	"github.com/vncsmyrnk/kwickslot/internal/adapters/repository/postgres"
	redisrepo "github.com/vncsmyrnk/kwickslot/internal/adapters/repository/redis"
	ttrepo "github.com/vncsmyrnk/kwickslot/internal/adapters/repository/tarantool"
	"github.com/vncsmyrnk/kwickslot/internal/config"
	"github.com/vncsmyrnk/kwickslot/internal/core/ports"
	"github.com/vncsmyrnk/kwickslot/internal/core/services"
)

const (
	ttReconnect     = 3 * time.Second
	ttMaxReconnects = 5
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stores, err := openStores(ctx, cfg)
	if err != nil {
		slog.Error("failed to open stores", "error", err)
		os.Exit(1)
	}
	defer stores.Close()

	pollService := services.NewPollService(stores.polls)
	responseService := services.NewResponseService(stores.polls)
	commentService := services.NewCommentService(stores.polls, stores.comments)

	pollHandler := http.NewPollHandler(pollService)
	handler := http.NewHandler(
		pollHandler,
		http.NewResponseHandler(responseService, pollHandler),
		http.NewCommentHandler(commentService),
		cfg.AllowedOrigins,
	)
	server := &stdhttp.Server{
		Addr:              fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("server listening", "addr", server.Addr, "store", cfg.StoreBackend, "comments", cfg.CommentBackend)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("gracefully shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown incomplete", "error", err)
	}
}

type stores struct {
	polls    ports.PollRepository
	comments ports.CommentRepository
	closers  []io.Closer
}

func (s *stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil {
			slog.Warn("failed to close store", "error", err)
		}
	}
}

func openStores(ctx context.Context, cfg config.Config) (*stores, error) {
	s := &stores{}

	var db *sql.DB
	if cfg.UsesPostgres() {
		var err error
		if db, err = sql.Open("postgres", cfg.Postgres.ConnString()); err != nil {
			return nil, err
		}
		s.closers = append(s.closers, db)
		if err := db.PingContext(ctx); err != nil {
			s.Close()
			return nil, fmt.Errorf("postgres unreachable: %w", err)
		}
	}

	switch cfg.StoreBackend {
	case config.BackendPostgres:
		s.polls = postgres.NewPollRepository(db)
	case config.BackendTarantool:
		conn, err := tarantool.Connect(ctx, tarantool.NetDialer{
			Address:  cfg.Tarantool.Address,
			User:     cfg.Tarantool.User,
			Password: cfg.Tarantool.Password,
		}, tarantool.Opts{
			Timeout:       time.Second,
			Reconnect:     ttReconnect,
			MaxReconnects: ttMaxReconnects,
		})
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("tarantool unreachable: %w", err)
		}
		s.closers = append(s.closers, conn)
		s.polls = ttrepo.NewPollRepository(conn)
	case config.BackendMemory:
		s.polls = memory.NewPollRepository()
	}

	switch cfg.CommentBackend {
	case config.BackendPostgres:
		repo := postgres.NewCommentRepository(db, cfg.Postgres.ConnString())
		go func() {
			if err := repo.Listen(ctx); err != nil {
				slog.Error("comment listener stopped", "error", err)
			}
		}()
		s.comments = repo
	case config.BackendRedis:
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		client := redis.NewClient(opts)
		s.closers = append(s.closers, client)
		if err := client.Ping(ctx).Err(); err != nil {
			s.Close()
			return nil, fmt.Errorf("redis unreachable: %w", err)
		}
		s.comments = redisrepo.NewCommentRepository(client)
	case config.BackendMemory:
		repo := memory.NewCommentRepository()
		s.closers = append(s.closers, repo)
		s.comments = repo
	}

	return s, nil
}
