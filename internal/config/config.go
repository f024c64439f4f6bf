// Package config resolves server settings from flags, falling back to
// environment variables (optionally seeded from a .env file).
package config

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendPostgres  = "postgres"
	BackendTarantool = "tarantool"
	BackendRedis     = "redis"
	BackendMemory    = "memory"
)

const (
	defaultPort            = 8080
	defaultShutdownTimeout = 30 * time.Second
	defaultTarantoolAddr   = "127.0.0.1:3301"
)

type Config struct {
	Port            int
	StoreBackend    string
	CommentBackend  string
	Postgres        PostgresConfig
	Tarantool       TarantoolConfig
	RedisURL        string
	AllowedOrigins  []string
	ShutdownTimeout time.Duration
}

type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DB       string
}

type TarantoolConfig struct {
	Address  string
	User     string
	Password string
}

func (c PostgresConfig) ConnString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", c.User, c.Password, c.Host, c.Port, c.DB)
}

// Load reads .env when present and then parses args against the process
// environment.
func Load(args []string) (Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}
	return Parse(args, os.Getenv)
}

// Parse builds a Config from args. Every flag defaults to its environment
// variable, read through getenv.
func Parse(args []string, getenv func(string) string) (Config, error) {
	var cfg Config
	var origins string

	env := func(key, fallback string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return fallback
	}

	port := defaultPort
	if v := getenv("PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, errors.New("invalid PORT env variable")
		}
		port = p
	}

	shutdown := defaultShutdownTimeout
	if v := getenv("SHUTDOWN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, errors.New("invalid SHUTDOWN_TIMEOUT env variable")
		}
		shutdown = d
	}

	fs := flag.NewFlagSet("kwickslot", flag.ContinueOnError)
	fs.IntVar(&cfg.Port, "p", port, "Server port")
	fs.StringVar(&cfg.StoreBackend, "store", env("STORE_BACKEND", BackendPostgres), "Poll store (postgres, tarantool or memory)")
	fs.StringVar(&cfg.CommentBackend, "comments", env("COMMENT_BACKEND", BackendPostgres), "Comment store (postgres, redis or memory)")
	fs.StringVar(&origins, "origins", getenv("ALLOWED_ORIGINS"), "Comma separated CORS origins, empty allows all")
	fs.DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout", shutdown, "Graceful shutdown timeout")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg.Postgres = PostgresConfig{
		Host:     getenv("POSTGRES_HOST"),
		Port:     env("POSTGRES_PORT", "5432"),
		User:     getenv("POSTGRES_USER"),
		Password: getenv("POSTGRES_PASSWORD"),
		DB:       getenv("POSTGRES_DB"),
	}
	cfg.Tarantool = TarantoolConfig{
		Address:  env("TT_ADDRESS", defaultTarantoolAddr),
		User:     getenv("TT_USER"),
		Password: getenv("TT_PASSWORD"),
	}
	cfg.RedisURL = getenv("REDIS_URL")

	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
		}
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("shutdown timeout must be positive")
	}

	switch c.StoreBackend {
	case BackendPostgres, BackendTarantool, BackendMemory:
	default:
		return fmt.Errorf("unknown store backend %q", c.StoreBackend)
	}
	switch c.CommentBackend {
	case BackendPostgres, BackendRedis, BackendMemory:
	default:
		return fmt.Errorf("unknown comment backend %q", c.CommentBackend)
	}

	if c.StoreBackend == BackendMemory && c.CommentBackend != BackendMemory {
		return errors.New("memory poll store needs COMMENT_BACKEND=memory")
	}

	if c.UsesPostgres() {
		if c.Postgres.Host == "" {
			return errors.New("POSTGRES_HOST required")
		}
		if c.Postgres.User == "" {
			return errors.New("POSTGRES_USER required")
		}
		if c.Postgres.DB == "" {
			return errors.New("POSTGRES_DB required")
		}
	}
	if c.StoreBackend == BackendTarantool {
		if c.Tarantool.User == "" {
			return errors.New("TT_USER required")
		}
		if c.Tarantool.Password == "" {
			return errors.New("TT_PASSWORD required")
		}
	}
	if c.CommentBackend == BackendRedis && c.RedisURL == "" {
		return errors.New("REDIS_URL required")
	}
	return nil
}

func (c Config) UsesPostgres() bool {
	return c.StoreBackend == BackendPostgres || c.CommentBackend == BackendPostgres
}
