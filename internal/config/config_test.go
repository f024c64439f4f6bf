package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envOf(m map[string]string) func(string) string {
	return func(key string) string { return m[key] }
}

func postgresEnv() map[string]string {
	return map[string]string{
		"POSTGRES_HOST":     "db",
		"POSTGRES_USER":     "kwick",
		"POSTGRES_PASSWORD": "secret",
		"POSTGRES_DB":       "kwickslot",
	}
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse(nil, envOf(postgresEnv()))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, BackendPostgres, cfg.StoreBackend)
	assert.Equal(t, BackendPostgres, cfg.CommentBackend)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Empty(t, cfg.AllowedOrigins)
	assert.Equal(t, "postgres://kwick:secret@db:5432/kwickslot?sslmode=disable", cfg.Postgres.ConnString())
}

func TestParse_EnvAndFlags(t *testing.T) {
	env := postgresEnv()
	env["PORT"] = "9000"
	env["ALLOWED_ORIGINS"] = "https://a.example, https://b.example,"
	env["SHUTDOWN_TIMEOUT"] = "5s"
	env["COMMENT_BACKEND"] = BackendRedis
	env["REDIS_URL"] = "redis://cache:6379/0"

	cfg, err := Parse([]string{"-p", "9100"}, envOf(env))
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Port, "flags win over env")
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, BackendRedis, cfg.CommentBackend)
	assert.Equal(t, "redis://cache:6379/0", cfg.RedisURL)
}

func TestParse_Memory(t *testing.T) {
	cfg, err := Parse([]string{"-store", "memory", "-comments", "memory"}, envOf(nil))
	require.NoError(t, err)
	assert.False(t, cfg.UsesPostgres())
}

func TestParse_Tarantool(t *testing.T) {
	env := map[string]string{
		"STORE_BACKEND":   BackendTarantool,
		"COMMENT_BACKEND": BackendRedis,
		"TT_USER":         "guest",
		"TT_PASSWORD":     "pw",
		"REDIS_URL":       "redis://localhost:6379",
	}
	cfg, err := Parse(nil, envOf(env))
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:3301", cfg.Tarantool.Address)
	assert.False(t, cfg.UsesPostgres())
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		env     map[string]string
		wantErr string
	}{
		{"bad port env", nil, map[string]string{"PORT": "eighty"}, "invalid PORT"},
		{"bad timeout env", nil, map[string]string{"SHUTDOWN_TIMEOUT": "soon"}, "invalid SHUTDOWN_TIMEOUT"},
		{"unknown store", []string{"-store", "mongo"}, postgresEnv(), "unknown store backend"},
		{"unknown comments", []string{"-comments", "kafka"}, postgresEnv(), "unknown comment backend"},
		{"missing postgres host", nil, map[string]string{"POSTGRES_USER": "u", "POSTGRES_DB": "d"}, "POSTGRES_HOST required"},
		{"missing redis url", []string{"-comments", "redis"}, postgresEnv(), "REDIS_URL required"},
		{"missing tarantool creds", []string{"-store", "tarantool", "-comments", "memory"}, nil, "TT_USER required"},
		{"memory store with shared comments", []string{"-store", "memory"}, postgresEnv(), "COMMENT_BACKEND=memory"},
		{"unknown flag", []string{"-verbose"}, postgresEnv(), "flag provided but not defined"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.args, envOf(tt.env))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
