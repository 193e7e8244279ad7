//go:build integration

// Package dbtest подключает интеграционные тесты к базе из POSTGRES_TEST_DSN.
// Схема накатывается миграциями; данные не чистятся, тесты используют свои id.
package dbtest

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/parceltrack/backend/internal/config"
	"github.com/parceltrack/backend/internal/db"
	"github.com/parceltrack/backend/internal/migrations"
)

const envDSN = "POSTGRES_TEST_DSN"

// Open returns a migrated pool or skips the test when no DSN is set.
func Open(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv(envDSN)
	if dsn == "" {
		t.Skip(envDSN + " is not set")
	}

	r, err := migrations.NewRunner(dsn)
	require.NoError(t, err)
	require.NoError(t, r.Up(0))
	require.NoError(t, r.Close())

	pool, err := db.NewPostgres(context.Background(), config.Postgres{
		DSN:             dsn,
		MaxConns:        40,
		MinConns:        1,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: time.Minute,
		ConnectTimeout:  5 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}
