// Миграции схемы: SQL-файлы встроены в бинарник и применяются golang-migrate
// (источник iofs, драйвер pgx/v5). Используются сервером при старте и cmd/migrate.
package migrations

import (
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed sql/*.sql
var files embed.FS

// Runner применяет встроенные миграции к базе по DSN.
type Runner struct {
	m *migrate.Migrate
}

// NewRunner открывает источник и подключение к базе.
func NewRunner(dsn string) (*Runner, error) {
	src, err := iofs.New(files, "sql")
	if err != nil {
		return nil, fmt.Errorf("migrations source: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, PgxURL(dsn))
	if err != nil {
		return nil, fmt.Errorf("migrate init: %w", err)
	}
	return &Runner{m: m}, nil
}

// Up применяет все миграции или steps штук, если steps > 0.
func (r *Runner) Up(steps int) error {
	var err error
	if steps > 0 {
		err = r.m.Steps(steps)
	} else {
		err = r.m.Up()
	}
	return ignoreNoChange(err)
}

// Down откатывает все миграции или steps штук, если steps > 0.
func (r *Runner) Down(steps int) error {
	var err error
	if steps > 0 {
		err = r.m.Steps(-steps)
	} else {
		err = r.m.Down()
	}
	return ignoreNoChange(err)
}

// Version — текущая версия схемы.
func (r *Runner) Version() (uint, bool, error) {
	v, dirty, err := r.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return v, dirty, err
}

func (r *Runner) Close() error {
	srcErr, dbErr := r.m.Close()
	return errors.Join(srcErr, dbErr)
}

func ignoreNoChange(err error) error {
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}

// PgxURL переводит postgres:// DSN в схему pgx5://, под которой регистрируется драйвер golang-migrate.
func PgxURL(dsn string) string {
	for _, p := range []string{"postgres://", "postgresql://", "pgx://"} {
		if strings.HasPrefix(dsn, p) {
			return "pgx5://" + strings.TrimPrefix(dsn, p)
		}
	}
	return dsn
}
