package client

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/circleup/circleup/internal/client/migrations"
	"github.com/circleup/circleup/internal/client/repositories/cache"
	"github.com/circleup/circleup/internal/client/repositories/favorites"
	"github.com/circleup/circleup/internal/client/repositories/metadata"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

// Repositories bundles the local stores opened on one database.
type Repositories struct {
	DB        *sql.DB
	Cache     *cache.SQLiteRepository
	Favorites *favorites.SQLiteRepository
	Metadata  *metadata.SQLiteRepository
}

func (r *Repositories) Close() error {
	return r.DB.Close()
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// InitDatabase opens the SQLite database at dsn, applies migrations and
// returns the repositories bound to it. The pool is limited to one
// connection so that all writes are serialized.
func InitDatabase(ctx context.Context, dsn string) (*Repositories, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, `PRAGMA busy_timeout = 5000`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Repositories{
		DB:        db,
		Cache:     cache.NewSQLiteRepository(db),
		Favorites: favorites.NewSQLiteRepository(db),
		Metadata:  metadata.NewSQLiteRepository(db),
	}, nil
}
