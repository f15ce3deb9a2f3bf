package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/circleup/circleup/internal/client/models"
	"github.com/circleup/circleup/internal/common"
	"github.com/circleup/circleup/internal/dbx"
)

const selectColumns = `SELECT id, userId, title, body, isFavorite, cachedAt, page FROM cached_posts`

// SQLiteRepository implements Repository on a *sql.DB.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// SavePosts writes all posts in one transaction so a page is either cached
// completely or not at all.
func (r *SQLiteRepository) SavePosts(ctx context.Context, posts []models.Post, page int, cachedAt time.Time) error {
	if len(posts) == 0 {
		return nil
	}

	query := `INSERT INTO cached_posts (id, userId, title, body, isFavorite, cachedAt, page)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET userId = excluded.userId,
				title = excluded.title,
				body = excluded.body,
				isFavorite = excluded.isFavorite,
				cachedAt = excluded.cachedAt,
				page = excluded.page`

	ts := cachedAt.UnixMilli()

	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for _, p := range posts {
			if _, err := tx.ExecContext(ctx, query, p.ID, p.UserID, p.Title, p.Body, p.IsFavorite, ts, page); err != nil {
				return fmt.Errorf("failed to upsert cached post %d: %w", p.ID, err)
			}
		}
		return nil
	})
}

func (r *SQLiteRepository) GetPage(ctx context.Context, limit, offset int) ([]models.CachedPost, error) {
	if offset < 0 {
		offset = 0
	}
	return r.query(ctx, selectColumns+` ORDER BY id ASC LIMIT ? OFFSET ?`, limit, offset)
}

func (r *SQLiteRepository) GetByPage(ctx context.Context, page, limit int) ([]models.CachedPost, error) {
	return r.query(ctx, selectColumns+` WHERE page = ? ORDER BY id ASC LIMIT ?`, page, limit)
}

func (r *SQLiteRepository) HasPage(ctx context.Context, page int) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM cached_posts WHERE page = ?)`, page).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check cached page %d: %w", page, err)
	}
	return exists, nil
}

func (r *SQLiteRepository) GetAll(ctx context.Context) ([]models.CachedPost, error) {
	return r.query(ctx, selectColumns+` ORDER BY id ASC`)
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id int) (*models.CachedPost, error) {
	row := r.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id)

	p, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached post %d: %w", id, err)
	}
	return p, nil
}

func (r *SQLiteRepository) Exists(ctx context.Context, id int) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM cached_posts WHERE id = ?)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check cached post %d: %w", id, err)
	}
	return exists, nil
}

func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cached_posts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count cached posts: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) HasData(ctx context.Context) (bool, error) {
	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM cached_posts LIMIT 1)`).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to probe cache: %w", err)
	}
	return exists, nil
}

// Search filters in Go: SQLite's lower() folds ASCII only, and the online
// path matches with models.Post.Matches.
func (r *SQLiteRepository) Search(ctx context.Context, query string) ([]models.CachedPost, error) {
	rows, err := r.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(rows, func(p models.CachedPost) bool { return !p.Matches(query) }), nil
}

func (r *SQLiteRepository) UpdateFavorite(ctx context.Context, id int, isFavorite bool) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE cached_posts SET isFavorite = ? WHERE id = ?`, isFavorite, id)
	if err != nil {
		return false, fmt.Errorf("failed to update favorite flag for %d: %w", id, err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return ra > 0, nil
}

func (r *SQLiteRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM cached_posts WHERE cachedAt < ?`, cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to purge cache: %w", err)
	}
	return res.RowsAffected()
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM cached_posts`); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) query(ctx context.Context, query string, args ...any) ([]models.CachedPost, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select cached posts: %w", err)
	}
	defer rows.Close()

	result := []models.CachedPost{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPost(s scanner) (*models.CachedPost, error) {
	var (
		p        models.CachedPost
		cachedAt int64
	)
	if err := s.Scan(&p.ID, &p.UserID, &p.Title, &p.Body, &p.IsFavorite, &cachedAt, &p.Page); err != nil {
		return nil, err
	}
	p.CachedAt = time.UnixMilli(cachedAt)
	return &p, nil
}
