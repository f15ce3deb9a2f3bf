package favorites

import (
	"context"
	"fmt"
	"time"

	"github.com/circleup/circleup/internal/client/models"
	"github.com/circleup/circleup/internal/dbx"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Add(ctx context.Context, f models.FavoritePost) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO favorite_posts (id, userId, title, body, createdAt) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET userId = excluded.userId,
			title = excluded.title,
			body = excluded.body,
			createdAt = excluded.createdAt
	`, f.ID, f.UserID, f.Title, f.Body, f.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to add favorite %d: %w", f.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) Remove(ctx context.Context, id int) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM favorite_posts WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to remove favorite %d: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) IsFavorite(ctx context.Context, id int) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM favorite_posts WHERE id = ?)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check favorite %d: %w", id, err)
	}
	return exists, nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]models.FavoritePost, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, userId, title, body, createdAt FROM favorite_posts ORDER BY createdAt DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	defer rows.Close()

	result := []models.FavoritePost{}
	for rows.Next() {
		var (
			f         models.FavoritePost
			createdAt int64
		)
		if err := rows.Scan(&f.ID, &f.UserID, &f.Title, &f.Body, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan favorite: %w", err)
		}
		f.CreatedAt = time.UnixMilli(createdAt)
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) IDs(ctx context.Context) (map[int]struct{}, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM favorite_posts`)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorite ids: %w", err)
	}
	defer rows.Close()

	ids := make(map[int]struct{})
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM favorite_posts`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count favorites: %w", err)
	}
	return n, nil
}
