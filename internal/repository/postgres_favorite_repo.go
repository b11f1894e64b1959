package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/meimei/internal/model"
)

// PostgresFavoriteRepo はPostgreSQLを使用したお気に入りリポジトリ。
type PostgresFavoriteRepo struct {
	db *sql.DB
}

// NewPostgresFavoriteRepo はPostgresFavoriteRepoを生成する。
func NewPostgresFavoriteRepo(db *sql.DB) *PostgresFavoriteRepo {
	return &PostgresFavoriteRepo{db: db}
}

// ListNamesByUser はユーザーのお気に入りの名前を登録順で返す。
func (r *PostgresFavoriteRepo) ListNamesByUser(ctx context.Context, userID string) ([]model.Name, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT n.id, n.name, n.gender, n.origin, n.meaning, n.popularity_score, n.style, n.created_at
		 FROM favorites f
		 JOIN names n ON n.id = f.name_id
		 WHERE f.user_id = $1
		 ORDER BY f.created_at, f.name_id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorite names: %w", err)
	}
	defer rows.Close()

	return scanNames(rows)
}

// ListNameIDsByUser はユーザーのお気に入り名前IDを登録順で返す。
func (r *PostgresFavoriteRepo) ListNameIDsByUser(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT name_id FROM favorites
		 WHERE user_id = $1
		 ORDER BY created_at, name_id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorite name IDs: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan favorite row: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate favorite rows: %w", err)
	}
	return ids, nil
}

// Add はお気に入りを追加する。登録済みの場合は何もしない（冪等）。
func (r *PostgresFavoriteRepo) Add(ctx context.Context, userID, nameID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO favorites (user_id, name_id, created_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_id, name_id) DO NOTHING`,
		userID, nameID, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to add favorite: %w", err)
	}
	return nil
}

// Remove はお気に入りを削除する。未登録でもエラーにしない（冪等）。
func (r *PostgresFavoriteRepo) Remove(ctx context.Context, userID, nameID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM favorites WHERE user_id = $1 AND name_id = $2`,
		userID, nameID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove favorite: %w", err)
	}
	return nil
}

// compile-time interface check
var _ FavoriteRepository = (*PostgresFavoriteRepo)(nil)
