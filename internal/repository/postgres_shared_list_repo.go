package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/meimei/internal/model"
)

// PostgresSharedListRepo はPostgreSQLを使用した共有スナップショットリポジトリ。
type PostgresSharedListRepo struct {
	db *sql.DB
}

// NewPostgresSharedListRepo はPostgresSharedListRepoを生成する。
func NewPostgresSharedListRepo(db *sql.DB) *PostgresSharedListRepo {
	return &PostgresSharedListRepo{db: db}
}

// Create は共有スナップショットを作成する。
func (r *PostgresSharedListRepo) Create(ctx context.Context, list *model.SharedList) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO shared_lists (id, user_id, name_ids, share_token, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		list.ID, list.UserID, pq.Array(list.NameIDs), list.ShareToken, list.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create shared list: %w", err)
	}
	return nil
}

// FindByToken は共有トークンでスナップショットを検索する。見つからない場合はnilを返す。
func (r *PostgresSharedListRepo) FindByToken(ctx context.Context, shareToken string) (*model.SharedList, error) {
	list := &model.SharedList{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, name_ids, share_token, created_at
		 FROM shared_lists WHERE share_token = $1`,
		shareToken,
	).Scan(&list.ID, &list.UserID, pq.Array(&list.NameIDs), &list.ShareToken, &list.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find shared list: %w", err)
	}

	return list, nil
}

// compile-time interface check
var _ SharedListRepository = (*PostgresSharedListRepo)(nil)
