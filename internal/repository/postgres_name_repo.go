package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/meimei/internal/model"
)

// PostgresNameRepo はPostgreSQLを使用した名前カタログリポジトリ。
type PostgresNameRepo struct {
	db *sql.DB
}

// NewPostgresNameRepo はPostgresNameRepoを生成する。
func NewPostgresNameRepo(db *sql.DB) *PostgresNameRepo {
	return &PostgresNameRepo{db: db}
}

// FindByID は指定IDの名前を取得する。見つからない場合はnilを返す。
func (r *PostgresNameRepo) FindByID(ctx context.Context, id string) (*model.Name, error) {
	name := &model.Name{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, gender, origin, meaning, popularity_score, style, created_at
		 FROM names WHERE id = $1`,
		id,
	).Scan(&name.ID, &name.Name, &name.Gender, &name.Origin, &name.Meaning,
		&name.PopularityScore, &name.Style, &name.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find name by ID: %w", err)
	}

	return name, nil
}

// ListRandomByFilter はフィルタ条件に一致する名前をランダム順で最大limit件返す。
// genderが空の場合は全性別、指定時はunisexも併せて対象にする。
// styleが空の場合は全スタイルが対象になる。
func (r *PostgresNameRepo) ListRandomByFilter(ctx context.Context, gender model.Gender, style model.Style, limit int) ([]model.Name, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, gender, origin, meaning, popularity_score, style, created_at
		 FROM names
		 WHERE ($1 = '' OR gender = $1 OR gender = 'unisex')
		   AND ($2 = '' OR style = $2)
		 ORDER BY random()
		 LIMIT $3`,
		string(gender), string(style), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list names by filter: %w", err)
	}
	defer rows.Close()

	return scanNames(rows)
}

// ListByIDs は指定IDの名前をidsの順序を保って返す。
// 存在しないIDは結果から除外される。
func (r *PostgresNameRepo) ListByIDs(ctx context.Context, ids []string) ([]model.Name, error) {
	if len(ids) == 0 {
		return []model.Name{}, nil
	}

	// unnest WITH ORDINALITYで入力順を保持する
	rows, err := r.db.QueryContext(ctx,
		`SELECT n.id, n.name, n.gender, n.origin, n.meaning, n.popularity_score, n.style, n.created_at
		 FROM names n
		 JOIN unnest($1::text[]) WITH ORDINALITY AS t(id, ord) ON n.id = t.id
		 ORDER BY t.ord`,
		pq.Array(ids),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list names by IDs: %w", err)
	}
	defer rows.Close()

	return scanNames(rows)
}

// scanNames は結果セットからNameのスライスを構築する。
func scanNames(rows *sql.Rows) ([]model.Name, error) {
	names := []model.Name{}
	for rows.Next() {
		var name model.Name
		if err := rows.Scan(&name.ID, &name.Name, &name.Gender, &name.Origin, &name.Meaning,
			&name.PopularityScore, &name.Style, &name.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan name row: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate name rows: %w", err)
	}
	return names, nil
}

// compile-time interface check
var _ NameRepository = (*PostgresNameRepo)(nil)
