// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/meimei/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成する。
	Create(ctx context.Context, user *model.User) error
}

// TokenRepository はBearerトークンの永続化インターフェース。
type TokenRepository interface {
	// Create はトークンを作成する。
	Create(ctx context.Context, token *model.AuthToken) error

	// FindByToken は指定トークンを取得する。期限切れ・未登録の場合はnilを返す。
	FindByToken(ctx context.Context, token string) (*model.AuthToken, error)

	// DeleteByToken は指定トークンを削除する。未登録でもエラーにしない。
	DeleteByToken(ctx context.Context, token string) error

	// DeleteExpired は期限切れトークンを削除し、削除件数を返す。
	DeleteExpired(ctx context.Context) (int64, error)
}

// NameRepository は名前カタログの永続化インターフェース。
type NameRepository interface {
	// FindByID は指定IDの名前を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Name, error)

	// ListRandomByFilter はフィルタ条件に一致する名前をランダム順で最大limit件返す。
	// genderが空の場合は全性別、指定時はunisexも併せて対象にする。
	// styleが空の場合は全スタイルが対象になる。
	ListRandomByFilter(ctx context.Context, gender model.Gender, style model.Style, limit int) ([]model.Name, error)

	// ListByIDs は指定IDの名前をidsの順序を保って返す。
	// 存在しないIDは結果から除外される。
	ListByIDs(ctx context.Context, ids []string) ([]model.Name, error)
}

// FavoriteRepository はお気に入りデータの永続化インターフェース。
type FavoriteRepository interface {
	// ListNamesByUser はユーザーのお気に入りの名前を登録順で返す。
	ListNamesByUser(ctx context.Context, userID string) ([]model.Name, error)

	// ListNameIDsByUser はユーザーのお気に入り名前IDを登録順で返す。
	ListNameIDsByUser(ctx context.Context, userID string) ([]string, error)

	// Add はお気に入りを追加する。登録済みの場合は何もしない（冪等）。
	Add(ctx context.Context, userID, nameID string) error

	// Remove はお気に入りを削除する。未登録でもエラーにしない（冪等）。
	Remove(ctx context.Context, userID, nameID string) error
}

// SharedListRepository は共有スナップショットの永続化インターフェース。
type SharedListRepository interface {
	// Create は共有スナップショットを作成する。
	Create(ctx context.Context, list *model.SharedList) error

	// FindByToken は共有トークンでスナップショットを検索する。見つからない場合はnilを返す。
	FindByToken(ctx context.Context, shareToken string) (*model.SharedList, error)
}
