// Package favorites はお気に入りの楽観的更新とサーバー状態への再同期を提供する。
package favorites

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/hitoshi/meimei/internal/model"
)

var (
	// ErrNoSession はログインが必要な操作をセッションなしで呼んだことを表す。
	ErrNoSession = errors.New("no active session")
	// ErrEmptyFavorites はお気に入りが空の状態で共有を試みたことを表す。
	ErrEmptyFavorites = errors.New("favorites is empty")
)

// FavoritesAPI はお気に入り関連APIの呼び出しに必要なインターフェース。
// api.Clientの部分集合として定義する。
type FavoritesAPI interface {
	ListFavorites(ctx context.Context) ([]model.Name, error)
	AddFavorite(ctx context.Context, nameID string) error
	RemoveFavorite(ctx context.Context, nameID string) error
	ShareFavorites(ctx context.Context) (token string, shareURL string, err error)
}

// SessionSource は現在のセッション有無の判定に必要なインターフェース。
// session.SessionStoreが満たす。
type SessionSource interface {
	Token() (string, bool)
}

// Coordinator はお気に入りのクライアント側状態を管理する。
// 変更は常に「変更リクエスト → 全件再取得」の二段階で行い、
// ローカル状態は毎回サーバーの結果で丸ごと置き換える。
// 差分を積み上げないため、連打しても最後の再取得結果に収束する。
type Coordinator struct {
	api     FavoritesAPI
	session SessionSource
	logger  *slog.Logger

	mu    sync.RWMutex
	names []model.Name        // 最後の再取得結果（登録順）
	ids   map[string]struct{} // 高速な所属判定用
}

// NewCoordinator はCoordinatorを生成する。
func NewCoordinator(api FavoritesAPI, session SessionSource, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		api:     api,
		session: session,
		logger:  logger,
		ids:     make(map[string]struct{}),
	}
}

// Refresh はサーバーからお気に入り全件を取得し、ローカル状態を置き換える。
// セッションがない場合は何もしない。
func (c *Coordinator) Refresh(ctx context.Context) error {
	if !c.hasSession() {
		return nil
	}

	names, err := c.api.ListFavorites(ctx)
	if err != nil {
		return fmt.Errorf("failed to refresh favorites: %w", err)
	}

	c.replace(names)
	return nil
}

// IsFavorite は指定IDが最後の再取得結果に含まれるかを返す。
func (c *Coordinator) IsFavorite(nameID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.ids[nameID]
	return ok
}

// Toggle はお気に入りの状態を反転する。
// 現在の所属状態に応じて追加または削除をリクエストし、成否にかかわらず
// 必ず全件再取得で状態を再同期する。変更リクエストの失敗はログに残して
// 返すが、再同期を妨げない。セッションがない場合は何もしない。
func (c *Coordinator) Toggle(ctx context.Context, nameID string) error {
	if !c.hasSession() {
		return nil
	}

	var mutationErr error
	if c.IsFavorite(nameID) {
		mutationErr = c.api.RemoveFavorite(ctx, nameID)
	} else {
		mutationErr = c.api.AddFavorite(ctx, nameID)
	}

	if mutationErr != nil {
		c.logger.Warn("favorite mutation failed, reconciling with server",
			slog.String("name_id", nameID),
			slog.String("error", mutationErr.Error()),
		)
	}

	// 変更の成否によらずサーバー状態へ再同期する
	refreshErr := c.Refresh(ctx)

	return errors.Join(mutationErr, refreshErr)
}

// CreateShareLink は現在のお気に入りの共有トークンを発行する。
// セッションがない場合はErrNoSession、お気に入りが空の場合は
// ErrEmptyFavoritesを返す。呼ぶたびに新しいトークンを発行する。
func (c *Coordinator) CreateShareLink(ctx context.Context) (string, error) {
	if !c.hasSession() {
		return "", ErrNoSession
	}
	if c.Count() == 0 {
		return "", ErrEmptyFavorites
	}

	token, _, err := c.api.ShareFavorites(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create share link: %w", err)
	}
	return token, nil
}

// Favorites は最後の再取得結果の名前一覧を登録順で返す。
func (c *Coordinator) Favorites() []model.Name {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]model.Name, len(c.names))
	copy(names, c.names)
	return names
}

// Count は最後の再取得結果の件数を返す。
func (c *Coordinator) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.names)
}

// Reset はローカル状態をクリアする。ログアウト時に呼ぶ。
func (c *Coordinator) Reset() {
	c.replace(nil)
}

// hasSession は有効なセッションがあるかを返す。
func (c *Coordinator) hasSession() bool {
	_, ok := c.session.Token()
	return ok
}

// replace はローカル状態を丸ごと置き換える。
func (c *Coordinator) replace(names []model.Name) {
	ids := make(map[string]struct{}, len(names))
	for _, n := range names {
		ids[n.ID] = struct{}{}
	}

	c.mu.Lock()
	c.names = names
	c.ids = ids
	c.mu.Unlock()
}
