// Package share は共有トークンからのスナップショット解決を提供する。
package share

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hitoshi/meimei/internal/client/api"
	"github.com/hitoshi/meimei/internal/model"
)

// ErrListNotFound は共有リストが存在しないこと（削除済み・リンクの打ち間違い）を表す。
// 一時的な取得失敗とは区別される。
var ErrListNotFound = errors.New("shared list not found")

// SharedListAPI は共有リスト取得APIの呼び出しに必要なインターフェース。
// api.Clientの部分集合として定義する。
type SharedListAPI interface {
	GetShared(ctx context.Context, shareToken string) ([]model.Name, error)
}

// Resolver は共有トークンをスナップショットの名前一覧に解決する。
// 閲覧専用で副作用はなく、セッションの有無に依存しない。
type Resolver struct {
	api    SharedListAPI
	logger *slog.Logger
}

// NewResolver はResolverを生成する。
func NewResolver(api SharedListAPI, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		api:    api,
		logger: logger,
	}
}

// Resolve は共有トークンから名前一覧を作成時の順序で取得する。
// トークンが未知の場合はErrListNotFound、それ以外の失敗は
// 再試行可能な一時エラーとして返す。
func (r *Resolver) Resolve(ctx context.Context, shareToken string) ([]model.Name, error) {
	names, err := r.api.GetShared(ctx, shareToken)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrListNotFound, shareToken)
		}
		r.logger.Warn("failed to resolve share token",
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to resolve shared list: %w", err)
	}
	return names, nil
}
