// Package catalog は名前生成の実行と表示中リストの保持を提供する。
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/hitoshi/meimei/internal/model"
)

// NameGenerator は名前生成APIの呼び出しに必要なインターフェース。
// api.Clientの部分集合として定義する。
type NameGenerator interface {
	GenerateNames(ctx context.Context, filter model.NameFilter) ([]model.Name, error)
}

// NameCatalogClient は名前生成の実行と、表示中の名前リストの保持を行う。
// 生成に失敗した場合は直前のリストを維持する。
type NameCatalogClient struct {
	generator NameGenerator
	logger    *slog.Logger

	mu    sync.RWMutex
	names []model.Name
}

// NewNameCatalogClient はNameCatalogClientを生成する。
func NewNameCatalogClient(generator NameGenerator, logger *slog.Logger) *NameCatalogClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &NameCatalogClient{
		generator: generator,
		logger:    logger,
	}
}

// Generate はフィルタ条件で名前を生成し、表示中リストを置き換える。
// フィルタは送信前にローカルで正規化する（件数クランプ、未定義値の無視）。
// 失敗した場合は直前のリストを維持したままエラーを返す。
func (c *NameCatalogClient) Generate(ctx context.Context, filter model.NameFilter) ([]model.Name, error) {
	normalized := filter.Normalized()

	names, err := c.generator.GenerateNames(ctx, normalized)
	if err != nil {
		c.logger.Warn("name generation failed, keeping previous list",
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to generate names: %w", err)
	}

	c.mu.Lock()
	c.names = names
	c.mu.Unlock()

	return names, nil
}

// Names は表示中の名前リストを返す。
func (c *NameCatalogClient) Names() []model.Name {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]model.Name, len(c.names))
	copy(names, c.names)
	return names
}
