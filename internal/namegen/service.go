// Package namegen は名前カタログからの抽選による名前生成を提供する。
package namegen

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/meimei/internal/model"
	"github.com/hitoshi/meimei/internal/repository"
)

// Service は名前生成のビジネスロジックを提供する。
// 外部AIではなくキュレーション済みカタログから抽選する。
type Service struct {
	nameRepo repository.NameRepository
}

// NewService はServiceを生成する。
func NewService(nameRepo repository.NameRepository) *Service {
	return &Service{nameRepo: nameRepo}
}

// Generate はフィルタ条件に一致する名前をランダム順で返す。
// 件数は[1,50]にクランプし、未定義の性別・スタイル値は指定なしとして扱う。
// カタログの候補が要求件数に満たない場合は、あるだけ返す（エラーにはしない）。
func (s *Service) Generate(ctx context.Context, filter model.NameFilter) ([]model.Name, error) {
	normalized := filter.Normalized()

	names, err := s.nameRepo.ListRandomByFilter(ctx, normalized.Gender, normalized.Style, normalized.Count)
	if err != nil {
		return nil, fmt.Errorf("failed to generate names: %w", err)
	}

	slog.Info("names generated",
		slog.String("gender", string(normalized.Gender)),
		slog.String("style", string(normalized.Style)),
		slog.Int("requested", normalized.Count),
		slog.Int("returned", len(names)),
	)

	return names, nil
}
