// Package favorites はお気に入りの管理と共有スナップショットの発行・解決を提供する。
package favorites

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/meimei/internal/model"
	"github.com/hitoshi/meimei/internal/repository"
)

// shareTokenBytes は共有トークンの乱数長（バイト）。
const shareTokenBytes = 32

// Service はお気に入りと共有に関するビジネスロジックを提供する。
type Service struct {
	favRepo    repository.FavoriteRepository
	nameRepo   repository.NameRepository
	sharedRepo repository.SharedListRepository
}

// NewService はServiceを生成する。
func NewService(favRepo repository.FavoriteRepository, nameRepo repository.NameRepository, sharedRepo repository.SharedListRepository) *Service {
	return &Service{
		favRepo:    favRepo,
		nameRepo:   nameRepo,
		sharedRepo: sharedRepo,
	}
}

// List はユーザーのお気に入りの名前を登録順で返す。
func (s *Service) List(ctx context.Context, userID string) ([]model.Name, error) {
	names, err := s.favRepo.ListNamesByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	return names, nil
}

// Add は名前をお気に入りに追加する。登録済みの場合は何もしない（冪等）。
// 存在しない名前IDの場合はAPIErrorを返す。
func (s *Service) Add(ctx context.Context, userID, nameID string) error {
	name, err := s.nameRepo.FindByID(ctx, nameID)
	if err != nil {
		return fmt.Errorf("failed to find name: %w", err)
	}
	if name == nil {
		return model.NewNameNotFoundError(nameID)
	}

	if err := s.favRepo.Add(ctx, userID, nameID); err != nil {
		return fmt.Errorf("failed to add favorite: %w", err)
	}
	return nil
}

// Remove は名前をお気に入りから削除する。未登録でもエラーにしない（冪等）。
func (s *Service) Remove(ctx context.Context, userID, nameID string) error {
	if err := s.favRepo.Remove(ctx, userID, nameID); err != nil {
		return fmt.Errorf("failed to remove favorite: %w", err)
	}
	return nil
}

// Share は現在のお気に入りのスナップショットを新しい共有トークンで発行する。
// 呼び出しごとに独立したスナップショットを作成し、既存スナップショットの
// 重複チェックは行わない。作成後のお気に入り変更はスナップショットに影響しない。
func (s *Service) Share(ctx context.Context, userID string) (*model.SharedList, error) {
	nameIDs, err := s.favRepo.ListNameIDsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorite name IDs: %w", err)
	}

	token, err := generateShareToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate share token: %w", err)
	}

	list := &model.SharedList{
		ID:         uuid.New().String(),
		UserID:     userID,
		NameIDs:    nameIDs,
		ShareToken: token,
		CreatedAt:  time.Now(),
	}

	if err := s.sharedRepo.Create(ctx, list); err != nil {
		return nil, fmt.Errorf("failed to create shared list: %w", err)
	}

	slog.Info("shared list created",
		slog.String("user_id", userID),
		slog.Int("name_count", len(nameIDs)),
	)

	return list, nil
}

// ResolveShared は共有トークンからスナップショットの名前一覧を作成時の順序で返す。
// トークンが見つからない場合は(nil, nil)を返す。
func (s *Service) ResolveShared(ctx context.Context, shareToken string) ([]model.Name, error) {
	list, err := s.sharedRepo.FindByToken(ctx, shareToken)
	if err != nil {
		return nil, fmt.Errorf("failed to find shared list: %w", err)
	}
	if list == nil {
		return nil, nil
	}

	names, err := s.nameRepo.ListByIDs(ctx, list.NameIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve shared names: %w", err)
	}
	return names, nil
}

// generateShareToken はURLセーフな共有トークンを生成する。
func generateShareToken() (string, error) {
	b := make([]byte, shareTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
