// Package auth はパスワード認証とBearerトークン管理を提供する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/meimei/internal/model"
	"github.com/hitoshi/meimei/internal/repository"
)

const (
	// MinPasswordLength はパスワードの最小文字数。
	MinPasswordLength = 6
	// tokenBytes はBearerトークンの乱数長（バイト）。
	tokenBytes = 32
)

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	TokenMaxAge int // トークン有効期間（秒）
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	userRepo  repository.UserRepository
	tokenRepo repository.TokenRepository
	config    ServiceConfig
}

// NewService はServiceを生成する。
func NewService(userRepo repository.UserRepository, tokenRepo repository.TokenRepository, config ServiceConfig) *Service {
	return &Service{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		config:    config,
	}
}

// Register は新規ユーザーを登録する。
// メールアドレスが登録済みの場合はAPIErrorを返す。
// パスワードはbcryptでハッシュ化して保存し、平文は保持しない。
func (s *Service) Register(ctx context.Context, email, password string) (*model.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, model.NewValidationError("メールアドレスが空です")
	}
	if !strings.Contains(email, "@") {
		return nil, model.NewValidationError("メールアドレスの形式が正しくありません")
	}
	if len(password) < MinPasswordLength {
		return nil, model.NewValidationError(fmt.Sprintf("パスワードは%d文字以上で入力してください", MinPasswordLength))
	}

	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	if existing != nil {
		return nil, model.NewEmailTakenError()
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("new user registered",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return user, nil
}

// Login はメールアドレスとパスワードを検証し、Bearerトークンを発行する。
// メールアドレス不明とパスワード不一致は区別せず同一のエラーを返す。
func (s *Service) Login(ctx context.Context, email, password string) (*model.AuthToken, *model.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	if user == nil {
		return nil, nil, model.NewInvalidCredentialsError()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, model.NewInvalidCredentialsError()
	}

	token, err := s.createToken(ctx, user.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create token: %w", err)
	}

	slog.Info("user logged in", slog.String("user_id", user.ID))

	return token, user, nil
}

// Authenticate はBearerトークンを検証し、ユーザーIDを返す。
// 期限切れ・未登録のトークンの場合は空文字列を返す（エラーにはしない）。
func (s *Service) Authenticate(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", nil
	}

	t, err := s.tokenRepo.FindByToken(ctx, token)
	if err != nil {
		return "", fmt.Errorf("failed to find token: %w", err)
	}
	if t == nil {
		return "", nil
	}

	return t.UserID, nil
}

// Logout はトークンを破棄する。未登録のトークンでもエラーにしない。
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	if err := s.tokenRepo.DeleteByToken(ctx, token); err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}

	slog.Info("user logged out")
	return nil
}

// createToken はBearerトークンを生成し永続化する。
func (s *Service) createToken(ctx context.Context, userID string) (*model.AuthToken, error) {
	raw, err := generateToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	token := &model.AuthToken{
		Token:     raw,
		UserID:    userID,
		ExpiresAt: time.Now().Add(time.Duration(s.config.TokenMaxAge) * time.Second),
		CreatedAt: time.Now(),
	}

	if err := s.tokenRepo.Create(ctx, token); err != nil {
		return nil, fmt.Errorf("failed to save token: %w", err)
	}

	return token, nil
}

// generateToken は暗号的に安全な不透明トークンを生成する。
func generateToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
