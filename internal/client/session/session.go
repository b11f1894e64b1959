// Package session はクライアント側のセッション永続化とライフサイクルを提供する。
package session

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/hitoshi/meimei/internal/client/kvstore"
)

const (
	// tokenKey はBearerトークンを保存するキー。
	tokenKey = "auth_token"
	// userDataKey はユーザープロファイル（JSON）を保存するキー。
	userDataKey = "user_data"
)

// Profile はログイン中ユーザーの表示用プロファイル。
type Profile struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session は有効なログイン状態を表す。トークンとプロファイルは常に対で保持する。
type Session struct {
	Token   string
	Profile Profile
}

// SessionStore はセッションの復元・確立・破棄を管理する。
// トークンとプロファイルはキーバリューストアに書き込み通し（write-through）で
// 永続化し、メモリ上の現在セッションと常に一致させる。
type SessionStore struct {
	store  kvstore.Store
	logger *slog.Logger

	mu      sync.RWMutex
	current *Session
}

// NewSessionStore はSessionStoreを生成する。
func NewSessionStore(store kvstore.Store, logger *slog.Logger) *SessionStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionStore{
		store:  store,
		logger: logger,
	}
}

// Restore は永続化されたセッションを復元する。
// トークンとプロファイルの両方が存在しJSONとして解釈できる場合のみ
// セッションを有効にする。欠損・破損はセッションなしとして扱い、
// エラーにはしない。何度呼んでも安全（冪等）。
func (s *SessionStore) Restore() {
	token, tokenOK, err := s.store.Get(tokenKey)
	if err != nil {
		s.logger.Warn("failed to read persisted token", slog.String("error", err.Error()))
		s.clearMemory()
		return
	}

	userData, userOK, err := s.store.Get(userDataKey)
	if err != nil {
		s.logger.Warn("failed to read persisted profile", slog.String("error", err.Error()))
		s.clearMemory()
		return
	}

	// 両方揃っていなければセッションなし
	if !tokenOK || !userOK || token == "" {
		s.clearMemory()
		return
	}

	var profile Profile
	if err := json.Unmarshal([]byte(userData), &profile); err != nil {
		// 破損した永続データはセッションなしとして扱う
		s.logger.Warn("persisted profile is corrupt, treating as no session",
			slog.String("error", err.Error()),
		)
		s.clearMemory()
		return
	}

	s.mu.Lock()
	s.current = &Session{Token: token, Profile: profile}
	s.mu.Unlock()

	s.logger.Info("session restored", slog.String("user_id", profile.ID))
}

// Login はセッションを確立する。
// 先にストアへ両方のキーを書き込み、成功後にメモリへ反映する。
func (s *SessionStore) Login(token string, profile Profile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}

	if err := s.store.Set(tokenKey, token); err != nil {
		return fmt.Errorf("failed to persist token: %w", err)
	}
	if err := s.store.Set(userDataKey, string(data)); err != nil {
		return fmt.Errorf("failed to persist profile: %w", err)
	}

	s.mu.Lock()
	s.current = &Session{Token: token, Profile: profile}
	s.mu.Unlock()

	return nil
}

// Logout はセッションを破棄する。
// 永続化された両方のキーを削除し、メモリをクリアする。
// セッションがない状態で呼んでも安全で、常に成功する。
func (s *SessionStore) Logout() {
	if err := s.store.Delete(tokenKey); err != nil {
		s.logger.Warn("failed to delete persisted token", slog.String("error", err.Error()))
	}
	if err := s.store.Delete(userDataKey); err != nil {
		s.logger.Warn("failed to delete persisted profile", slog.String("error", err.Error()))
	}

	s.clearMemory()
}

// Current は現在のセッションを返す。セッションがない場合は(nil, false)。
func (s *SessionStore) Current() (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil, false
	}
	// 呼び出し元の変更から守るためコピーを返す
	session := *s.current
	return &session, true
}

// Token は現在のセッションのBearerトークンを返す。
// APIクライアントのTokenSourceとして使用する。
func (s *SessionStore) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return "", false
	}
	return s.current.Token, true
}

// clearMemory はメモリ上のセッションをクリアする。
func (s *SessionStore) clearMemory() {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
}
