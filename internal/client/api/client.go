// Package api は名前ジェネレーターAPIサーバーのHTTPクライアントを提供する。
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/meimei/internal/model"
)

var (
	// ErrUnauthorized は認証エラー（401/403）を表す。
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound は対象リソースが存在しないこと（404）を表す。
	ErrNotFound = errors.New("not found")
)

// TokenSource はリクエストに付与するBearerトークンの供給元。
// セッションがない場合は第2戻り値がfalseになる。
type TokenSource interface {
	Token() (string, bool)
}

// Client は名前ジェネレーターAPIのHTTPクライアント。
// 全エンドポイントへのリクエストを1つのクライアントで提供し、
// TokenSourceが設定されている場合は一律にBearerトークンを付与する。
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	tokens     TokenSource // nilの場合はトークンを付与しない
}

// NewClient はClientの新しいインスタンスを生成する。
// httpClientがnilの場合はタイムアウト付きのデフォルトクライアントを使用する。
func NewClient(baseURL string, httpClient *http.Client, logger *slog.Logger, tokens TokenSource) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
		tokens:     tokens,
	}
}

// UserProfile はAPIが返すユーザー情報。
type UserProfile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// credentialsRequest は登録・ログイン共通のリクエストボディ。
type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginResult はログイン成功時のレスポンス。
type loginResult struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	User        UserProfile `json:"user"`
}

// shareResult は共有スナップショット発行のレスポンス。
type shareResult struct {
	ShareToken string `json:"share_token"`
	ShareURL   string `json:"share_url"`
}

// sharedListResult は共有リスト閲覧のレスポンス。
type sharedListResult struct {
	Names []model.Name `json:"names"`
}

// Register は新規ユーザーを登録する。
func (c *Client) Register(ctx context.Context, email, password string) (*UserProfile, error) {
	var profile UserProfile
	err := c.doJSON(ctx, http.MethodPost, "/api/auth/register",
		credentialsRequest{Email: email, Password: password}, &profile)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// Login は認証を行い、Bearerトークンとユーザー情報を返す。
func (c *Client) Login(ctx context.Context, email, password string) (string, *UserProfile, error) {
	var result loginResult
	err := c.doJSON(ctx, http.MethodPost, "/api/auth/login",
		credentialsRequest{Email: email, Password: password}, &result)
	if err != nil {
		return "", nil, err
	}
	return result.AccessToken, &result.User, nil
}

// Logout はサーバー側のトークンを破棄する。
// トークンが無効でもサーバーは成功を返す。
func (c *Client) Logout(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
}

// GenerateNames はフィルタ条件で名前を生成する。
func (c *Client) GenerateNames(ctx context.Context, filter model.NameFilter) ([]model.Name, error) {
	var names []model.Name
	if err := c.doJSON(ctx, http.MethodPost, "/api/names/generate", filter, &names); err != nil {
		return nil, err
	}
	return names, nil
}

// ListFavorites はお気に入りの名前一覧を登録順で取得する。
func (c *Client) ListFavorites(ctx context.Context) ([]model.Name, error) {
	var names []model.Name
	if err := c.doJSON(ctx, http.MethodGet, "/api/favorites", nil, &names); err != nil {
		return nil, err
	}
	return names, nil
}

// AddFavorite は名前をお気に入りに追加する。登録済みでも成功する（冪等）。
func (c *Client) AddFavorite(ctx context.Context, nameID string) error {
	return c.doJSON(ctx, http.MethodPost, "/api/favorites/add/"+nameID, nil, nil)
}

// RemoveFavorite は名前をお気に入りから削除する。未登録でも成功する（冪等）。
func (c *Client) RemoveFavorite(ctx context.Context, nameID string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/favorites/remove/"+nameID, nil, nil)
}

// ShareFavorites は現在のお気に入りのスナップショットを発行し、共有トークンを返す。
func (c *Client) ShareFavorites(ctx context.Context) (token string, shareURL string, err error) {
	var result shareResult
	if err := c.doJSON(ctx, http.MethodPost, "/api/favorites/share", nil, &result); err != nil {
		return "", "", err
	}
	return result.ShareToken, result.ShareURL, nil
}

// GetShared は共有トークンからスナップショットの名前一覧を取得する。
// トークンが未知の場合はErrNotFoundを返す。
func (c *Client) GetShared(ctx context.Context, shareToken string) ([]model.Name, error) {
	var result sharedListResult
	if err := c.doJSON(ctx, http.MethodGet, "/api/shared/"+shareToken, nil, &result); err != nil {
		return nil, err
	}
	return result.Names, nil
}

// doJSON はJSONリクエストを送信し、レスポンスをoutにデコードする。
// bodyがnilの場合はリクエストボディなし、outがnilの場合はレスポンスを読み捨てる。
// ステータスコードに応じてErrUnauthorized（401/403）、ErrNotFound（404）、
// またはAPIエラーボディを含む汎用エラーを返す。
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	// TokenSourceが設定されていれば一律にBearerトークンを付与する
	if c.tokens != nil {
		if token, ok := c.tokens.Token(); ok {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("request failed",
			slog.String("method", method),
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.errorFromResponse(method, path, resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		// ボディを読み捨ててコネクションを再利用可能にする
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// errorFromResponse はエラーレスポンスをエラー値に変換する。
// APIエラーボディが含まれていればメッセージを保持する。
func (c *Client) errorFromResponse(method, path string, resp *http.Response) error {
	var apiErr struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	_ = json.Unmarshal(data, &apiErr)

	c.logger.Warn("server returned error status",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.String("code", apiErr.Code),
	)

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		if apiErr.Message != "" {
			return fmt.Errorf("%w: %s", ErrUnauthorized, apiErr.Message)
		}
		return ErrUnauthorized
	case http.StatusNotFound:
		if apiErr.Message != "" {
			return fmt.Errorf("%w: %s", ErrNotFound, apiErr.Message)
		}
		return ErrNotFound
	}

	if apiErr.Message != "" {
		return fmt.Errorf("server returned status %d: %s", resp.StatusCode, apiErr.Message)
	}
	return fmt.Errorf("server returned status %d", resp.StatusCode)
}
