package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/meimei/internal/metrics"
	"github.com/hitoshi/meimei/internal/middleware"
)

// HealthChecker はデータベース疎通確認に必要なインターフェース。
// *sql.DBが満たす。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	HealthChecker     HealthChecker
	Authenticator     middleware.TokenAuthenticator
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger
	Metrics           metrics.MetricsCollector

	// サービス
	AuthService     AuthServiceInterface
	NameService     NameServiceInterface
	FavoriteService FavoriteServiceInterface
	ShareService    ShareResolverInterface

	// 共有URL組み立て用のベースURL
	BaseURL string
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Metrics → Logging
//
// お気に入り関連のルートにはBearer認証とユーザー単位のレート制限を追加する。
// 登録・ログインにはIP単位のレート制限を追加する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware(deps.Logger))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewMetricsMiddleware(deps.Metrics))
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))

	authHandler := NewAuthHandler(deps.AuthService)
	nameHandler := NewNameHandler(deps.NameService, deps.Metrics)
	favHandler := NewFavoriteHandler(deps.FavoriteService, deps.Metrics, deps.BaseURL)
	shareHandler := NewShareHandler(deps.ShareService, deps.Metrics)

	// ヘルスチェック
	r.Get("/health", newHealthHandler(deps.HealthChecker))

	// --- 認証不要のルート ---

	r.Route("/api/auth", func(r chi.Router) {
		// 登録・ログインはIP単位のレート制限を適用
		r.With(deps.RateLimiter.LoginMiddleware()).Post("/register", authHandler.Register)
		r.With(deps.RateLimiter.LoginMiddleware()).Post("/login", authHandler.Login)

		// ログアウトは無効トークンでも成功するため認証ミドルウェアの外に置く
		r.Post("/logout", authHandler.Logout)
	})

	// 名前生成（認証不要）
	r.Post("/api/names/generate", nameHandler.Generate)

	// 共有リスト閲覧（認証不要）
	r.Get("/api/shared/{shareToken}", shareHandler.GetShared)

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: BearerAuth → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewBearerAuthMiddleware(deps.Authenticator))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Route("/api/favorites", func(r chi.Router) {
			r.Get("/", favHandler.List)
			r.Post("/add/{nameID}", favHandler.Add)
			r.Delete("/remove/{nameID}", favHandler.Remove)
			r.Post("/share", favHandler.Share)
		})
	})

	return r
}

// newHealthHandler はデータベース疎通を確認するヘルスチェックハンドラーを返す。
func newHealthHandler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if checker != nil {
			if err := checker.PingContext(r.Context()); err != nil {
				slog.Error("health check failed", slog.String("error", err.Error()))
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
