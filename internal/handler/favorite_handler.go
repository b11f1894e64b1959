package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/meimei/internal/metrics"
	"github.com/hitoshi/meimei/internal/middleware"
	"github.com/hitoshi/meimei/internal/model"
)

// FavoriteServiceInterface はお気に入りハンドラーが必要とするサービスのインターフェース。
type FavoriteServiceInterface interface {
	List(ctx context.Context, userID string) ([]model.Name, error)
	Add(ctx context.Context, userID, nameID string) error
	Remove(ctx context.Context, userID, nameID string) error
	Share(ctx context.Context, userID string) (*model.SharedList, error)
}

// FavoriteHandler はお気に入り関連のHTTPハンドラー。
type FavoriteHandler struct {
	service   FavoriteServiceInterface
	collector metrics.MetricsCollector
	baseURL   string
}

// NewFavoriteHandler はFavoriteHandlerを生成する。
// baseURLは共有URLの組み立てに使用する。
func NewFavoriteHandler(service FavoriteServiceInterface, collector metrics.MetricsCollector, baseURL string) *FavoriteHandler {
	return &FavoriteHandler{
		service:   service,
		collector: collector,
		baseURL:   baseURL,
	}
}

// shareResponse は共有スナップショット発行のレスポンス。
type shareResponse struct {
	ShareToken string `json:"share_token"`
	ShareURL   string `json:"share_url"`
}

// List はGET /api/favoritesを処理する。
func (h *FavoriteHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	names, err := h.service.List(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if names == nil {
		names = []model.Name{}
	}
	writeJSON(w, http.StatusOK, names)
}

// Add はPOST /api/favorites/add/{nameID}を処理する。
// 登録済みの名前を再追加しても成功を返す（冪等）。
func (h *FavoriteHandler) Add(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	nameID := chi.URLParam(r, "nameID")
	if nameID == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("名前IDが指定されていません"))
		return
	}

	if err := h.service.Add(r.Context(), userID, nameID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Remove はDELETE /api/favorites/remove/{nameID}を処理する。
// 未登録の名前を削除しても成功を返す（冪等）。
func (h *FavoriteHandler) Remove(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	nameID := chi.URLParam(r, "nameID")
	if nameID == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("名前IDが指定されていません"))
		return
	}

	if err := h.service.Remove(r.Context(), userID, nameID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Share はPOST /api/favorites/shareを処理する。
// 現在のお気に入りのスナップショットを作成し、共有トークンとURLを返す。
func (h *FavoriteHandler) Share(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	list, err := h.service.Share(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.collector.RecordShareCreated()
	slog.Info("share link issued", slog.String("user_id", userID))

	writeJSON(w, http.StatusCreated, shareResponse{
		ShareToken: list.ShareToken,
		ShareURL:   h.baseURL + "/shared/" + list.ShareToken,
	})
}
