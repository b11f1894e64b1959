package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/meimei/internal/metrics"
	"github.com/hitoshi/meimei/internal/model"
)

// ShareResolverInterface は共有リスト解決ハンドラーが必要とするサービスのインターフェース。
type ShareResolverInterface interface {
	// ResolveShared はトークンが見つからない場合(nil, nil)を返す。
	ResolveShared(ctx context.Context, shareToken string) ([]model.Name, error)
}

// ShareHandler は共有リスト閲覧のHTTPハンドラー。認証不要。
type ShareHandler struct {
	service   ShareResolverInterface
	collector metrics.MetricsCollector
}

// NewShareHandler はShareHandlerを生成する。
func NewShareHandler(service ShareResolverInterface, collector metrics.MetricsCollector) *ShareHandler {
	return &ShareHandler{
		service:   service,
		collector: collector,
	}
}

// sharedListResponse は共有リスト閲覧のレスポンス。
type sharedListResponse struct {
	Names []model.Name `json:"names"`
}

// GetShared はGET /api/shared/{shareToken}を処理する。
// トークンが未知の場合は404と専用メッセージを返す。
func (h *ShareHandler) GetShared(w http.ResponseWriter, r *http.Request) {
	shareToken := chi.URLParam(r, "shareToken")

	names, err := h.service.ResolveShared(r.Context(), shareToken)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if names == nil {
		h.collector.RecordShareResolved(false)
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewSharedListNotFoundError())
		return
	}

	h.collector.RecordShareResolved(true)
	writeJSON(w, http.StatusOK, sharedListResponse{Names: names})
}
