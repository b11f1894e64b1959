package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/hitoshi/meimei/internal/metrics"
	"github.com/hitoshi/meimei/internal/model"
)

// NameServiceInterface は名前生成ハンドラーが必要とするサービスのインターフェース。
type NameServiceInterface interface {
	Generate(ctx context.Context, filter model.NameFilter) ([]model.Name, error)
}

// NameHandler は名前生成のHTTPハンドラー。
type NameHandler struct {
	service   NameServiceInterface
	collector metrics.MetricsCollector
}

// NewNameHandler はNameHandlerを生成する。
func NewNameHandler(service NameServiceInterface, collector metrics.MetricsCollector) *NameHandler {
	return &NameHandler{
		service:   service,
		collector: collector,
	}
}

// generateRequest は名前生成のリクエストボディ。
// 全フィールド省略可能。省略時はデフォルト値が適用される。
type generateRequest struct {
	Gender string `json:"gender"`
	Style  string `json:"style"`
	Count  int    `json:"count"`
}

// Generate はPOST /api/names/generateを処理する。
// ボディ省略時はデフォルトのフィルタで生成する。
func (h *NameHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
			return
		}
	}

	h.collector.RecordGenerateRequest()
	start := time.Now()

	names, err := h.service.Generate(r.Context(), model.NameFilter{
		Gender: model.Gender(req.Gender),
		Style:  model.Style(req.Style),
		Count:  req.Count,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.collector.RecordGenerateLatency(time.Since(start))
	h.collector.RecordNamesGenerated(len(names))

	if names == nil {
		names = []model.Name{}
	}
	writeJSON(w, http.StatusOK, names)
}
