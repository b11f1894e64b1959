// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ハンドラーやサービス層から利用する。
type MetricsCollector interface {
	RecordGenerateRequest()
	RecordNamesGenerated(count int)
	RecordGenerateLatency(duration time.Duration)
	RecordShareCreated()
	RecordShareResolved(found bool)
	RecordHTTPStatus(statusCode int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	generateRequests prometheus.Counter
	namesGenerated   prometheus.Counter
	generateLatency  prometheus.Histogram
	shareCreated     prometheus.Counter
	shareResolved    *prometheus.CounterVec
	httpStatus       *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		generateRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "meimei_generate_requests_total",
			Help: "名前生成リクエストの合計数",
		}),
		namesGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "meimei_names_generated_total",
			Help: "生成された名前の合計数",
		}),
		generateLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "meimei_generate_latency_seconds",
			Help:    "名前生成のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		shareCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "meimei_share_created_total",
			Help: "作成された共有スナップショットの合計数",
		}),
		shareResolved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "meimei_share_resolved_total",
			Help: "共有トークン解決の合計数（結果別）",
		}, []string{"result"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "meimei_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.generateRequests,
		c.namesGenerated,
		c.generateLatency,
		c.shareCreated,
		c.shareResolved,
		c.httpStatus,
	)

	return c
}

// RecordGenerateRequest は名前生成リクエストを記録する。
func (c *Collector) RecordGenerateRequest() {
	c.generateRequests.Inc()
}

// RecordNamesGenerated は生成された名前数を記録する。
func (c *Collector) RecordNamesGenerated(count int) {
	c.namesGenerated.Add(float64(count))
}

// RecordGenerateLatency は名前生成のレイテンシを記録する。
func (c *Collector) RecordGenerateLatency(duration time.Duration) {
	c.generateLatency.Observe(duration.Seconds())
}

// RecordShareCreated は共有スナップショットの作成を記録する。
func (c *Collector) RecordShareCreated() {
	c.shareCreated.Inc()
}

// RecordShareResolved は共有トークンの解決結果を記録する。
func (c *Collector) RecordShareResolved(found bool) {
	result := "found"
	if !found {
		result = "not_found"
	}
	c.shareResolved.WithLabelValues(result).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
