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
// ミドルウェアやサービス層から利用する。
type MetricsCollector interface {
	RecordHTTPRequest(statusCode int, duration time.Duration)
	RecordLoginSuccess()
	RecordLoginFailure()
	RecordTokenValidationFailure(kind string)
	RecordTokenRefresh()
	RecordRotationConflict()
	RecordSessionsCleaned(count int64)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpRequests     *prometheus.CounterVec
	httpDuration     prometheus.Histogram
	loginSuccess     prometheus.Counter
	loginFail        prometheus.Counter
	tokenValidFail   *prometheus.CounterVec
	tokenRefresh     prometheus.Counter
	rotationConflict prometheus.Counter
	sessionsCleaned  prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "listigo_http_requests_total",
			Help: "HTTPステータスコード別のリクエスト数",
		}, []string{"status_code"}),
		httpDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "listigo_http_request_duration_seconds",
			Help:    "HTTPリクエスト処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		loginSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "listigo_login_success_total",
			Help: "ログイン成功の合計数",
		}),
		loginFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "listigo_login_fail_total",
			Help: "ログイン失敗の合計数",
		}),
		tokenValidFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "listigo_token_validation_fail_total",
			Help: "トークン検証失敗の種別ごとの合計数",
		}, []string{"kind"}),
		tokenRefresh: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "listigo_token_refresh_total",
			Help: "トークンリフレッシュ成功の合計数",
		}),
		rotationConflict: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "listigo_rotation_conflict_total",
			Help: "リフレッシュトークンのローテーション競合の合計数",
		}),
		sessionsCleaned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "listigo_sessions_cleaned_total",
			Help: "クリーンアップで削除した期限切れセッションの合計数",
		}),
	}

	reg.MustRegister(
		c.httpRequests,
		c.httpDuration,
		c.loginSuccess,
		c.loginFail,
		c.tokenValidFail,
		c.tokenRefresh,
		c.rotationConflict,
		c.sessionsCleaned,
	)

	return c
}

// RecordHTTPRequest はHTTPリクエストのステータスと処理時間を記録する。
func (c *Collector) RecordHTTPRequest(statusCode int, duration time.Duration) {
	c.httpRequests.WithLabelValues(strconv.Itoa(statusCode)).Inc()
	c.httpDuration.Observe(duration.Seconds())
}

// RecordLoginSuccess はログイン成功を記録する。
func (c *Collector) RecordLoginSuccess() {
	c.loginSuccess.Inc()
}

// RecordLoginFailure はログイン失敗を記録する。
func (c *Collector) RecordLoginFailure() {
	c.loginFail.Inc()
}

// RecordTokenValidationFailure はトークン検証失敗を種別（expired/invalid）付きで記録する。
func (c *Collector) RecordTokenValidationFailure(kind string) {
	c.tokenValidFail.WithLabelValues(kind).Inc()
}

// RecordTokenRefresh はリフレッシュ成功を記録する。
func (c *Collector) RecordTokenRefresh() {
	c.tokenRefresh.Inc()
}

// RecordRotationConflict はローテーション競合を記録する。
func (c *Collector) RecordRotationConflict() {
	c.rotationConflict.Inc()
}

// RecordSessionsCleaned はクリーンアップで削除したセッション数を記録する。
func (c *Collector) RecordSessionsCleaned(count int64) {
	c.sessionsCleaned.Add(float64(count))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// compile-time interface check
var _ MetricsCollector = (*Collector)(nil)
