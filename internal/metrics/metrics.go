// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector はPrometheusメトリクスを収集する実装。
// refresh.MetricsRecorderインターフェースを満たす。
type Collector struct {
	entriesScanned prometheus.Counter
	feedsUpdated   prometheus.Counter
	feedsDeleted   prometheus.Counter
	feedsSkipped   prometheus.Counter
	renderFail     prometheus.Counter
	publishFail    prometheus.Counter
	batchFail      *prometheus.CounterVec
	cycleDuration  prometheus.Histogram
	httpRequests   *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		entriesScanned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "skyembed_entries_scanned_total",
			Help: "スキャンで検出されたステイルエントリの合計数",
		}),
		feedsUpdated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "skyembed_feeds_updated_total",
			Help: "更新対象に分類されたフィードの合計数",
		}),
		feedsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "skyembed_feeds_deleted_total",
			Help: "削除対象に分類されたフィードの合計数",
		}),
		feedsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "skyembed_feeds_skipped_total",
			Help: "一時的な失敗によりスキップされたフィードの合計数",
		}),
		renderFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "skyembed_render_fail_total",
			Help: "フィードHTMLのレンダリング失敗の合計数",
		}),
		publishFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "skyembed_publish_fail_total",
			Help: "フィードHTMLのCDN保存失敗の合計数",
		}),
		batchFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "skyembed_batch_fail_total",
			Help: "ストアへのバッチ操作失敗の合計数",
		}, []string{"operation"}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "skyembed_refresh_cycle_duration_seconds",
			Help:    "更新サイクルの所要時間（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "skyembed_http_requests_total",
			Help: "HTTPリクエストのステータスコード別合計数",
		}, []string{"status"}),
	}

	reg.MustRegister(
		c.entriesScanned,
		c.feedsUpdated,
		c.feedsDeleted,
		c.feedsSkipped,
		c.renderFail,
		c.publishFail,
		c.batchFail,
		c.cycleDuration,
		c.httpRequests,
	)

	return c
}

// RecordCycleDuration は更新サイクルの所要時間を記録する。
func (c *Collector) RecordCycleDuration(seconds float64) {
	c.cycleDuration.Observe(seconds)
}

// RecordEntriesScanned はスキャンで検出されたエントリ数を記録する。
func (c *Collector) RecordEntriesScanned(count int) {
	c.entriesScanned.Add(float64(count))
}

// RecordOutcomes は分類結果の件数を記録する。
func (c *Collector) RecordOutcomes(updated, deleted, skipped int) {
	c.feedsUpdated.Add(float64(updated))
	c.feedsDeleted.Add(float64(deleted))
	c.feedsSkipped.Add(float64(skipped))
}

// RecordRenderFailure はレンダリング失敗を記録する。
func (c *Collector) RecordRenderFailure() {
	c.renderFail.Inc()
}

// RecordPublishFailure はCDN保存失敗を記録する。
func (c *Collector) RecordPublishFailure() {
	c.publishFail.Inc()
}

// RecordBatchFailure はバッチ操作失敗を操作種別ごとに記録する。
func (c *Collector) RecordBatchFailure(operation string) {
	c.batchFail.WithLabelValues(operation).Inc()
}

// RecordHTTPStatus はHTTPレスポンスのステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpRequests.WithLabelValues(strconv.Itoa(statusCode)).Inc()
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
