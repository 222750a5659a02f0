package refresh

// MetricsRecorder は更新パイプラインのメトリクス収集インターフェース。
// 実装はinternal/metricsのCollectorが提供する。
type MetricsRecorder interface {
	// RecordCycleDuration は1サイクルの所要時間（秒）を記録する。
	RecordCycleDuration(seconds float64)
	// RecordEntriesScanned はスキャンで見つかったステイルエントリ数を記録する。
	RecordEntriesScanned(count int)
	// RecordOutcomes は分類結果（更新・削除・スキップ）の件数を記録する。
	RecordOutcomes(updated, deleted, skipped int)
	// RecordRenderFailure はレンダリング失敗を記録する。
	RecordRenderFailure()
	// RecordPublishFailure はCDN保存失敗を記録する。
	RecordPublishFailure()
	// RecordBatchFailure はストアへのバッチ書き込み失敗を記録する。
	// operationは "put" または "delete"。
	RecordBatchFailure(operation string)
}

// NopMetrics は何も記録しないMetricsRecorder実装。
// テストおよびメトリクスを使用しない構成で使用する。
type NopMetrics struct{}

// RecordCycleDuration は何もしない。
func (NopMetrics) RecordCycleDuration(seconds float64) {}

// RecordEntriesScanned は何もしない。
func (NopMetrics) RecordEntriesScanned(count int) {}

// RecordOutcomes は何もしない。
func (NopMetrics) RecordOutcomes(updated, deleted, skipped int) {}

// RecordRenderFailure は何もしない。
func (NopMetrics) RecordRenderFailure() {}

// RecordPublishFailure は何もしない。
func (NopMetrics) RecordPublishFailure() {}

// RecordBatchFailure は何もしない。
func (NopMetrics) RecordBatchFailure(operation string) {}
