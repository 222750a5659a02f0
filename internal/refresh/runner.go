package refresh

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/skyembed/internal/model"
)

// EntryScanner はステイルエントリの全件取得インターフェース。
type EntryScanner interface {
	Scan(ctx context.Context, olderThan time.Time) ([]*model.FeedCacheEntry, error)
}

// OutcomeFetcher は上流フェッチの並列実行インターフェース。
type OutcomeFetcher interface {
	FetchAll(ctx context.Context, entries []*model.FeedCacheEntry) []FetchOutcome
}

// OutcomeClassifier はフェッチ結果の分類インターフェース。
type OutcomeClassifier interface {
	Classify(entries []*model.FeedCacheEntry, outcomes []FetchOutcome) RefreshBatch
}

// BatchPersister は分類結果の永続化インターフェース。
type BatchPersister interface {
	PersistUpdates(ctx context.Context, candidates []UpdateCandidate) bool
	PersistDeletes(ctx context.Context, subjectIDs []string) bool
}

// Runner は更新サイクル全体を統括する。
// スキャン、フェッチ、分類、永続化の順に各コンポーネントを呼び出す。
type Runner struct {
	scanner    EntryScanner
	fetcher    OutcomeFetcher
	classifier OutcomeClassifier
	persister  BatchPersister
	logger     *slog.Logger
	metrics    MetricsRecorder
	staleAfter time.Duration
	now        func() time.Time
}

// NewRunner はRunnerの新しいインスタンスを生成する。
func NewRunner(
	scanner EntryScanner,
	fetcher OutcomeFetcher,
	classifier OutcomeClassifier,
	persister BatchPersister,
	logger *slog.Logger,
	metrics MetricsRecorder,
	staleAfter time.Duration,
) *Runner {
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &Runner{
		scanner:    scanner,
		fetcher:    fetcher,
		classifier: classifier,
		persister:  persister,
		logger:     logger,
		metrics:    metrics,
		staleAfter: staleAfter,
		now:        time.Now,
	}
}

// RunOnce は更新サイクルを1回実行する。
// スキャン失敗のみがエラーとして返る。それ以降の段階の失敗は
// エントリ単位・バッチ単位で分離されるため、サイクル自体は完走する。
func (r *Runner) RunOnce(ctx context.Context) error {
	cycleID := uuid.New().String()
	startedAt := r.now()
	logger := r.logger.With(slog.String("cycle_id", cycleID))

	logger.Info("フィード更新サイクルを開始します")

	// 1. ステイルエントリの全件スキャン
	olderThan := startedAt.Add(-r.staleAfter)
	entries, err := r.scanner.Scan(ctx, olderThan)
	if err != nil {
		logger.Error("ステイルエントリのスキャンに失敗しました",
			slog.String("error", err.Error()),
		)
		return err
	}
	r.metrics.RecordEntriesScanned(len(entries))

	if len(entries) == 0 {
		logger.Info("更新対象のエントリはありません")
		r.metrics.RecordCycleDuration(r.now().Sub(startedAt).Seconds())
		return nil
	}

	// 2. エントリごとの上流フェッチ（並列）
	outcomes := r.fetcher.FetchAll(ctx, entries)

	// 3. フェッチ結果の分類
	batch := r.classifier.Classify(entries, outcomes)
	r.metrics.RecordOutcomes(len(batch.ToUpdate), len(batch.ToDelete), len(batch.Skipped))

	// 4. 永続化。更新と削除は独立して実行し、互いの失敗に影響されない
	updatesOK := r.persister.PersistUpdates(ctx, batch.ToUpdate)
	deletesOK := r.persister.PersistDeletes(ctx, batch.ToDelete)

	logger.Info("フィード更新サイクルが完了しました",
		slog.Int("scanned", len(entries)),
		slog.Int("updated", len(batch.ToUpdate)),
		slog.Int("deleted", len(batch.ToDelete)),
		slog.Int("skipped", len(batch.Skipped)),
		slog.Bool("updates_succeeded", updatesOK),
		slog.Bool("deletes_succeeded", deletesOK),
		slog.Duration("duration", r.now().Sub(startedAt)),
	)
	r.metrics.RecordCycleDuration(r.now().Sub(startedAt).Seconds())

	return nil
}

// Start は指定間隔で更新サイクルを繰り返し実行する。
// 起動直後に1回実行し、以降はtickerに従う。ctxのキャンセルで停止する。
func (r *Runner) Start(ctx context.Context, interval time.Duration) {
	r.logger.Info("フィード更新ワーカーを開始します",
		slog.Duration("interval", interval),
	)

	if err := r.RunOnce(ctx); err != nil {
		r.logger.Error("更新サイクルの実行に失敗しました",
			slog.String("error", err.Error()),
		)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("フィード更新ワーカーを停止します")
			return
		case <-ticker.C:
			if err := r.RunOnce(ctx); err != nil {
				r.logger.Error("更新サイクルの実行に失敗しました",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}
