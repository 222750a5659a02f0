package refresh

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hitoshi/skyembed/internal/bsky"
	"github.com/hitoshi/skyembed/internal/model"
)

// defaultBatchSize はストアの最大バッチ書き込み容量。
const defaultBatchSize = 25

// BatchWriter はストアへのバッチ書き込みインターフェース。
type BatchWriter interface {
	BatchPut(ctx context.Context, entries []*model.FeedCacheEntry) error
	BatchDelete(ctx context.Context, subjectIDs []string) error
}

// HTMLRenderer はタイムラインのHTML変換インターフェース。
type HTMLRenderer interface {
	RenderTimeline(timeline *bsky.Timeline) (string, bool)
}

// FeedPublisher はレンダリング済みHTMLの公開インターフェース。
type FeedPublisher interface {
	Save(ctx context.Context, contentHash, html string) (string, error)
}

// Persister は更新・削除をバッチに分割してストアへ書き込む。
// 更新の書き込み前にはレンダリングとCDN公開を行う。
type Persister struct {
	repo      BatchWriter
	renderer  HTMLRenderer
	publisher FeedPublisher
	logger    *slog.Logger
	metrics   MetricsRecorder
	batchSize int
	now       func() time.Time
}

// NewPersister はPersisterの新しいインスタンスを生成する。
// batchSizeが0以下の場合はデフォルト値25を使用する。
func NewPersister(
	repo BatchWriter,
	renderer HTMLRenderer,
	publisher FeedPublisher,
	logger *slog.Logger,
	metrics MetricsRecorder,
	batchSize int,
) *Persister {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &Persister{
		repo:      repo,
		renderer:  renderer,
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
		batchSize: batchSize,
		now:       time.Now,
	}
}

// PersistUpdates は更新候補をレンダリング・公開した上でストアに書き込む。
// レンダリングまたは公開に失敗したエントリはそのサイクルの書き込みから除外され、
// ステイルな時刻のまま残るため次サイクルで自然に再試行される。
// 1件の失敗が他のエントリの処理を妨げることはない。
// バッチ書き込みは並列に発行され、失敗はバッチ単位で分離される。
// 1つでも失敗があれば全体成功フラグは偽になる。
func (p *Persister) PersistUpdates(ctx context.Context, candidates []UpdateCandidate) bool {
	allSucceeded := true

	// レンダリングとCDN公開。成功したエントリだけが書き込み対象になる。
	var toWrite []*model.FeedCacheEntry
	for _, candidate := range candidates {
		html, ok := p.renderer.RenderTimeline(candidate.Timeline)
		if !ok {
			p.logger.Error("フィードHTMLの生成に失敗しました",
				slog.String("subject_id", candidate.Entry.SubjectID),
			)
			p.metrics.RecordRenderFailure()
			allSucceeded = false
			continue
		}

		if _, err := p.publisher.Save(ctx, candidate.Entry.ContentHash, html); err != nil {
			p.logger.Error("フィードHTMLのCDN保存に失敗しました",
				slog.String("subject_id", candidate.Entry.SubjectID),
				slog.String("error", err.Error()),
			)
			p.metrics.RecordPublishFailure()
			allSucceeded = false
			continue
		}

		toWrite = append(toWrite, candidate.Entry)
	}

	// ストアの最大バッチサイズに分割し、並列に書き込む
	var wg sync.WaitGroup
	var mu sync.Mutex

	for _, batch := range chunk(toWrite, p.batchSize) {
		wg.Add(1)
		go func(batch []*model.FeedCacheEntry) {
			defer wg.Done()

			// lastUpdatedはフェッチ時刻ではなく書き込み時点の時刻を刻印する
			writtenAt := p.now().Unix()
			stamped := make([]*model.FeedCacheEntry, len(batch))
			for i, entry := range batch {
				stamped[i] = &model.FeedCacheEntry{
					SubjectID:   entry.SubjectID,
					ContentHash: entry.ContentHash,
					LastUpdated: writtenAt,
				}
			}

			if err := p.repo.BatchPut(ctx, stamped); err != nil {
				p.logger.Error("エントリのバッチ書き込みに失敗しました",
					slog.Int("batch_size", len(batch)),
					slog.String("error", err.Error()),
				)
				p.metrics.RecordBatchFailure("put")
				mu.Lock()
				allSucceeded = false
				mu.Unlock()
			}
		}(batch)
	}

	wg.Wait()

	return allSucceeded
}

// PersistDeletes は削除対象のハンドルをバッチに分割してストアから削除する。
// バッチ書き込みと同様に並列発行・バッチ単位の失敗分離を行う。
func (p *Persister) PersistDeletes(ctx context.Context, subjectIDs []string) bool {
	allSucceeded := true

	var wg sync.WaitGroup
	var mu sync.Mutex

	for _, batch := range chunk(subjectIDs, p.batchSize) {
		wg.Add(1)
		go func(batch []string) {
			defer wg.Done()

			if err := p.repo.BatchDelete(ctx, batch); err != nil {
				p.logger.Error("エントリのバッチ削除に失敗しました",
					slog.Int("batch_size", len(batch)),
					slog.String("error", err.Error()),
				)
				p.metrics.RecordBatchFailure("delete")
				mu.Lock()
				allSucceeded = false
				mu.Unlock()
			}
		}(batch)
	}

	wg.Wait()

	return allSucceeded
}

// chunk はスライスをsize件ごとのバッチに分割する。
func chunk[T any](items []T, size int) [][]T {
	if len(items) == 0 {
		return nil
	}
	var batches [][]T
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		batches = append(batches, items[start:end])
	}
	return batches
}
