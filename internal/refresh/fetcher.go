package refresh

import (
	"context"
	"log/slog"
	"sync"

	"github.com/hitoshi/skyembed/internal/bsky"
	"github.com/hitoshi/skyembed/internal/model"
)

// refreshFetchLimit は更新サイクルで取得するタイムラインの件数。
const refreshFetchLimit = 30

// TimelineFetcher はタイムライン取得のインターフェース。
type TimelineFetcher interface {
	GetAuthorFeed(ctx context.Context, actor, filter string, limit int) (*bsky.Timeline, error)
}

// FetchOutcome は1件の上流フェッチの確定結果を表す。
// 成功ならTimelineが、失敗ならErrが設定される。
type FetchOutcome struct {
	Timeline *bsky.Timeline
	Err      error
}

// Fetcher はステイルエントリごとの上流フェッチを並列に実行する。
// semaphoreパターンで最大並列数を制御する。
type Fetcher struct {
	client         TimelineFetcher
	logger         *slog.Logger
	maxConcurrency int
}

// NewFetcher はFetcherの新しいインスタンスを生成する。
// maxConcurrencyが0以下の場合はデフォルト値10を使用する。
func NewFetcher(client TimelineFetcher, logger *slog.Logger, maxConcurrency int) *Fetcher {
	if maxConcurrency <= 0 {
		maxConcurrency = 10
	}
	return &Fetcher{
		client:         client,
		logger:         logger,
		maxConcurrency: maxConcurrency,
	}
}

// FetchAll は各エントリにつき1回の独立した上流フェッチを並列に発行し、
// 全件が確定（成功または失敗）するまで待つ。
// 返り値は入力と同じ長さ・同じ順序で、outcome[i]はentries[i]に対応する。
// 完了順序に関わらずインデックスで書き込むため、対応関係は常に保たれる。
// 1件の失敗が他のフェッチを中断・阻害することはない。
func (f *Fetcher) FetchAll(ctx context.Context, entries []*model.FeedCacheEntry) []FetchOutcome {
	outcomes := make([]FetchOutcome, len(entries))

	sem := make(chan struct{}, f.maxConcurrency)
	var wg sync.WaitGroup

	for i, entry := range entries {
		wg.Add(1)
		sem <- struct{}{} // semaphore取得（ブロック）

		go func(i int, subjectID string) {
			defer wg.Done()
			defer func() { <-sem }() // semaphore解放

			timeline, err := f.client.GetAuthorFeed(ctx, subjectID, bsky.FilterPostsNoReplies, refreshFetchLimit)
			outcomes[i] = FetchOutcome{Timeline: timeline, Err: err}
		}(i, entry.SubjectID)
	}

	wg.Wait()

	return outcomes
}
