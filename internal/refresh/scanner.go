// Package refresh はフィードキャッシュの定期更新パイプラインを提供する。
// スキャナ、フェッチャー、分類器、パーシスタと、それらを束ねるランナーを含む。
package refresh

import (
	"context"
	"log/slog"
	"time"

	"github.com/hitoshi/skyembed/internal/model"
)

// StalePageLister はステイルエントリのページ取得インターフェース。
type StalePageLister interface {
	// ListStalePage はlastUpdatedがolderThanより古いエントリを1ページ分返す。
	// 第2返り値は継続トークンで、空文字列は最終ページを意味する。
	ListStalePage(ctx context.Context, olderThan time.Time, cursor string, limit int) ([]*model.FeedCacheEntry, string, error)
}

// Scanner は更新対象エントリの全件スキャンを行う。
// ストアの継続トークンを明示的なループで辿り、全ページを1つの結果に蓄積する。
type Scanner struct {
	repo     StalePageLister
	logger   *slog.Logger
	pageSize int
}

// NewScanner はScannerの新しいインスタンスを生成する。
// pageSizeが0以下の場合はデフォルト値100を使用する。
func NewScanner(repo StalePageLister, logger *slog.Logger, pageSize int) *Scanner {
	if pageSize <= 0 {
		pageSize = 100
	}
	return &Scanner{
		repo:     repo,
		logger:   logger,
		pageSize: pageSize,
	}
}

// Scan はlastUpdatedがolderThanより古い全エントリを返す。
// 継続トークンが尽きるまでページを辿る。空ページはエラーではなく、
// 「項目なし かつ 継続トークンなし」の組み合わせだけが完了を意味する。
// ページ数はストア次第で無制限のため、再帰ではなくループで蓄積する。
func (s *Scanner) Scan(ctx context.Context, olderThan time.Time) ([]*model.FeedCacheEntry, error) {
	var results []*model.FeedCacheEntry
	cursor := ""
	pages := 0

	for {
		entries, nextCursor, err := s.repo.ListStalePage(ctx, olderThan, cursor, s.pageSize)
		if err != nil {
			return nil, err
		}
		pages++
		results = append(results, entries...)

		if nextCursor == "" {
			break
		}
		cursor = nextCursor
	}

	s.logger.Info("ステイルエントリのスキャンが完了しました",
		slog.Int("entry_count", len(results)),
		slog.Int("page_count", pages),
	)

	return results, nil
}
