// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/skyembed/internal/model"
)

// FeedCacheRepository はフィードキャッシュエントリの永続化インターフェース。
// スキャン（読み取り）とバッチ書き込みの両方を提供するが、
// 各コンポーネントは必要なメソッドだけを小さなインターフェースとして要求すること。
type FeedCacheRepository interface {
	// FindBySubjectID は指定ハンドルのエントリを取得する。見つからない場合はnilを返す。
	FindBySubjectID(ctx context.Context, subjectID string) (*model.FeedCacheEntry, error)

	// Put はエントリを冪等にUPSERTする。
	Put(ctx context.Context, entry *model.FeedCacheEntry) error

	// Delete は指定ハンドルのエントリを削除する。存在しない場合もエラーとしない。
	Delete(ctx context.Context, subjectID string) error

	// ListStalePage はlastUpdatedがolderThanより古いエントリを1ページ分取得する。
	// cursorには前ページが返した継続トークンを渡す（先頭ページは空文字列）。
	// 返り値の継続トークンが空文字列の場合、それ以上のページは存在しない。
	// 該当エントリが0件のページも正常応答であり、継続トークンの有無だけが完了条件となる。
	ListStalePage(ctx context.Context, olderThan time.Time, cursor string, limit int) ([]*model.FeedCacheEntry, string, error)

	// BatchPut は複数エントリを1回の書き込み要求でUPSERTする。
	// 呼び出し側がストアの最大バッチサイズ以下に分割する責務を持つ。
	BatchPut(ctx context.Context, entries []*model.FeedCacheEntry) error

	// BatchDelete は複数エントリを1回の削除要求で削除する。
	BatchDelete(ctx context.Context, subjectIDs []string) error
}
