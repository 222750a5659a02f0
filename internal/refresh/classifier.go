package refresh

import (
	"log/slog"

	"github.com/hitoshi/skyembed/internal/bsky"
	"github.com/hitoshi/skyembed/internal/model"
)

// UpdateCandidate は更新対象のエントリと取得済みタイムラインの組を表す。
type UpdateCandidate struct {
	Entry    *model.FeedCacheEntry
	Timeline *bsky.Timeline
}

// RefreshBatch はフェッチ結果の分類を表す。1サイクル内でのみ使用し、永続化しない。
type RefreshBatch struct {
	// ToUpdate はタイムライン取得に成功し、再レンダリングするエントリ。
	ToUpdate []UpdateCandidate
	// ToDelete は上流でアカウントが解決できなくなったエントリのハンドル。
	ToDelete []string
	// Skipped は原因不明の失敗により今回は手を付けないエントリのハンドル。
	Skipped []string
}

// Classifier はフェッチ結果を更新・削除・スキップに分類する。
type Classifier struct {
	logger *slog.Logger
}

// NewClassifier はClassifierの新しいインスタンスを生成する。
func NewClassifier(logger *slog.Logger) *Classifier {
	return &Classifier{logger: logger}
}

// Classify はエントリと同順のフェッチ結果を受け取り、処理方針ごとに振り分ける。
// アカウントが存在しないことを示す型付きエラーのみ削除対象とする。
// それ以外の失敗は一時的な可能性があるため、更新も削除もせずスキップする
// （次サイクルでステイルのまま再試行される）。
func (c *Classifier) Classify(entries []*model.FeedCacheEntry, outcomes []FetchOutcome) RefreshBatch {
	batch := RefreshBatch{}

	for i, outcome := range outcomes {
		entry := entries[i]

		if outcome.Err != nil {
			if bsky.IsSubjectNotFound(outcome.Err) {
				batch.ToDelete = append(batch.ToDelete, entry.SubjectID)
				continue
			}
			c.logger.Error("上流から不明なエラーが返されました",
				slog.String("subject_id", entry.SubjectID),
				slog.String("error", outcome.Err.Error()),
			)
			batch.Skipped = append(batch.Skipped, entry.SubjectID)
			continue
		}

		batch.ToUpdate = append(batch.ToUpdate, UpdateCandidate{
			Entry:    entry,
			Timeline: outcome.Timeline,
		})
	}

	return batch
}
