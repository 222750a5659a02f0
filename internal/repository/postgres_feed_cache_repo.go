package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/hitoshi/skyembed/internal/model"
)

// PostgresFeedCacheRepo はPostgreSQLを使用したフィードキャッシュリポジトリ。
// ドキュメントストアとしてのセマンティクス（継続トークン付きスキャン、
// バッチ書き込み）をキーセットページネーションとマルチ行INSERTで実現する。
type PostgresFeedCacheRepo struct {
	db *sql.DB
}

// NewPostgresFeedCacheRepo はPostgresFeedCacheRepoを生成する。
func NewPostgresFeedCacheRepo(db *sql.DB) *PostgresFeedCacheRepo {
	return &PostgresFeedCacheRepo{db: db}
}

// FindBySubjectID は指定ハンドルのエントリを取得する。見つからない場合はnilを返す。
func (r *PostgresFeedCacheRepo) FindBySubjectID(ctx context.Context, subjectID string) (*model.FeedCacheEntry, error) {
	entry := &model.FeedCacheEntry{}

	err := r.db.QueryRowContext(ctx,
		`SELECT subject_id, content_hash, last_updated
		 FROM feed_cache WHERE subject_id = $1`,
		subjectID,
	).Scan(&entry.SubjectID, &entry.ContentHash, &entry.LastUpdated)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("キャッシュエントリの取得に失敗しました: %w", err)
	}

	return entry, nil
}

// Put はエントリを冪等にUPSERTする。
func (r *PostgresFeedCacheRepo) Put(ctx context.Context, entry *model.FeedCacheEntry) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO feed_cache (subject_id, content_hash, last_updated)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (subject_id) DO UPDATE SET
		    content_hash = EXCLUDED.content_hash,
		    last_updated = EXCLUDED.last_updated`,
		entry.SubjectID, entry.ContentHash, entry.LastUpdated,
	)
	if err != nil {
		return fmt.Errorf("キャッシュエントリの保存に失敗しました: %w", err)
	}
	return nil
}

// Delete は指定ハンドルのエントリを削除する。存在しない場合もエラーとしない。
func (r *PostgresFeedCacheRepo) Delete(ctx context.Context, subjectID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM feed_cache WHERE subject_id = $1`,
		subjectID,
	)
	if err != nil {
		return fmt.Errorf("キャッシュエントリの削除に失敗しました: %w", err)
	}
	return nil
}

// ListStalePage はlastUpdatedがolderThanより古いエントリを1ページ分取得する。
// 継続トークンには最後に返したsubject_idを使用する（キーセットページネーション）。
// limit件ちょうど返った場合のみ次ページが存在する可能性があるため継続トークンを返す。
func (r *PostgresFeedCacheRepo) ListStalePage(ctx context.Context, olderThan time.Time, cursor string, limit int) ([]*model.FeedCacheEntry, string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT subject_id, content_hash, last_updated
		 FROM feed_cache
		 WHERE last_updated < $1 AND subject_id > $2
		 ORDER BY subject_id
		 LIMIT $3`,
		olderThan.Unix(), cursor, limit,
	)
	if err != nil {
		return nil, "", fmt.Errorf("ステイルエントリのスキャンに失敗しました: %w", err)
	}
	defer rows.Close()

	var entries []*model.FeedCacheEntry
	for rows.Next() {
		entry := &model.FeedCacheEntry{}
		if err := rows.Scan(&entry.SubjectID, &entry.ContentHash, &entry.LastUpdated); err != nil {
			return nil, "", fmt.Errorf("ステイルエントリの読み取りに失敗しました: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, "", fmt.Errorf("ステイルエントリのスキャンに失敗しました: %w", err)
	}

	nextCursor := ""
	if len(entries) == limit {
		nextCursor = entries[len(entries)-1].SubjectID
	}

	return entries, nextCursor, nil
}

// BatchPut は複数エントリを1回のマルチ行INSERTでUPSERTする。
// 空スライスの場合は何もしない。
func (r *PostgresFeedCacheRepo) BatchPut(ctx context.Context, entries []*model.FeedCacheEntry) error {
	if len(entries) == 0 {
		return nil
	}

	placeholders := make([]string, 0, len(entries))
	args := make([]any, 0, len(entries)*3)
	for i, entry := range entries {
		placeholders = append(placeholders,
			fmt.Sprintf("($%d, $%d, $%d)", i*3+1, i*3+2, i*3+3))
		args = append(args, entry.SubjectID, entry.ContentHash, entry.LastUpdated)
	}

	query := fmt.Sprintf(
		`INSERT INTO feed_cache (subject_id, content_hash, last_updated)
		 VALUES %s
		 ON CONFLICT (subject_id) DO UPDATE SET
		    content_hash = EXCLUDED.content_hash,
		    last_updated = EXCLUDED.last_updated`,
		strings.Join(placeholders, ", "))

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("キャッシュエントリのバッチ保存に失敗しました: %w", err)
	}
	return nil
}

// BatchDelete は複数エントリを1回の削除要求で削除する。
// 空スライスの場合は何もしない。
func (r *PostgresFeedCacheRepo) BatchDelete(ctx context.Context, subjectIDs []string) error {
	if len(subjectIDs) == 0 {
		return nil
	}

	_, err := r.db.ExecContext(ctx,
		`DELETE FROM feed_cache WHERE subject_id = ANY($1)`,
		pq.Array(subjectIDs),
	)
	if err != nil {
		return fmt.Errorf("キャッシュエントリのバッチ削除に失敗しました: %w", err)
	}
	return nil
}
