// Package model はドメインモデルを定義する。
package model

import (
	"crypto/sha256"
	"encoding/hex"
)

// FeedCacheEntry はキャッシュ済みフィードの管理レコードを表す。
// SubjectIDをキーとしてドキュメントストアに保存され、
// レンダリング済みHTMLはContentHashをキーとしてCDNに保存される。
type FeedCacheEntry struct {
	// SubjectID はタイムラインの持ち主を示すBlueSkyハンドル。
	SubjectID string
	// ContentHash はSubjectIDから導出した一方向ハッシュ。
	// 公開される成果物の保存キーがハンドルから推測できないようにする。
	ContentHash string
	// LastUpdated は最後にフィードを更新したUNIX時刻（秒）。
	LastUpdated int64
}

// ContentHash はsubjectIDからレンダリング成果物の保存キーを導出する。
// SHA-256の16進表現を返す。同一入力に対して常に同一出力を返す。
func ContentHash(subjectID string) string {
	sum := sha256.Sum256([]byte(subjectID))
	return hex.EncodeToString(sum[:])
}

// NewFeedCacheEntry は指定ハンドルのキャッシュエントリを生成する。
// ContentHashは導出され、LastUpdatedに与えられた時刻を設定する。
func NewFeedCacheEntry(subjectID string, lastUpdated int64) *FeedCacheEntry {
	return &FeedCacheEntry{
		SubjectID:   subjectID,
		ContentHash: ContentHash(subjectID),
		LastUpdated: lastUpdated,
	}
}
