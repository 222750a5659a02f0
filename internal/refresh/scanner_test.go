package refresh

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/hitoshi/skyembed/internal/model"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))
}

// mockStalePageLister はStalePageListerのテスト用モック。
type mockStalePageLister struct {
	listStalePageFunc func(ctx context.Context, olderThan time.Time, cursor string, limit int) ([]*model.FeedCacheEntry, string, error)
}

func (m *mockStalePageLister) ListStalePage(ctx context.Context, olderThan time.Time, cursor string, limit int) ([]*model.FeedCacheEntry, string, error) {
	if m.listStalePageFunc != nil {
		return m.listStalePageFunc(ctx, olderThan, cursor, limit)
	}
	return nil, "", nil
}

func entriesNamed(names ...string) []*model.FeedCacheEntry {
	entries := make([]*model.FeedCacheEntry, len(names))
	for i, name := range names {
		entries[i] = model.NewFeedCacheEntry(name, 0)
	}
	return entries
}

func TestScanSinglePage(t *testing.T) {
	repo := &mockStalePageLister{
		listStalePageFunc: func(ctx context.Context, olderThan time.Time, cursor string, limit int) ([]*model.FeedCacheEntry, string, error) {
			return entriesNamed("alice.bsky.social", "bob.bsky.social"), "", nil
		},
	}

	scanner := NewScanner(repo, newTestLogger(), 100)

	entries, err := scanner.Scan(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("エラーは発生しないべき: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("エントリ数が一致しません: got %d, want 2", len(entries))
	}
}

func TestScanFollowsContinuationToken(t *testing.T) {
	calls := 0
	repo := &mockStalePageLister{
		listStalePageFunc: func(ctx context.Context, olderThan time.Time, cursor string, limit int) ([]*model.FeedCacheEntry, string, error) {
			calls++
			switch cursor {
			case "":
				return entriesNamed("a.bsky.social"), "page2", nil
			case "page2":
				return entriesNamed("b.bsky.social"), "page3", nil
			case "page3":
				return entriesNamed("c.bsky.social"), "", nil
			default:
				return nil, "", fmt.Errorf("予期しないカーソル: %q", cursor)
			}
		},
	}

	scanner := NewScanner(repo, newTestLogger(), 1)

	entries, err := scanner.Scan(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("エラーは発生しないべき: %v", err)
	}
	if calls != 3 {
		t.Errorf("継続トークンが尽きるまでページを辿るべき: calls = %d", calls)
	}
	if len(entries) != 3 {
		t.Errorf("全ページのエントリが蓄積されるべき: got %d", len(entries))
	}
	// ページ順が保たれること
	if entries[0].SubjectID != "a.bsky.social" || entries[2].SubjectID != "c.bsky.social" {
		t.Errorf("エントリの順序が保たれるべき: %v", entries)
	}
}

func TestScanEmptyPageWithTokenContinues(t *testing.T) {
	// 項目0件でも継続トークンがあればスキャンは終わらない
	calls := 0
	repo := &mockStalePageLister{
		listStalePageFunc: func(ctx context.Context, olderThan time.Time, cursor string, limit int) ([]*model.FeedCacheEntry, string, error) {
			calls++
			if cursor == "" {
				return nil, "more", nil
			}
			return entriesNamed("late.bsky.social"), "", nil
		},
	}

	scanner := NewScanner(repo, newTestLogger(), 100)

	entries, err := scanner.Scan(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("エラーは発生しないべき: %v", err)
	}
	if calls != 2 {
		t.Errorf("空ページの後も継続すべき: calls = %d", calls)
	}
	if len(entries) != 1 {
		t.Errorf("エントリ数が一致しません: got %d", len(entries))
	}
}

func TestScanNoStaleEntries(t *testing.T) {
	repo := &mockStalePageLister{}

	scanner := NewScanner(repo, newTestLogger(), 100)

	entries, err := scanner.Scan(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("該当なしはエラーではない: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("エントリは0件になるべき: got %d", len(entries))
	}
}

func TestScanPropagatesError(t *testing.T) {
	repo := &mockStalePageLister{
		listStalePageFunc: func(ctx context.Context, olderThan time.Time, cursor string, limit int) ([]*model.FeedCacheEntry, string, error) {
			return nil, "", errors.New("connection refused")
		},
	}

	scanner := NewScanner(repo, newTestLogger(), 100)

	if _, err := scanner.Scan(context.Background(), time.Now()); err == nil {
		t.Error("ストアのエラーは伝播されるべき")
	}
}

func TestScanPassesOlderThanAndLimit(t *testing.T) {
	olderThan := time.Date(2025, 6, 1, 11, 55, 0, 0, time.UTC)

	var gotOlderThan time.Time
	var gotLimit int
	repo := &mockStalePageLister{
		listStalePageFunc: func(ctx context.Context, ot time.Time, cursor string, limit int) ([]*model.FeedCacheEntry, string, error) {
			gotOlderThan = ot
			gotLimit = limit
			return nil, "", nil
		},
	}

	scanner := NewScanner(repo, newTestLogger(), 42)

	if _, err := scanner.Scan(context.Background(), olderThan); err != nil {
		t.Fatalf("エラーは発生しないべき: %v", err)
	}
	if !gotOlderThan.Equal(olderThan) {
		t.Errorf("しきい値時刻が渡されるべき: got %v", gotOlderThan)
	}
	if gotLimit != 42 {
		t.Errorf("ページサイズが渡されるべき: got %d", gotLimit)
	}
}
