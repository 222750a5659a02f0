// Package feed はフィードの作成・参照のビジネスロジックを提供する。
package feed

import (
	"context"
	"log/slog"
	"time"

	"github.com/hitoshi/skyembed/internal/bsky"
	"github.com/hitoshi/skyembed/internal/model"
)

// createFetchLimit は作成時に上流から取得する投稿数。
// リポスト除外フィルタ後に表示件数を確保するため多めに取得する。
const createFetchLimit = 90

// createKeepLimit はフィルタ後にフィードへ残す投稿数の上限。
const createKeepLimit = 30

// lookupFetchLimit は参照時に上流から取得する投稿数。
const lookupFetchLimit = 30

// CacheStore はサービス層が必要とするストア操作のインターフェース。
type CacheStore interface {
	FindBySubjectID(ctx context.Context, subjectID string) (*model.FeedCacheEntry, error)
	Put(ctx context.Context, entry *model.FeedCacheEntry) error
}

// TimelineClient はBlueSky APIへの問い合わせインターフェース。
type TimelineClient interface {
	GetAuthorFeed(ctx context.Context, actor, filter string, limit int) (*bsky.Timeline, error)
}

// HTMLRenderer はタイムラインのHTML変換インターフェース。
type HTMLRenderer interface {
	RenderTimeline(timeline *bsky.Timeline) (string, bool)
}

// Publisher はHTML公開と公開URI導出のインターフェース。
type Publisher interface {
	Save(ctx context.Context, contentHash, html string) (string, error)
	URL(contentHash string) string
}

// CreateResult はフィード作成操作の結果を表す。
type CreateResult struct {
	// SavedFeedURI は公開されたフィードHTMLのURI。
	SavedFeedURI string
	// ContentHash はハンドルから導出された不透明キー。
	ContentHash string
	// CacheHit は既存エントリを返した場合にtrue。
	CacheHit bool
}

// Service はフィードの作成・参照を提供する。
type Service struct {
	store     CacheStore
	client    TimelineClient
	renderer  HTMLRenderer
	publisher Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	store CacheStore,
	client TimelineClient,
	renderer HTMLRenderer,
	publisher Publisher,
	logger *slog.Logger,
) *Service {
	return &Service{
		store:     store,
		client:    client,
		renderer:  renderer,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// GetOrCreate は指定ハンドルのフィードを作成し、公開URIを返す。
// 既にエントリが存在する場合は上流に問い合わせず既存の公開URIを返す（冪等）。
// 以降の鮮度維持は更新ワーカーが担う。
func (s *Service) GetOrCreate(ctx context.Context, subjectID string, includeReposts bool) (*CreateResult, error) {
	if subjectID == "" {
		return nil, model.NewSubjectRequiredError()
	}

	contentHash := model.ContentHash(subjectID)

	// 1. 既存エントリの確認。存在すればキャッシュヒットとして即座に返す
	existing, err := s.store.FindBySubjectID(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		s.logger.Info("既存のフィードエントリを返します",
			slog.String("subject_id", subjectID),
		)
		return &CreateResult{
			SavedFeedURI: s.publisher.URL(existing.ContentHash),
			ContentHash:  existing.ContentHash,
			CacheHit:     true,
		}, nil
	}

	// 2. 上流からタイムラインを取得
	timeline, err := s.client.GetAuthorFeed(ctx, subjectID, bsky.FilterPostsNoReplies, createFetchLimit)
	if err != nil {
		if bsky.IsSubjectNotFound(err) {
			return nil, model.NewSubjectNotFoundError(subjectID)
		}
		s.logger.Error("タイムラインの取得に失敗しました",
			slog.String("subject_id", subjectID),
			slog.String("error", err.Error()),
		)
		return nil, model.NewUpstreamFailedError(err.Error())
	}

	// 3. 未認証ユーザーへの公開を拒否しているアカウントはレンダリングしない
	if bsky.IsUnauthenticatedOnly(timeline) {
		return nil, model.NewUnauthorizedFeedError()
	}

	// 4. リポストのフィルタリングと件数の切り詰め
	filtered := filterTimeline(timeline, includeReposts)

	// 5. HTML生成
	html, ok := s.renderer.RenderTimeline(filtered)
	if !ok {
		return nil, model.NewRenderFailedError()
	}

	// 6. CDNへの公開
	savedURI, err := s.publisher.Save(ctx, contentHash, html)
	if err != nil {
		return nil, model.NewPublishFailedError()
	}

	// 7. エントリの登録。以降は更新ワーカーの管理下に入る
	entry := model.NewFeedCacheEntry(subjectID, s.now().Unix())
	if err := s.store.Put(ctx, entry); err != nil {
		return nil, err
	}

	s.logger.Info("フィードを作成しました",
		slog.String("subject_id", subjectID),
		slog.Bool("include_reposts", includeReposts),
		slog.Int("post_count", len(filtered.Feed)),
	)

	return &CreateResult{
		SavedFeedURI: savedURI,
		ContentHash:  contentHash,
		CacheHit:     false,
	}, nil
}

// Lookup は指定ハンドルのタイムラインをそのまま取得して返す。
// キャッシュを経由しない素通し参照であり、スレッド付きフィルタを使用する。
func (s *Service) Lookup(ctx context.Context, subjectID string) (*bsky.Timeline, error) {
	if subjectID == "" {
		return nil, model.NewSubjectRequiredError()
	}

	timeline, err := s.client.GetAuthorFeed(ctx, subjectID, bsky.FilterPostsAndAuthorThreads, lookupFetchLimit)
	if err != nil {
		if bsky.IsSubjectNotFound(err) {
			return nil, model.NewSubjectNotFoundError(subjectID)
		}
		s.logger.Error("タイムラインの取得に失敗しました",
			slog.String("subject_id", subjectID),
			slog.String("error", err.Error()),
		)
		return nil, model.NewUpstreamFailedError(err.Error())
	}

	return timeline, nil
}

// filterTimeline はリポスト除外の指定を適用し、表示件数の上限まで切り詰める。
func filterTimeline(timeline *bsky.Timeline, includeReposts bool) *bsky.Timeline {
	filtered := &bsky.Timeline{Cursor: timeline.Cursor}

	for _, item := range timeline.Feed {
		if !includeReposts && item.Reason != nil {
			continue
		}
		filtered.Feed = append(filtered.Feed, item)
		if len(filtered.Feed) >= createKeepLimit {
			break
		}
	}

	return filtered
}
