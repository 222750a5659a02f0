package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/skyembed/internal/bsky"
	"github.com/hitoshi/skyembed/internal/feed"
	"github.com/hitoshi/skyembed/internal/model"
)

// FeedServiceInterface はフィードハンドラーが必要とするサービスインターフェース。
type FeedServiceInterface interface {
	// GetOrCreate はフィードを作成し、公開URIを返す。既存エントリがあれば再利用する。
	GetOrCreate(ctx context.Context, subjectID string, includeReposts bool) (*feed.CreateResult, error)
	// Lookup はタイムラインをキャッシュを経由せずそのまま取得する。
	Lookup(ctx context.Context, subjectID string) (*bsky.Timeline, error)
}

// FeedHandler はフィード作成・参照のHTTPハンドラー。
type FeedHandler struct {
	service FeedServiceInterface
}

// NewFeedHandler はFeedHandlerを生成する。
func NewFeedHandler(service FeedServiceInterface) *FeedHandler {
	return &FeedHandler{service: service}
}

// createFeedRequest はフィード作成リクエストのボディ。
type createFeedRequest struct {
	IncludeReposts bool `json:"includeReposts"`
}

// createFeedResponse はフィード作成のAPIレスポンス。
type createFeedResponse struct {
	SavedFeedURI string `json:"savedFeedUri"`
	ContentHash  string `json:"contentHash"`
	CacheHit     bool   `json:"cacheHit"`
}

// CreateFeed はフィード作成を処理する。
// GET|POST /api/feeds/create/{bskyId}
// リポスト表示の指定はGETではクエリパラメータ、POSTではボディから読み取る。
func (h *FeedHandler) CreateFeed(w http.ResponseWriter, r *http.Request) {
	subjectID := chi.URLParam(r, "bskyId")
	if subjectID == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewSubjectRequiredError())
		return
	}

	includeReposts := false
	switch r.Method {
	case http.MethodPost:
		var req createFeedRequest
		// 空ボディのPOSTはデフォルト値で許容する
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			includeReposts = req.IncludeReposts
		}
	default:
		includeReposts, _ = strconv.ParseBool(r.URL.Query().Get("includeReposts"))
	}

	result, err := h.service.GetOrCreate(r.Context(), subjectID, includeReposts)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	statusCode := http.StatusCreated
	message := "フィードを作成しました。"
	if result.CacheHit {
		statusCode = http.StatusOK
		message = "既存のフィードを返しました。"
	}

	writeJSONResponse(w, statusCode, createFeedResponse{
		SavedFeedURI: result.SavedFeedURI,
		ContentHash:  result.ContentHash,
		CacheHit:     result.CacheHit,
	}, message)
}

// LookupFeed はタイムラインの素通し参照を処理する。
// GET /api/feeds/lookup/{bskyId}
func (h *FeedHandler) LookupFeed(w http.ResponseWriter, r *http.Request) {
	subjectID := chi.URLParam(r, "bskyId")
	if subjectID == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewSubjectRequiredError())
		return
	}

	timeline, err := h.service.Lookup(r.Context(), subjectID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, timeline, "タイムラインを取得しました。")
}
