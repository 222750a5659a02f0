package bsky

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// getAuthorFeedのフィルタ値。
const (
	FilterPostsNoReplies       = "posts_no_replies"
	FilterPostsAndAuthorThreads = "posts_and_author_threads"
)

// defaultAPIBase はBlueSky公開APIのベースURL。
const defaultAPIBase = "https://api.bsky.app"

// Client はBlueSky公開API（api.bsky.app）のクライアント。
// 認証不要の読み取りエンドポイントのみを扱う。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string
}

// NewClient はClientの新しいインスタンスを生成する。
// baseURLが空文字列の場合はBlueSky公開APIを使用する。
func NewClient(httpClient *http.Client, logger *slog.Logger, baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultAPIBase
	}
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		baseURL:    baseURL,
	}
}

// GetAuthorFeed は指定アカウントのタイムラインを取得する。
// 上流がエラーを返した場合は*XRPCErrorを返し、エラー名による分類を可能にする。
func (c *Client) GetAuthorFeed(ctx context.Context, actor, filter string, limit int) (*Timeline, error) {
	start := time.Now()

	reqURL, err := url.Parse(c.baseURL + "/xrpc/app.bsky.feed.getAuthorFeed")
	if err != nil {
		return nil, fmt.Errorf("エンドポイントURLのパースに失敗しました: %w", err)
	}

	q := reqURL.Query()
	q.Set("actor", actor)
	q.Set("filter", filter)
	q.Set("limit", strconv.Itoa(limit))
	reqURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "Skyembed/1.0 Feed Cache")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("BlueSky APIの呼び出しに失敗しました",
			slog.String("actor", actor),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("BlueSky APIの呼び出しに失敗しました: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		xrpcErr := &XRPCError{StatusCode: resp.StatusCode}
		var errBody struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if err := json.Unmarshal(body, &errBody); err == nil {
			xrpcErr.ErrorName = errBody.Error
			xrpcErr.Message = errBody.Message
		}
		c.logger.Warn("BlueSky APIがエラーステータスを返しました",
			slog.String("actor", actor),
			slog.Int("http_status", resp.StatusCode),
			slog.String("error_name", xrpcErr.ErrorName),
		)
		return nil, xrpcErr
	}

	var timeline Timeline
	if err := json.Unmarshal(body, &timeline); err != nil {
		return nil, fmt.Errorf("タイムラインのパースに失敗しました: %w", err)
	}

	c.logger.Info("タイムラインを取得しました",
		slog.String("actor", actor),
		slog.String("filter", filter),
		slog.Int("item_count", len(timeline.Feed)),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)

	return &timeline, nil
}
