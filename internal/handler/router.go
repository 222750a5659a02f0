package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/skyembed/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger

	// フィード
	FeedService FeedServiceInterface

	// ヘルスチェック
	DB DBPinger

	// メトリクス（nilの場合は/metricsを公開しない）
	MetricsHandler http.Handler

	// HTTPメトリクス記録（nilの場合は記録しない）
	HTTPMetrics middleware.HTTPMetricsRecorder
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	CORSMiddleware → SecurityHeadersMiddleware → LoggingMiddleware → RecoveryMiddleware
//
// フィードAPIにはAPI全般のレート制限を、作成エンドポイントには作成専用の
// レート制限を追加で適用する。ヘルスチェックと/metricsはレート制限の対象外。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	if deps.HTTPMetrics != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.HTTPMetrics))
	}
	r.Use(middleware.NewRecoveryMiddleware())

	feedHandler := NewFeedHandler(deps.FeedService)
	healthHandler := NewHealthHandler(deps.DB)

	// ヘルスチェック（レート制限の対象外）
	r.Get("/health", healthHandler.Health)

	// Prometheusスクレイプ
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	// フィードAPI
	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Route("/api/feeds", func(r chi.Router) {
			r.Get("/lookup/{bskyId}", feedHandler.LookupFeed)

			// 作成は上流フェッチを伴うため専用レート制限を追加
			r.With(deps.RateLimiter.CreateMiddleware()).Get("/create/{bskyId}", feedHandler.CreateFeed)
			r.With(deps.RateLimiter.CreateMiddleware()).Post("/create/{bskyId}", feedHandler.CreateFeed)
		})
	})

	return r
}
