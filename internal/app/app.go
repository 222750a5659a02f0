// Package app はアプリケーションの初期化と起動を提供する。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/hitoshi/skyembed/internal/bsky"
	"github.com/hitoshi/skyembed/internal/cdn"
	"github.com/hitoshi/skyembed/internal/config"
	"github.com/hitoshi/skyembed/internal/database"
	"github.com/hitoshi/skyembed/internal/feed"
	"github.com/hitoshi/skyembed/internal/handler"
	"github.com/hitoshi/skyembed/internal/logger"
	"github.com/hitoshi/skyembed/internal/metrics"
	"github.com/hitoshi/skyembed/internal/middleware"
	"github.com/hitoshi/skyembed/internal/refresh"
	"github.com/hitoshi/skyembed/internal/render"
	"github.com/hitoshi/skyembed/internal/repository"
	"github.com/hitoshi/skyembed/internal/security"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
	)

	switch cmd {
	case CommandServe:
		return runServe(cfg)
	case CommandWorker:
		return runWorker(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// newPublisher はAWS設定を読み込み、S3ベースのフィード公開サービスを構築する。
func newPublisher(ctx context.Context, cfg *config.Config) (*cdn.S3Publisher, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsCfg)
	return cdn.NewS3Publisher(s3Client, slog.Default(), cfg.S3BucketName, cfg.CDNBaseURL), nil
}

// newBskyClient はSSRF防止付きHTTPクライアントを使うBlueSky APIクライアントを構築する。
func newBskyClient(cfg *config.Config) *bsky.Client {
	guard := security.NewOutboundGuard()
	return bsky.NewClient(guard.NewSafeClient(cfg.FetchTimeout), slog.Default(), cfg.BskyAPIBase)
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. リポジトリとセキュリティサービスの初期化
	cacheRepo := repository.NewPostgresFeedCacheRepo(db)
	sanitizer := security.NewTextSanitizer()

	// 3. 外部サービスクライアントの構築
	bskyClient := newBskyClient(cfg)

	publisher, err := newPublisher(context.Background(), cfg)
	if err != nil {
		return err
	}

	// 4. ドメインサービスとメトリクスの初期化
	renderer := render.NewRenderer(sanitizer)
	feedService := feed.NewService(cacheRepo, bskyClient, renderer, publisher, slog.Default())

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 5. ルーターの構築
	rateLimiterCfg := middleware.DefaultRateLimiterConfig()
	// configのレート制限値はreq/min単位なのでreq/secに変換する
	rateLimiterCfg.GeneralRate = rate.Limit(float64(cfg.RateLimitGeneral) / 60.0)
	rateLimiterCfg.GeneralBurst = cfg.RateLimitGeneral
	rateLimiterCfg.CreateRate = rate.Limit(float64(cfg.RateLimitCreate) / 60.0)
	rateLimiterCfg.CreateBurst = cfg.RateLimitCreate

	rateLimiter := middleware.NewRateLimiter(rateLimiterCfg)
	defer rateLimiter.Stop()

	router := handler.NewRouter(&handler.RouterDeps{
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		Logger:            slog.Default(),
		FeedService:       feedService,
		DB:                db,
		MetricsHandler:    metrics.Handler(registry),
		HTTPMetrics:       collector,
	})

	// 6. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runWorker はフィード更新ワーカーモードで起動する。
// DB接続を開き、更新サイクルのランナーを起動する。
// メトリクスは同一プロセス内の軽量HTTPサーバーで/metricsとして公開する。
// SIGINTまたはSIGTERMシグナルを受信するとシャットダウンする。
func runWorker(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established (worker)")

	// 2. リポジトリとセキュリティサービスの初期化
	cacheRepo := repository.NewPostgresFeedCacheRepo(db)
	sanitizer := security.NewTextSanitizer()

	// 3. 外部サービスクライアントの構築
	bskyClient := newBskyClient(cfg)

	publisher, err := newPublisher(context.Background(), cfg)
	if err != nil {
		return err
	}

	// 4. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 5. 更新パイプラインの構築
	renderer := render.NewRenderer(sanitizer)
	scanner := refresh.NewScanner(cacheRepo, slog.Default(), cfg.ScanPageSize)
	fetcher := refresh.NewFetcher(bskyClient, slog.Default(), cfg.FetchMaxConcurrent)
	classifier := refresh.NewClassifier(slog.Default())
	persister := refresh.NewPersister(cacheRepo, renderer, publisher, slog.Default(), collector, cfg.BatchSize)
	runner := refresh.NewRunner(scanner, fetcher, classifier, persister, slog.Default(), collector, cfg.StaleAfter)

	// グレースフルシャットダウンのためのシグナルハンドリング
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-stop
		slog.Info("shutting down worker...")
		cancel()
	}()

	// メトリクスサーバーをバックグラウンドで起動
	metricsServer := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: metrics.SetupMetricsRoute(registry),
	}
	go func() {
		slog.Info("metrics server starting",
			slog.String("addr", metricsServer.Addr),
		)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server listen error", slog.String("error", err.Error()))
		}
	}()
	defer metricsServer.Close()

	slog.Info("worker starting",
		slog.Duration("refresh_interval", cfg.RefreshInterval),
		slog.Int("max_concurrent", cfg.FetchMaxConcurrent),
	)

	// 更新ランナーをメインgoroutineで実行（ブロッキング）
	runner.Start(ctx, cfg.RefreshInterval)

	slog.Info("worker stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
