// Package cdn はレンダリング済みHTMLのオブジェクトストレージへの公開を提供する。
package cdn

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// s3PutAPI はS3クライアントのうち公開処理が必要とする操作のインターフェース。
// テスト時にモックに差し替え可能。
type s3PutAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Publisher はS3バケットへHTMLを保存し、CDN経由の公開URIを返す。
type S3Publisher struct {
	client  s3PutAPI
	logger  *slog.Logger
	bucket  string
	baseURL string
}

// NewS3Publisher はS3Publisherの新しいインスタンスを生成する。
// baseURLは公開URI合成に使用するCDNのベースURL（末尾スラッシュなし）。
func NewS3Publisher(client s3PutAPI, logger *slog.Logger, bucket, baseURL string) *S3Publisher {
	return &S3Publisher{
		client:  client,
		logger:  logger,
		bucket:  bucket,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

// objectKey はコンテンツハッシュから保存キーを導出する。
func objectKey(contentHash string) string {
	return "feeds/" + contentHash + ".html"
}

// Save はレンダリング済みHTMLをオブジェクトストレージに保存し、公開URIを返す。
// キーはコンテンツハッシュから導出され、ハンドルから推測できない。
func (p *S3Publisher) Save(ctx context.Context, contentHash, html string) (string, error) {
	key := objectKey(contentHash)

	_, err := p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		Body:        strings.NewReader(html),
		ContentType: aws.String("text/html; charset=utf-8"),
	})
	if err != nil {
		p.logger.Error("フィードHTMLのS3保存に失敗しました",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return "", fmt.Errorf("フィードHTMLのS3保存に失敗しました: %w", err)
	}

	return p.baseURL + "/" + key, nil
}

// URL は保存済みフィードの公開URIを返す。ストレージへのアクセスは行わない。
func (p *S3Publisher) URL(contentHash string) string {
	return p.baseURL + "/" + objectKey(contentHash)
}
