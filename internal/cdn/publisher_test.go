package cdn

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))
}

// mockS3Client はs3PutAPIのテスト用モック。
type mockS3Client struct {
	putObjectFunc func(ctx context.Context, params *s3.PutObjectInput) (*s3.PutObjectOutput, error)

	lastInput *s3.PutObjectInput
}

func (m *mockS3Client) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	m.lastInput = params
	if m.putObjectFunc != nil {
		return m.putObjectFunc(ctx, params)
	}
	return &s3.PutObjectOutput{}, nil
}

func TestSaveWritesObjectAndReturnsURI(t *testing.T) {
	client := &mockS3Client{}
	publisher := NewS3Publisher(client, newTestLogger(), "feeds-bucket", "https://cdn.example")

	uri, err := publisher.Save(context.Background(), "abc123", "<div>feed</div>")
	if err != nil {
		t.Fatalf("エラーは発生しないべき: %v", err)
	}

	if uri != "https://cdn.example/feeds/abc123.html" {
		t.Errorf("公開URIが一致しません: %q", uri)
	}
	if client.lastInput == nil {
		t.Fatal("PutObjectが呼ばれるべき")
	}
	if *client.lastInput.Bucket != "feeds-bucket" {
		t.Errorf("バケット名が一致しません: %q", *client.lastInput.Bucket)
	}
	if *client.lastInput.Key != "feeds/abc123.html" {
		t.Errorf("保存キーが一致しません: %q", *client.lastInput.Key)
	}
	if *client.lastInput.ContentType != "text/html; charset=utf-8" {
		t.Errorf("Content-Typeが一致しません: %q", *client.lastInput.ContentType)
	}

	body, err := io.ReadAll(client.lastInput.Body)
	if err != nil {
		t.Fatalf("ボディの読み取りに失敗しました: %v", err)
	}
	if string(body) != "<div>feed</div>" {
		t.Errorf("HTMLがそのまま保存されるべき: %q", string(body))
	}
}

func TestSaveTrimsTrailingSlashFromBaseURL(t *testing.T) {
	publisher := NewS3Publisher(&mockS3Client{}, newTestLogger(), "feeds-bucket", "https://cdn.example/")

	uri, err := publisher.Save(context.Background(), "abc123", "<div></div>")
	if err != nil {
		t.Fatalf("エラーは発生しないべき: %v", err)
	}
	if uri != "https://cdn.example/feeds/abc123.html" {
		t.Errorf("末尾スラッシュは正規化されるべき: %q", uri)
	}
}

func TestSavePropagatesError(t *testing.T) {
	client := &mockS3Client{
		putObjectFunc: func(ctx context.Context, params *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
			return nil, errors.New("access denied")
		},
	}
	publisher := NewS3Publisher(client, newTestLogger(), "feeds-bucket", "https://cdn.example")

	if _, err := publisher.Save(context.Background(), "abc123", "<div></div>"); err == nil {
		t.Error("S3のエラーは伝播されるべき")
	}
}

func TestURLDerivesWithoutStorageAccess(t *testing.T) {
	client := &mockS3Client{}
	publisher := NewS3Publisher(client, newTestLogger(), "feeds-bucket", "https://cdn.example")

	uri := publisher.URL("abc123")
	if uri != "https://cdn.example/feeds/abc123.html" {
		t.Errorf("公開URIが一致しません: %q", uri)
	}
	if client.lastInput != nil {
		t.Error("URLの導出でストレージにアクセスしないべき")
	}
}
