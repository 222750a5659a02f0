package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

// newTestRateLimiter はテスト用の短いバーストを持つRateLimiterを生成する。
func newTestRateLimiter(t *testing.T, generalBurst, createBurst int) *RateLimiter {
	t.Helper()

	rl := NewRateLimiter(RateLimiterConfig{
		GeneralRate:     rate.Limit(1.0 / 60.0), // テスト中の補充を事実上無効化
		GeneralBurst:    generalBurst,
		CreateRate:      rate.Limit(1.0 / 60.0),
		CreateBurst:     createBurst,
		CleanupInterval: time.Hour,
	})
	t.Cleanup(rl.Stop)
	return rl
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func doRequest(handler http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/feeds/lookup/alice.bsky.social", nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

// TestGeneralMiddleware_AllowsWithinBurst はバースト内のリクエストが通過することを検証する。
func TestGeneralMiddleware_AllowsWithinBurst(t *testing.T) {
	rl := newTestRateLimiter(t, 3, 3)
	handler := rl.GeneralMiddleware()(okHandler())

	for i := 0; i < 3; i++ {
		if rec := doRequest(handler, "203.0.113.1:1234"); rec.Code != http.StatusOK {
			t.Errorf("バースト内のリクエスト%dは通過すべき: got %d", i+1, rec.Code)
		}
	}
}

// TestGeneralMiddleware_RejectsOverBurst はバーストを超えたリクエストが429になることを検証する。
func TestGeneralMiddleware_RejectsOverBurst(t *testing.T) {
	rl := newTestRateLimiter(t, 2, 2)
	handler := rl.GeneralMiddleware()(okHandler())

	doRequest(handler, "203.0.113.1:1234")
	doRequest(handler, "203.0.113.1:1234")
	rec := doRequest(handler, "203.0.113.1:1234")

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("バースト超過は429になるべき: got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("429レスポンスにはRetry-Afterヘッダーが付与されるべき")
	}
}

// TestGeneralMiddleware_IsolatesClients はクライアントIPごとに独立して制限されることを検証する。
func TestGeneralMiddleware_IsolatesClients(t *testing.T) {
	rl := newTestRateLimiter(t, 1, 1)
	handler := rl.GeneralMiddleware()(okHandler())

	doRequest(handler, "203.0.113.1:1234")
	if rec := doRequest(handler, "203.0.113.1:1234"); rec.Code != http.StatusTooManyRequests {
		t.Errorf("同一IPの2回目は429になるべき: got %d", rec.Code)
	}

	// 別のIPは独立したリミッターを持つ
	if rec := doRequest(handler, "203.0.113.2:5678"); rec.Code != http.StatusOK {
		t.Errorf("別IPのリクエストは通過すべき: got %d", rec.Code)
	}
}

// TestCreateMiddleware_StricterThanGeneral はフィード作成のリミッターが独立して動作することを検証する。
func TestCreateMiddleware_StricterThanGeneral(t *testing.T) {
	rl := newTestRateLimiter(t, 10, 1)
	general := rl.GeneralMiddleware()(okHandler())
	create := rl.CreateMiddleware()(okHandler())

	doRequest(create, "203.0.113.1:1234")
	if rec := doRequest(create, "203.0.113.1:1234"); rec.Code != http.StatusTooManyRequests {
		t.Errorf("作成リミッターのバースト超過は429になるべき: got %d", rec.Code)
	}

	// 作成リミッターの消費はAPI全般リミッターに影響しない
	if rec := doRequest(general, "203.0.113.1:1234"); rec.Code != http.StatusOK {
		t.Errorf("API全般のリクエストは通過すべき: got %d", rec.Code)
	}
}

// TestClientIPFromForwardedHeader はX-Forwarded-Forの先頭エントリがキーになることを検証する。
func TestClientIPFromForwardedHeader(t *testing.T) {
	rl := newTestRateLimiter(t, 1, 1)
	handler := rl.GeneralMiddleware()(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/feeds/lookup/alice.bsky.social", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	req.Header.Set("X-Forwarded-For", "198.51.100.7, 10.0.0.1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	req2 := httptest.NewRequest(http.MethodGet, "/api/feeds/lookup/alice.bsky.social", nil)
	req2.RemoteAddr = "10.0.0.2:5678" // 接続元が違ってもXFFが同じなら同一クライアント
	req2.Header.Set("X-Forwarded-For", "198.51.100.7")
	rec2 := httptest.NewRecorder()
	handler.ServeHTTP(rec2, req2)

	if rec2.Code != http.StatusTooManyRequests {
		t.Errorf("同一のX-Forwarded-Forは同一クライアントとして制限されるべき: got %d", rec2.Code)
	}
}

// TestLimiterCounts はクライアントごとのリミッターエントリが作成されることを検証する。
func TestLimiterCounts(t *testing.T) {
	rl := newTestRateLimiter(t, 5, 5)
	handler := rl.GeneralMiddleware()(okHandler())

	doRequest(handler, "203.0.113.1:1234")
	doRequest(handler, "203.0.113.2:1234")
	doRequest(handler, "203.0.113.1:9999") // 同一IP、別ポート

	if got := rl.GeneralLimiterCount(); got != 2 {
		t.Errorf("リミッターはIPごとに1つ作成されるべき: got %d", got)
	}
	if got := rl.CreateLimiterCount(); got != 0 {
		t.Errorf("作成リミッターは未使用のため0になるべき: got %d", got)
	}
}
