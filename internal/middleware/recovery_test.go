package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// TestRecoveryMiddleware_CatchesPanic はpanicが500レスポンスに変換されることを検証する。
func TestRecoveryMiddleware_CatchesPanic(t *testing.T) {
	handler := NewRecoveryMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("something broke")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/feeds/lookup/alice.bsky.social", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("panicは500に変換されるべき: got %d", rec.Code)
	}

	var body struct {
		Data          any      `json:"data"`
		Message       string   `json:"message"`
		ErrorMessages []string `json:"errorMessages"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("レスポンスはエンベロープ形式のJSONになるべき: %v", err)
	}
	if body.Data != nil {
		t.Error("エラー時のdataはnullになるべき")
	}
	if len(body.ErrorMessages) == 0 {
		t.Error("errorMessagesが空でないべき")
	}
}

// TestRecoveryMiddleware_PassesThroughNormally はpanicがない場合に影響しないことを検証する。
func TestRecoveryMiddleware_PassesThroughNormally(t *testing.T) {
	handler := NewRecoveryMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/feeds/lookup/alice.bsky.social", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("正常時はそのまま通過すべき: got %d", rec.Code)
	}
	if rec.Body.String() != "ok" {
		t.Errorf("レスポンスボディが変更されないべき: %q", rec.Body.String())
	}
}
