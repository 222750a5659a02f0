package handler

import (
	"context"
	"net/http"
	"time"
)

// DBPinger はヘルスチェックが必要とするデータベース接続確認のインターフェース。
type DBPinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler はヘルスチェックのHTTPハンドラー。
type HealthHandler struct {
	db DBPinger
}

// NewHealthHandler はHealthHandlerを生成する。
func NewHealthHandler(db DBPinger) *HealthHandler {
	return &HealthHandler{db: db}
}

// healthResponse はヘルスチェックのAPIレスポンス。
type healthResponse struct {
	Status string `json:"status"`
}

// Health はヘルスチェックを処理する。
// GET /health
// データベースへの疎通が取れない場合は503を返す。
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		writeJSONResponse(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable"}, "データベースに接続できません。")
		return
	}

	writeJSONResponse(w, http.StatusOK, healthResponse{Status: "ok"}, "")
}
