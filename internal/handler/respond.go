// Package handler はHTTP APIのハンドラーとルーティングを提供する。
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/skyembed/internal/model"
)

// envelope は全APIレスポンス共通のエンベロープ。
// 成功時はdataに本体を、失敗時はmessageとerrorMessagesに内容を設定する。
type envelope struct {
	Data          any      `json:"data"`
	Message       string   `json:"message"`
	ErrorMessages []string `json:"errorMessages"`
}

// writeJSONResponse はエンベロープ形式で成功レスポンスを書き込む。
func writeJSONResponse(w http.ResponseWriter, statusCode int, data any, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(envelope{
		Data:          data,
		Message:       message,
		ErrorMessages: []string{},
	})
}

// writeAPIErrorResponse はエンベロープ形式でエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(envelope{
		Data:          nil,
		Message:       apiErr.Message,
		ErrorMessages: []string{apiErr.Code},
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeSubjectRequired:
		return http.StatusBadRequest
	case model.ErrCodeSubjectNotFound:
		return http.StatusNotFound
	case model.ErrCodeUnauthorizedFeed:
		return http.StatusForbidden
	case model.ErrCodeUpstreamFailed:
		return http.StatusBadGateway
	case model.ErrCodeRenderFailed, model.ErrCodePublishFailed:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
