package bsky

import (
	"errors"
	"fmt"
)

// XRPCError はBlueSky API（XRPC）が返す型付きエラーを表す。
// ErrorNameはレスポンスボディのerrorフィールドの値。
type XRPCError struct {
	StatusCode int
	ErrorName  string
	Message    string
}

// Error はerrorインターフェースを実装する。
func (e *XRPCError) Error() string {
	return fmt.Sprintf("bsky API error %d %s: %s", e.StatusCode, e.ErrorName, e.Message)
}

// errInvalidRequest は存在しない・解決できないアカウントを示す上流のエラー名。
const errInvalidRequest = "InvalidRequest"

// IsSubjectNotFound は指定アカウントが上流で解決できないエラーかを返す。
// このエラー種別のみがキャッシュエントリの削除を引き起こす。
// それ以外の型付きエラー（レート制限など）は一時的な可能性があるため削除してはならない。
func IsSubjectNotFound(err error) bool {
	var xrpcErr *XRPCError
	if errors.As(err, &xrpcErr) {
		return xrpcErr.ErrorName == errInvalidRequest
	}
	return false
}
