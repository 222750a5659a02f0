// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: validation, feed, upstream, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeSubjectRequired  = "SUBJECT_REQUIRED"
	ErrCodeSubjectNotFound  = "SUBJECT_NOT_FOUND"
	ErrCodeUpstreamFailed   = "UPSTREAM_FAILED"
	ErrCodeRenderFailed     = "RENDER_FAILED"
	ErrCodePublishFailed    = "PUBLISH_FAILED"
	ErrCodeUnauthorizedFeed = "UNAUTHORIZED_FEED"
)

// NewSubjectRequiredError はハンドル未指定エラーを生成する。
func NewSubjectRequiredError() *APIError {
	return &APIError{
		Code:     ErrCodeSubjectRequired,
		Message:  "BlueSkyハンドルが指定されていません。",
		Category: "validation",
		Action:   "パスパラメータにBlueSkyハンドルを指定してください。",
	}
}

// NewSubjectNotFoundError はBlueSky上にアカウントが存在しない場合のエラーを生成する。
func NewSubjectNotFoundError(subjectID string) *APIError {
	return &APIError{
		Code:     ErrCodeSubjectNotFound,
		Message:  fmt.Sprintf("指定されたBlueSkyアカウントが見つかりません: %s", subjectID),
		Category: "feed",
		Action:   "ハンドルが正しいか確認してください。",
	}
}

// NewUpstreamFailedError はBlueSky APIの呼び出し失敗エラーを生成する。
func NewUpstreamFailedError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeUpstreamFailed,
		Message:  fmt.Sprintf("BlueSky APIの呼び出しに失敗しました: %s", reason),
		Category: "upstream",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewRenderFailedError はHTML生成失敗エラーを生成する。
func NewRenderFailedError() *APIError {
	return &APIError{
		Code:     ErrCodeRenderFailed,
		Message:  "フィードHTMLの生成に失敗しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewPublishFailedError はCDN保存失敗エラーを生成する。
func NewPublishFailedError() *APIError {
	return &APIError{
		Code:     ErrCodePublishFailed,
		Message:  "フィードHTMLのCDN保存に失敗しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewUnauthorizedFeedError は認証済みユーザー限定タイムラインのエラーを生成する。
func NewUnauthorizedFeedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorizedFeed,
		Message:  "このユーザーのタイムラインは認証済みユーザーにのみ公開されています。",
		Category: "feed",
		Action:   "タイムラインの公開設定を確認してください。",
	}
}
