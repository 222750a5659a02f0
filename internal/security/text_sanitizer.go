// Package security はアプリケーションのセキュリティ機能を提供する。
//
// TextSanitizerService は上流から受け取った投稿本文・表示名などの
// 文字列をHTMLに埋め込む前に無害化し、XSS攻撃からビューアを保護する。
// bluemondayのStrictPolicyを使用し、あらゆるタグを除去した上で
// 特殊文字をエンティティにエスケープする。
package security

import (
	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizerService は上流由来テキストの無害化機能のインターフェースを定義する。
// レンダラーがHTMLテキストノードへ文字列を埋め込む直前に使用する。
type TextSanitizerService interface {
	// Sanitize はテキストからHTMLタグを全て除去し、特殊文字をエスケープして返す。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string
}

// textSanitizer はTextSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerServiceの新しいインスタンスを生成する。
// StrictPolicyは許可タグを一切持たないため、scriptやimgを含む
// あらゆるマークアップがテキストから除去される。
func NewTextSanitizer() *textSanitizer {
	return &textSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize はテキストからHTMLタグを全て除去し、特殊文字をエスケープして返す。
func (s *textSanitizer) Sanitize(raw string) string {
	return s.policy.Sanitize(raw)
}
