// Package bsky はBlueSky公開APIのクライアントとタイムラインのデータ型を提供する。
package bsky

import "encoding/json"

// Timeline はapp.bsky.feed.getAuthorFeedが返すタイムラインを表す。
// Feedの並び順は上流が決めたもの（新しい順）であり、受け取った側は並べ替えない。
type Timeline struct {
	Feed   []TimelineItem `json:"feed"`
	Cursor string         `json:"cursor,omitempty"`
}

// TimelineItem はタイムライン上の1件を表す。リポストの場合はReasonが付く。
type TimelineItem struct {
	Post   *Post   `json:"post"`
	Reason *Reason `json:"reason,omitempty"`
}

// Reason はタイムラインに項目が現れた理由（リポスト）を表す。
type Reason struct {
	Type string `json:"$type,omitempty"`
	By   *Actor `json:"by,omitempty"`
}

// Actor はBlueSkyのアカウントを表す。
type Actor struct {
	DID         string  `json:"did"`
	Handle      string  `json:"handle"`
	DisplayName string  `json:"displayName,omitempty"`
	Avatar      string  `json:"avatar,omitempty"`
	Labels      []Label `json:"labels,omitempty"`
}

// Label はアカウントやコンテンツに付与されるモデレーションラベルを表す。
type Label struct {
	Val string `json:"val"`
}

// LabelNoUnauthenticated は認証済みユーザーにのみタイムラインを
// 公開する設定を示すラベル値。
const LabelNoUnauthenticated = "!no-unauthenticated"

// Post は投稿のビューを表す。
type Post struct {
	URI         string   `json:"uri"`
	CID         string   `json:"cid,omitempty"`
	Author      *Actor   `json:"author,omitempty"`
	Record      *Record  `json:"record,omitempty"`
	Embed       *Embed   `json:"embed,omitempty"`
	Embeds      []*Embed `json:"embeds,omitempty"`
	LikeCount   int      `json:"likeCount,omitempty"`
	ReplyCount  int      `json:"replyCount,omitempty"`
	RepostCount int      `json:"repostCount,omitempty"`
}

// Record は投稿の本文レコードを表す。
type Record struct {
	Text      string  `json:"text,omitempty"`
	CreatedAt string  `json:"createdAt,omitempty"`
	Facets    []Facet `json:"facets,omitempty"`
}

// Facet は本文テキストのバイト範囲に付与される注釈（リンク・メンション・ハッシュタグ）を表す。
type Facet struct {
	Index    ByteSlice      `json:"index"`
	Features []FacetFeature `json:"features"`
}

// ByteSlice は本文テキストのUTF-8バイト範囲を表す。ByteEndは排他的。
type ByteSlice struct {
	ByteStart int `json:"byteStart"`
	ByteEnd   int `json:"byteEnd"`
}

// facetの$type値。
const (
	FacetTypeLink    = "app.bsky.richtext.facet#link"
	FacetTypeMention = "app.bsky.richtext.facet#mention"
	FacetTypeTag     = "app.bsky.richtext.facet#tag"
)

// FacetFeature はfacetの種別と参照先を表す。
type FacetFeature struct {
	Type string `json:"$type"`
	URI  string `json:"uri,omitempty"` // link
	DID  string `json:"did,omitempty"` // mention
	Tag  string `json:"tag,omitempty"` // hashtag
}

// Embed は投稿の埋め込みを表す閉じたバリアント。
// 上流は画像・外部リンク・引用レコード・それらの複合のいずれかを返すが、
// 複合の場合はMediaキーの下に画像が入れ子になることがある。
type Embed struct {
	Type     string        `json:"$type,omitempty"`
	Images   []Image       `json:"images,omitempty"`
	Media    *Embed        `json:"media,omitempty"`
	External *ExternalLink `json:"external,omitempty"`
	Record   *QuotedRecord `json:"record,omitempty"`
}

// Image は埋め込み画像を表す。
type Image struct {
	Thumb       string       `json:"thumb,omitempty"`
	FullSize    string       `json:"fullsize,omitempty"`
	Alt         string       `json:"alt,omitempty"`
	AspectRatio *AspectRatio `json:"aspectRatio,omitempty"`
}

// AspectRatio は画像のアスペクト比を表す。
type AspectRatio struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ExternalLink は外部リンクカードの埋め込みを表す。
type ExternalLink struct {
	URI         string `json:"uri"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Thumb       Thumb  `json:"thumb,omitempty"`
}

// Thumb はリンクカードのサムネイルを表す。
// ビューでは文字列URI、生レコードでは{uri: ...}形式のオブジェクトで返ることがあるため、
// どちらの形にも対応する。URIを持たない形（blob参照など）は空文字列として扱う。
type Thumb string

// UnmarshalJSON は文字列とオブジェクトの両形をデコードする。
func (t *Thumb) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Thumb(s)
		return nil
	}

	var obj struct {
		URI string `json:"uri"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		// blob参照などURIを持たない形はサムネイルなしとして扱う
		*t = ""
		return nil
	}
	*t = Thumb(obj.URI)
	return nil
}

// QuotedRecord は引用ポストの埋め込みレコードを表す。
// 自己参照形（recordがさらにrecordを包む）の場合があるため、
// レンダリング前に1段だけ展開する必要がある。
type QuotedRecord struct {
	Record *QuotedRecord `json:"record,omitempty"`

	URI    string `json:"uri,omitempty"`
	Author *Actor `json:"author,omitempty"`

	// Value はビュー形式での本文レコード。TextとFacetsは生レコード形式で現れる。
	Value  *Record `json:"value,omitempty"`
	Text   string  `json:"text,omitempty"`
	Facets []Facet `json:"facets,omitempty"`

	Embed  *Embed   `json:"embed,omitempty"`
	Embeds []*Embed `json:"embeds,omitempty"`
}

// EffectiveAuthor はタイムライン項目の実効的な作者を返す。
// リポストの場合はリポストした側、それ以外は投稿の作者を返す。どちらも無ければnil。
func (i *TimelineItem) EffectiveAuthor() *Actor {
	if i == nil {
		return nil
	}
	if i.Reason != nil && i.Reason.By != nil {
		return i.Reason.By
	}
	if i.Post != nil {
		return i.Post.Author
	}
	return nil
}

// HasLabel は指定ラベル値が付与されているかを返す。
func (a *Actor) HasLabel(val string) bool {
	if a == nil {
		return false
	}
	for _, label := range a.Labels {
		if label.Val == val {
			return true
		}
	}
	return false
}

// IsUnauthenticatedOnly はタイムラインが認証済みユーザー限定かを返す。
// 先頭項目の実効的な作者に!no-unauthenticatedラベルが付いている場合に真となる。
// レンダリング前に呼び出し側が適用する契約であり、真の場合はレンダリングしない。
func IsUnauthenticatedOnly(timeline *Timeline) bool {
	if timeline == nil || len(timeline.Feed) == 0 {
		return false
	}
	return timeline.Feed[0].EffectiveAuthor().HasLabel(LabelNoUnauthenticated)
}
