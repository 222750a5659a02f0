// Package render はタイムラインを埋め込み用HTMLへ変換する純粋なレンダラーを提供する。
// I/Oを行わず、入力を変更せず、構造的に欠けたフィールドでpanicしない。
package render

import (
	"html"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hitoshi/skyembed/internal/bsky"
	"github.com/hitoshi/skyembed/internal/richtext"
	"github.com/hitoshi/skyembed/internal/security"
)

// 生成するリンクの基点となるURL。
const (
	siteRoot    = "https://bsky.app"
	profileBase = "https://bsky.app/profile/"
	hashtagBase = "https://bsky.app/hashtag/"
)

// 欠けたフィールドの代替表示値。
const (
	unknownValue = "unknown"
)

// SegmentFunc はfacet付きテキストをセグメントに分割する関数。
// テスト時に差し替え可能。
type SegmentFunc func(text string, facets []bsky.Facet) []richtext.Segment

// Renderer はタイムラインをHTML文字列へ変換する。
// 上流由来のテキストは全てサニタイザを通してから埋め込む。
type Renderer struct {
	sanitizer security.TextSanitizerService
	segment   SegmentFunc
	now       func() time.Time
}

// NewRenderer はRendererの新しいインスタンスを生成する。
func NewRenderer(sanitizer security.TextSanitizerService) *Renderer {
	return &Renderer{
		sanitizer: sanitizer,
		segment:   richtext.Segments,
		now:       time.Now,
	}
}

// RenderTimeline はタイムライン全体をHTMLへ変換する。
// 各項目のHTMLを入力順のまま連結して返す。
// 成功フラグが偽になるのはトップレベルの項目リストが存在しない場合のみで、
// 個々の項目の不備はデフォルト値で埋めて処理を継続する。
func (r *Renderer) RenderTimeline(timeline *bsky.Timeline) (string, bool) {
	if timeline == nil || timeline.Feed == nil {
		return "", false
	}

	var sb strings.Builder
	for i := range timeline.Feed {
		item := &timeline.Feed[i]
		isRepost := item.Reason != nil
		hasQuote := item.Post != nil && item.Post.Embed != nil && item.Post.Embed.Record != nil

		sb.WriteString(r.renderPostBox(item.Post, item.Reason, isRepost, hasQuote))
	}

	return sb.String(), true
}

// renderPostBox はタイムライン項目1件のHTMLを生成する。
// 投稿が無い項目は空文字列になる。
func (r *Renderer) renderPostBox(post *bsky.Post, reason *bsky.Reason, isRepost, hasQuote bool) string {
	if post == nil {
		return ""
	}

	// 本文（facetがあればリッチテキスト化）
	var text string
	var facets []bsky.Facet
	if post.Record != nil {
		text = post.Record.Text
		facets = post.Record.Facets
	}
	textCopy := r.renderText(text, facets)

	// 埋め込みの探索
	images := discoverImages(post.Embed, post.Embeds)
	external := discoverExternal(post.Embed, post.Embeds)

	// 表示値の抽出（欠けたフィールドはデフォルト値で埋める）
	avatar := ""
	userDisplayName := unknownValue
	userHandle := unknownValue
	if post.Author != nil {
		avatar = post.Author.Avatar
		if post.Author.DisplayName != "" {
			userDisplayName = post.Author.DisplayName
		}
		if post.Author.Handle != "" {
			userHandle = post.Author.Handle
		}
	}
	userLink := profileBase + url.PathEscape(userHandle) + "/"
	postURL := postURL(post.URI, userHandle)

	timeLabel := unknownValue
	if post.Record != nil && post.Record.CreatedAt != "" {
		timeLabel = r.formatCreatedAt(post.Record.CreatedAt)
	}

	var sb strings.Builder
	sb.WriteString(`<div class="postcontainer">`)

	if isRepost {
		repostDisplayName := ""
		repostHandle := ""
		if reason != nil && reason.By != nil {
			repostDisplayName = reason.By.DisplayName
			repostHandle = reason.By.Handle
		}
		repostLink := profileBase + url.PathEscape(repostHandle) + "/"
		sb.WriteString(`<div class="repostheader"><a href="` + html.EscapeString(repostLink) + `" target="_blank">`)
		sb.WriteString(repostSVG)
		sb.WriteString(`reposted by ` + r.sanitizer.Sanitize(repostDisplayName) + `</a></div>`)
	}

	sb.WriteString(`<div class="postbox">`)

	// アバター列
	sb.WriteString(`<div class="col avatar"><div class="avatar-img"><a href="` + html.EscapeString(userLink) + `" target="_blank">`)
	if avatar != "" {
		sb.WriteString(`<img src="` + html.EscapeString(avatar) + `" alt="` + html.EscapeString(userHandle) + `'s user avatar" />`)
	} else {
		sb.WriteString(userAvatarSVG)
	}
	sb.WriteString(`</a></div></div>`)

	// 本文列
	sb.WriteString(`<div class="col text">`)
	sb.WriteString(`<div class="textdata"><strong><a href="` + html.EscapeString(userLink) + `" target="_blank"><span>` + r.sanitizer.Sanitize(userDisplayName) + `</span></a></strong> `)
	sb.WriteString(`<span class="handle"><a href="` + html.EscapeString(userLink) + `" target="_blank">` + r.sanitizer.Sanitize(userHandle) + `</a></span> &sdot; `)
	sb.WriteString(`<span class="timeago"><a href="` + html.EscapeString(postURL) + `" target="_blank">` + timeLabel + `</a></span></div>`)
	sb.WriteString(`<div class="textcopy">` + textCopy + `</div>`)

	if len(images) > 0 {
		sb.WriteString(r.renderImages(images, postURL))
	}
	if hasQuote {
		sb.WriteString(r.renderQuoteBox(post.Embed.Record))
	}
	if external != nil {
		sb.WriteString(r.renderLinkCard(external))
	}

	// フッターアイコン
	sb.WriteString(`<div class="icons">`)
	sb.WriteString(`<div class="replies">` + replySVG + `<span class="num">` + countLabel(post.ReplyCount) + `</span></div>`)
	sb.WriteString(`<div class="reposts">` + repostSVG + `<span class="num">` + countLabel(post.RepostCount) + `</span></div>`)
	sb.WriteString(`<div class="likes">` + likeSVG + `<span class="num">` + countLabel(post.LikeCount) + `</span></div>`)
	sb.WriteString(`<div class="empty">&nbsp;</div>`)
	sb.WriteString(`</div>`)

	sb.WriteString(`</div></div></div>`)
	return sb.String()
}

// renderQuoteBox は引用ポストのHTMLを生成する。
// 自己参照形（recordがrecordを包む）はちょうど1段だけ展開し、
// それ以上深い引用には再帰しない。レコードが無ければ空文字列を返す。
func (r *Renderer) renderQuoteBox(record *bsky.QuotedRecord) string {
	if record == nil {
		return ""
	}

	if record.Record != nil {
		record = record.Record
	}

	// 本文はビュー形式（value配下）と生レコード形式（直下）の両方に対応する
	text := record.Text
	if text == "" && record.Value != nil {
		text = record.Value.Text
	}
	textCopy := r.renderText(text, record.Facets)

	images := discoverImages(record.Embed, record.Embeds)
	external := discoverExternal(record.Embed, record.Embeds)

	avatar := ""
	userDisplayName := unknownValue
	userHandle := unknownValue
	if record.Author != nil {
		avatar = record.Author.Avatar
		if record.Author.DisplayName != "" {
			userDisplayName = record.Author.DisplayName
		}
		if record.Author.Handle != "" {
			userHandle = record.Author.Handle
		}
	}
	postURL := postURL(record.URI, userHandle)

	timeLabel := unknownValue
	if record.Value != nil && record.Value.CreatedAt != "" {
		timeLabel = r.formatCreatedAt(record.Value.CreatedAt)
	}

	var sb strings.Builder
	sb.WriteString(`<div class="quotebox"><div class="text">`)
	sb.WriteString(`<div class="header"><span class="avatar">`)
	if avatar != "" {
		sb.WriteString(`<img src="` + html.EscapeString(avatar) + `" alt="` + html.EscapeString(userHandle) + `'s user avatar" />`)
	} else {
		sb.WriteString(userAvatarSVG)
	}
	sb.WriteString(`</span><span class="othertext"><strong><span>` + r.sanitizer.Sanitize(userDisplayName) + `</span></strong> `)
	sb.WriteString(`<span class="handle">` + r.sanitizer.Sanitize(userHandle) + `</span> &sdot; `)
	sb.WriteString(`<span class="timeago">` + timeLabel + `</span></span></div>`)
	sb.WriteString(`<div class="textcopy">` + textCopy + `</div>`)

	if external != nil {
		sb.WriteString(r.renderLinkCard(external))
	}
	if len(images) > 0 {
		sb.WriteString(r.renderImages(images, postURL))
	}

	sb.WriteString(`</div></div>`)
	return sb.String()
}

// renderImages は埋め込み画像群のHTMLを生成する。
func (r *Renderer) renderImages(images []bsky.Image, postURL string) string {
	var sb strings.Builder
	sb.WriteString(`<div class="postimages len-` + strconv.Itoa(len(images)) + `">`)
	for _, img := range images {
		sb.WriteString(`<div class="img"><a href="` + html.EscapeString(postURL) + `" target="_blank">`)
		sb.WriteString(`<img src="` + html.EscapeString(img.Thumb) + `" alt="` + html.EscapeString(img.Alt) + `" />`)
		sb.WriteString(`</a></div>`)
	}
	sb.WriteString(`</div>`)
	return sb.String()
}

// renderLinkCard は外部リンクカードのHTMLを生成する。
func (r *Renderer) renderLinkCard(external *bsky.ExternalLink) string {
	domain := ""
	if parsed, err := url.Parse(external.URI); err == nil {
		domain = parsed.Hostname()
	}

	var sb strings.Builder
	sb.WriteString(`<div class="linkcard"><a href="` + html.EscapeString(external.URI) + `" target="_blank">`)
	if external.Thumb != "" {
		sb.WriteString(`<div class="image"><img src="` + html.EscapeString(string(external.Thumb)) + `" alt="header image - ` + html.EscapeString(external.Title) + `" /></div>`)
	}
	sb.WriteString(`<div class="site">` + r.sanitizer.Sanitize(domain) + `</div>`)
	sb.WriteString(`<div class="text"><strong>` + r.sanitizer.Sanitize(external.Title) + `</strong><br />` + r.sanitizer.Sanitize(external.Description) + `</div>`)
	sb.WriteString(`</a></div>`)
	return sb.String()
}

// renderText は本文をHTMLテキストへ変換する。
// facetがあればセグメント分割し、リンク・メンション・ハッシュタグをアンカーで包む。
// セグメントは元のテキスト順のまま出力される。
func (r *Renderer) renderText(text string, facets []bsky.Facet) string {
	if len(facets) == 0 {
		return r.sanitizer.Sanitize(text)
	}

	var sb strings.Builder
	for _, segment := range r.segment(text, facets) {
		escaped := r.sanitizer.Sanitize(segment.Text)
		switch {
		case segment.IsLink():
			sb.WriteString(`<a href="` + html.EscapeString(segment.Feature.URI) + `" target="_blank">` + escaped + `</a>`)
		case segment.IsMention():
			sb.WriteString(`<a href="` + html.EscapeString(profileBase+segment.Feature.DID) + `" target="_blank">` + escaped + `</a>`)
		case segment.IsTag():
			sb.WriteString(`<a href="` + html.EscapeString(hashtagBase+url.PathEscape(segment.Feature.Tag)) + `" target="_blank">` + escaped + `</a>`)
		default:
			sb.WriteString(escaped)
		}
	}
	return sb.String()
}

// formatCreatedAt はRFC3339のタイムスタンプを相対表記へ変換する。
// パースできない場合は "unknown" を返す。
func (r *Renderer) formatCreatedAt(createdAt string) string {
	t, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return unknownValue
	}
	return FormatRelative(t, r.now())
}

// countLabel はカウント値の表示文字列を返す。0は "0" ではなく空欄で表示する。
func countLabel(n int) string {
	if n > 0 {
		return strconv.Itoa(n)
	}
	return ""
}

// postURL は投稿の正準URLを導出する。
// AT-URIの最後のパスセグメントをレコードキーとして
// プロフィールURL配下に合成する。URIが無ければサイトルートを返す。
func postURL(uri, handle string) string {
	if uri == "" {
		return siteRoot
	}
	segments := strings.Split(uri, "/")
	rkey := segments[len(segments)-1]
	if handle == "" {
		handle = unknownValue
	}
	return profileBase + url.PathEscape(handle) + "/post/" + url.PathEscape(rkey)
}
