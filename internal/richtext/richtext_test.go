package richtext

import (
	"strings"
	"testing"

	"github.com/hitoshi/skyembed/internal/bsky"
)

// concat はセグメント列を連結して元テキストを復元する。
func concat(segments []Segment) string {
	var sb strings.Builder
	for _, s := range segments {
		sb.WriteString(s.Text)
	}
	return sb.String()
}

func TestSegmentsNoFacets(t *testing.T) {
	segments := Segments("hello world", nil)

	if len(segments) != 1 {
		t.Fatalf("facetなしの場合はセグメントが1つになるべき: got %d", len(segments))
	}
	if segments[0].Text != "hello world" || segments[0].Feature != nil {
		t.Errorf("プレーンセグメントが返るべき: %+v", segments[0])
	}
}

func TestSegmentsSplitAndOrder(t *testing.T) {
	// "see https://a.example and @bob" のリンクとメンション
	text := "see https://a.example and @bob"
	facets := []bsky.Facet{
		{
			Index:    bsky.ByteSlice{ByteStart: 4, ByteEnd: 21},
			Features: []bsky.FacetFeature{{Type: bsky.FacetTypeLink, URI: "https://a.example"}},
		},
		{
			Index:    bsky.ByteSlice{ByteStart: 26, ByteEnd: 30},
			Features: []bsky.FacetFeature{{Type: bsky.FacetTypeMention, DID: "did:plc:bob"}},
		},
	}

	segments := Segments(text, facets)

	if concat(segments) != text {
		t.Errorf("セグメントの連結は元テキストに一致すべき: got %q", concat(segments))
	}
	if len(segments) != 4 {
		t.Fatalf("セグメント数が一致しません: got %d, want 4", len(segments))
	}
	if !segments[1].IsLink() || segments[1].Text != "https://a.example" {
		t.Errorf("2番目のセグメントはリンクであるべき: %+v", segments[1])
	}
	if !segments[3].IsMention() || segments[3].Text != "@bob" {
		t.Errorf("4番目のセグメントはメンションであるべき: %+v", segments[3])
	}
}

func TestSegmentsUnsortedFacets(t *testing.T) {
	// facetが逆順で与えられてもバイト開始位置順に処理される
	text := "aa bb cc"
	facets := []bsky.Facet{
		{
			Index:    bsky.ByteSlice{ByteStart: 6, ByteEnd: 8},
			Features: []bsky.FacetFeature{{Type: bsky.FacetTypeTag, Tag: "cc"}},
		},
		{
			Index:    bsky.ByteSlice{ByteStart: 0, ByteEnd: 2},
			Features: []bsky.FacetFeature{{Type: bsky.FacetTypeTag, Tag: "aa"}},
		},
	}

	segments := Segments(text, facets)

	if concat(segments) != text {
		t.Errorf("セグメントの連結は元テキストに一致すべき: got %q", concat(segments))
	}
	if !segments[0].IsTag() || segments[0].Text != "aa" {
		t.Errorf("先頭セグメントはaaタグであるべき: %+v", segments[0])
	}

	// 入力スライスは変更されない
	if facets[0].Index.ByteStart != 6 {
		t.Error("入力facetスライスが変更されています")
	}
}

func TestSegmentsInvalidRanges(t *testing.T) {
	text := "short"

	tests := []struct {
		name  string
		facet bsky.Facet
	}{
		{"範囲外", bsky.Facet{Index: bsky.ByteSlice{ByteStart: 2, ByteEnd: 100}}},
		{"長さゼロ", bsky.Facet{Index: bsky.ByteSlice{ByteStart: 2, ByteEnd: 2}}},
		{"負の開始位置", bsky.Facet{Index: bsky.ByteSlice{ByteStart: -1, ByteEnd: 3}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			segments := Segments(text, []bsky.Facet{tt.facet})
			if concat(segments) != text {
				t.Errorf("不正範囲でも元テキストが保たれるべき: got %q", concat(segments))
			}
			for _, s := range segments {
				if s.Feature != nil {
					t.Errorf("不正範囲のfacetは無視されるべき: %+v", s)
				}
			}
		})
	}
}

func TestSegmentsOverlappingFacets(t *testing.T) {
	text := "0123456789"
	facets := []bsky.Facet{
		{
			Index:    bsky.ByteSlice{ByteStart: 0, ByteEnd: 5},
			Features: []bsky.FacetFeature{{Type: bsky.FacetTypeLink, URI: "https://a.example"}},
		},
		// 前のfacetと重複する範囲は無視される
		{
			Index:    bsky.ByteSlice{ByteStart: 3, ByteEnd: 8},
			Features: []bsky.FacetFeature{{Type: bsky.FacetTypeLink, URI: "https://b.example"}},
		},
	}

	segments := Segments(text, facets)

	if concat(segments) != text {
		t.Errorf("重複facetでも元テキストが保たれるべき: got %q", concat(segments))
	}

	linkCount := 0
	for _, s := range segments {
		if s.IsLink() {
			linkCount++
		}
	}
	if linkCount != 1 {
		t.Errorf("重複facetは1つだけ採用されるべき: got %d", linkCount)
	}
}

func TestSegmentsUnknownFeatureType(t *testing.T) {
	text := "hello world"
	facets := []bsky.Facet{
		{
			Index:    bsky.ByteSlice{ByteStart: 0, ByteEnd: 5},
			Features: []bsky.FacetFeature{{Type: "app.bsky.richtext.facet#unknown"}},
		},
	}

	segments := Segments(text, facets)

	if concat(segments) != text {
		t.Errorf("セグメントの連結は元テキストに一致すべき: got %q", concat(segments))
	}
	// 未知の種別はプレーンテキスト扱い（Featureなし）
	if segments[0].Feature != nil {
		t.Errorf("未知のfeature種別はプレーン扱いになるべき: %+v", segments[0])
	}
}

func TestSegmentsMultibyteText(t *testing.T) {
	// facetの範囲はUTF-8バイト単位（日本語は1文字3バイト）
	text := "こんにちは #tag"
	facets := []bsky.Facet{
		{
			Index:    bsky.ByteSlice{ByteStart: 16, ByteEnd: 20},
			Features: []bsky.FacetFeature{{Type: bsky.FacetTypeTag, Tag: "tag"}},
		},
	}

	segments := Segments(text, facets)

	if concat(segments) != text {
		t.Errorf("マルチバイトテキストでも連結が一致すべき: got %q", concat(segments))
	}
	last := segments[len(segments)-1]
	if !last.IsTag() || last.Text != "#tag" {
		t.Errorf("末尾セグメントはハッシュタグであるべき: %+v", last)
	}
}
