// Package richtext はfacet付き投稿本文のセグメント分割を提供する。
// facetはUTF-8バイト範囲でテキストに注釈を付けるため、分割もバイト単位で行う。
package richtext

import (
	"sort"

	"github.com/hitoshi/skyembed/internal/bsky"
)

// Segment は本文テキストの連続した一部分を表す。
// Featureがnilの場合はプレーンテキスト、そうでなければ
// リンク・メンション・ハッシュタグのいずれかを表す。
type Segment struct {
	Text    string
	Feature *bsky.FacetFeature
}

// IsLink はセグメントが外部リンクかを返す。
func (s Segment) IsLink() bool {
	return s.Feature != nil && s.Feature.Type == bsky.FacetTypeLink
}

// IsMention はセグメントがメンションかを返す。
func (s Segment) IsMention() bool {
	return s.Feature != nil && s.Feature.Type == bsky.FacetTypeMention
}

// IsTag はセグメントがハッシュタグかを返す。
func (s Segment) IsTag() bool {
	return s.Feature != nil && s.Feature.Type == bsky.FacetTypeTag
}

// Segments は本文テキストをfacet境界で分割し、元の並び順のまま返す。
// 分割結果を連結すると必ず元のテキストに一致する（隙間も重複もない）。
// 範囲が不正なfacet（テキスト範囲外、長さゼロ、前のfacetと重複）は無視する。
// facetがない場合はテキスト全体を1つのプレーンセグメントとして返す。
func Segments(text string, facets []bsky.Facet) []Segment {
	if len(facets) == 0 {
		return []Segment{{Text: text}}
	}

	// 元のスライスを変更しないようコピーしてからバイト開始位置でソートする
	sorted := make([]bsky.Facet, len(facets))
	copy(sorted, facets)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Index.ByteStart < sorted[j].Index.ByteStart
	})

	var segments []Segment
	cursor := 0

	for _, facet := range sorted {
		start := facet.Index.ByteStart
		end := facet.Index.ByteEnd

		// 不正な範囲・重複範囲はプレーンテキストとして残す
		if start < cursor || end <= start || end > len(text) {
			continue
		}

		if start > cursor {
			segments = append(segments, Segment{Text: text[cursor:start]})
		}

		segments = append(segments, Segment{
			Text:    text[start:end],
			Feature: primaryFeature(facet.Features),
		})
		cursor = end
	}

	if cursor < len(text) {
		segments = append(segments, Segment{Text: text[cursor:]})
	}

	if len(segments) == 0 {
		return []Segment{{Text: text}}
	}
	return segments
}

// primaryFeature は既知の種別を持つ最初のfeatureを返す。該当がなければnil。
func primaryFeature(features []bsky.FacetFeature) *bsky.FacetFeature {
	for i := range features {
		switch features[i].Type {
		case bsky.FacetTypeLink, bsky.FacetTypeMention, bsky.FacetTypeTag:
			return &features[i]
		}
	}
	return nil
}
