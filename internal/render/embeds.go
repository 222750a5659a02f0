package render

import "github.com/hitoshi/skyembed/internal/bsky"

// 上流は同じ論理的な「埋め込み画像」を最大3箇所の異なる深さで返す。
// 抽出戦略を優先順に並べ、最初に空でない結果を返した戦略を採用することで、
// 上流の揺らぎへの対応を1箇所に集約する。

// discoverImages は投稿の埋め込み画像を優先順に探索して返す。
// 優先順位: embed直下 → embedのmedia配下 → 並列embedsリスト内。
// どこにも無ければnilを返す（エラーにはしない）。
func discoverImages(embed *bsky.Embed, embeds []*bsky.Embed) []bsky.Image {
	strategies := []func() []bsky.Image{
		func() []bsky.Image {
			if embed != nil {
				return embed.Images
			}
			return nil
		},
		func() []bsky.Image {
			if embed != nil && embed.Media != nil {
				return embed.Media.Images
			}
			return nil
		},
		func() []bsky.Image {
			for _, e := range embeds {
				if e == nil {
					continue
				}
				if len(e.Images) > 0 {
					return e.Images
				}
				if e.Media != nil && len(e.Media.Images) > 0 {
					return e.Media.Images
				}
			}
			return nil
		},
	}

	for _, strategy := range strategies {
		if images := strategy(); len(images) > 0 {
			return images
		}
	}
	return nil
}

// discoverExternal は外部リンクカードを優先順に探索して返す。
// 画像探索とは独立しており、1つの投稿が画像とリンクカードの両方を持つことがある。
// どこにも無ければnilを返す。
func discoverExternal(embed *bsky.Embed, embeds []*bsky.Embed) *bsky.ExternalLink {
	strategies := []func() *bsky.ExternalLink{
		func() *bsky.ExternalLink {
			if embed != nil {
				return embed.External
			}
			return nil
		},
		func() *bsky.ExternalLink {
			if embed != nil && embed.Media != nil {
				return embed.Media.External
			}
			return nil
		},
		func() *bsky.ExternalLink {
			for _, e := range embeds {
				if e == nil {
					continue
				}
				if e.External != nil {
					return e.External
				}
				if e.Media != nil && e.Media.External != nil {
					return e.Media.External
				}
			}
			return nil
		},
	}

	for _, strategy := range strategies {
		if external := strategy(); external != nil {
			return external
		}
	}
	return nil
}
