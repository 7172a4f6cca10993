package chat

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/SaweraMunawar/AI-Native-Book-backend/internal/core/retrieval"
)

// excerptMaxChars は引用抜粋の最大文字数
const excerptMaxChars = 200

// buildSources は検索結果を引用オブジェクト列に変換します。入力順を保持する
func buildSources(results []retrieval.Result) []Source {
	sources := make([]Source, 0, len(results))
	for _, r := range results {
		src := Source{
			ChapterSlug:  r.ChapterSlug,
			ChapterTitle: retrieval.ChapterTitle(r.ChapterSlug),
			Excerpt:      truncateExcerpt(r.ChunkText),
			Score:        roundScore(r.Score),
		}
		if sectionID, ok := r.SectionID.Get(); ok {
			src.SectionID = sectionID
			src.SectionTitle = sectionTitle(sectionID)
		}
		sources = append(sources, src)
	}
	return sources
}

// sectionTitle は "chapter#heading-slug" 形式から見出しの表示名を導出します。
// "#" を含まないセクションIDにはタイトルを付けない
func sectionTitle(sectionID string) string {
	_, heading, found := strings.Cut(sectionID, "#")
	if !found {
		return ""
	}
	return retrieval.HumanizeSlug(heading)
}

// truncateExcerpt は抜粋を最大200文字（コードポイント数）に切り詰めます。
// マルチバイト文字の途中で切らない
func truncateExcerpt(text string) string {
	if utf8.RuneCountInString(text) <= excerptMaxChars {
		return text
	}
	runes := []rune(text)
	return string(runes[:excerptMaxChars])
}

// roundScore はスコアを小数第3位に丸めます
func roundScore(score float64) float64 {
	return math.Round(score*1000) / 1000
}
