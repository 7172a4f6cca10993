package chunk

import (
	"regexp"
	"strings"
)

var (
	// サブ見出し (## 以深) の先頭一致
	headingPattern = regexp.MustCompile(`(?m)^##+ (.+)$`)

	nonWordPattern    = regexp.MustCompile(`[^\w\s-]`)
	whitespacePattern = regexp.MustCompile(`[\s_]+`)
)

// SectionID はチャンク本文から "chapter#heading" 形式のセクション識別子を導出します。
// チャンク内に最初に現れるMarkdownサブ見出しをスラグ化して章スラグに連結する。
// 見出しが無い場合は章スラグをそのまま返す。
func SectionID(text, chapterSlug string) string {
	m := headingPattern.FindStringSubmatch(text)
	if m == nil {
		return chapterSlug
	}
	return chapterSlug + "#" + Slugify(m[1])
}

// Slugify は見出しテキストをURLセーフなスラグに変換します。
// 小文字化し、単語文字・空白・ハイフン以外を除去して空白とアンダースコアをハイフンに畳む
func Slugify(heading string) string {
	slug := strings.ToLower(heading)
	slug = nonWordPattern.ReplaceAllString(slug, "")
	slug = whitespacePattern.ReplaceAllString(slug, "-")
	return slug
}
