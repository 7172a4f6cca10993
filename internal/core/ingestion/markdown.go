package ingestion

import "regexp"

var (
	// YAMLフロントマター（ファイル先頭の --- 区切り）
	frontmatterPattern = regexp.MustCompile(`(?s)^---\n.*?\n---\n`)

	// 最初のH1見出し
	titlePattern = regexp.MustCompile(`(?m)^# (.+)$`)
)

// parseMarkdown はフロントマターを取り除き、最初のH1をタイトルとして抽出します。
// H1が無い場合のタイトルは "Untitled"
func parseMarkdown(content string) (title, body string) {
	body = content
	if loc := frontmatterPattern.FindStringIndex(body); loc != nil {
		body = body[loc[1]:]
	}

	title = "Untitled"
	if m := titlePattern.FindStringSubmatch(body); m != nil {
		title = m[1]
	}

	return title, body
}
