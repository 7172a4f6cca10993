// Package retrieval はクエリの埋め込み・ベクトル検索・確信度分類を担います。
package retrieval

import "github.com/samber/mo"

// Result はベクトル検索の1ヒットをペイロードから復元したもの。
// スコア降順の並びはベクトルストア側の保証をそのまま信頼し、再ソートしない
type Result struct {
	ChunkText   string
	ChapterSlug string
	SectionID   mo.Option[string]
	ChunkIndex  int
	Score       float64
	StartChar   int
	EndChar     int
}

// Filter はペイロードフィールドの完全一致フィルタ
type Filter struct {
	Field string
	Value string
}

// ScoredPoint はベクトルストアが返す生のヒット
type ScoredPoint struct {
	Score   float64
	Payload map[string]any
}

// ChapterFilter は chapter_slug ペイロードへの完全一致フィルタを作成します
func ChapterFilter(slug string) Filter {
	return Filter{Field: "chapter_slug", Value: slug}
}

// resultFromPayload はヒットのペイロードを Result に写します。
// 欠落フィールドは既定値で補う (chapter_slug→"unknown"、数値→0、section_id→なし)
func resultFromPayload(score float64, payload map[string]any) Result {
	r := Result{
		ChapterSlug: "unknown",
		Score:       score,
	}

	if v, ok := payload["chunk_text"].(string); ok {
		r.ChunkText = v
	}
	if v, ok := payload["chapter_slug"].(string); ok && v != "" {
		r.ChapterSlug = v
	}
	if v, ok := payload["section_id"].(string); ok && v != "" {
		r.SectionID = mo.Some(v)
	}
	r.ChunkIndex = payloadInt(payload, "chunk_index")
	r.StartChar = payloadInt(payload, "start_char")
	r.EndChar = payloadInt(payload, "end_char")

	return r
}

// payloadInt はJSON経由で数値になったペイロード値を int として取り出します
func payloadInt(payload map[string]any, key string) int {
	switch v := payload[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	default:
		return 0
	}
}
