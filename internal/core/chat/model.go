// Package chat は検索・確信度分類・回答生成・引用整形を束ねるチャットのユースケース層です。
package chat

import (
	"github.com/SaweraMunawar/AI-Native-Book-backend/internal/core/retrieval"
	"github.com/google/uuid"
	"github.com/samber/mo"
)

// AskParams は通常チャットのパラメータ
type AskParams struct {
	// Message はユーザーの質問文
	Message string

	// SessionID は会話継続用の任意ID。未指定なら新規発行して応答にエコーする
	SessionID mo.Option[uuid.UUID]
}

// ContextualAskParams は選択テキスト付きチャットのパラメータ
type ContextualAskParams struct {
	Message string

	// SelectedText は教科書上でユーザーが選択した本文
	SelectedText string

	// ChapterSlug は検索を章内に絞るための任意フィルタ
	ChapterSlug mo.Option[string]

	SessionID mo.Option[uuid.UUID]
}

// Source は回答の根拠となった教科書箇所の引用
type Source struct {
	ChapterSlug  string  `json:"chapter_slug"`
	ChapterTitle string  `json:"chapter_title"`
	SectionID    string  `json:"section_id,omitempty"`
	SectionTitle string  `json:"section_title,omitempty"`
	Excerpt      string  `json:"excerpt"`
	Score        float64 `json:"score"`
}

// Response はチャット1往復分の応答。サーバ側に履歴は持たない
type Response struct {
	MessageID  uuid.UUID            `json:"message_id"`
	SessionID  uuid.UUID            `json:"session_id"`
	Answer     string               `json:"answer"`
	Confidence retrieval.Confidence `json:"confidence"`
	Sources    []Source             `json:"sources"`
	Disclaimer string               `json:"disclaimer,omitempty"`
}

// 確信度に応じた注意書き
const (
	disclaimerNotCovered      = "This topic may not be covered in the textbook."
	disclaimerLimitedContext  = "Based on limited context from the textbook. The answer may be incomplete."
	disclaimerSelectedPrimary = "Response based primarily on the selected text."
	disclaimerSelectedLimited = "Based on the selected text and limited textbook context."
)
