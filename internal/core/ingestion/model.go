// Package ingestion は教科書Markdownをチャンク化・埋め込みし、ベクトルストアへ登録します。
package ingestion

import (
	"github.com/google/uuid"
	"github.com/samber/mo"
)

// Document は取り込み対象の1章分のMarkdown。永続化はチャンク（ポイント）単位で行う
type Document struct {
	// ChapterSlug はファイル名（拡張子なし）から導出する章識別子
	ChapterSlug string

	// Title はフロントマター除去後の最初のH1見出し
	Title string

	// Content はフロントマターを除いた本文
	Content string

	// Path は元ファイルのパス
	Path string
}

// Point はベクトルストアに登録する1ポイント
type Point struct {
	ID      uuid.UUID
	Vector  []float32
	Payload map[string]any
}

// BatchResult は1バッチ分のアップサート結果
type BatchResult struct {
	Index  int
	Points int
	Err    error
}

// Report は取り込み全体の結果。バッチ失敗時はどこまで永続化されたかを区別して報告する。
// アップサートはID単位で冪等なので、失敗後の再実行で重複は生じない
type Report struct {
	Files   int
	Chunks  int
	Batches []BatchResult

	// PointsUpserted は永続化に成功したポイント数
	PointsUpserted int

	// PointsFailed は失敗したバッチに含まれていたポイント数（永続化状態は不明）
	PointsFailed int

	// PointsSkipped は失敗により試行されなかったポイント数
	PointsSkipped int

	// FailedBatch は最初に失敗したバッチのインデックス
	FailedBatch mo.Option[int]
}
