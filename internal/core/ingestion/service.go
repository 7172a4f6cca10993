package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/SaweraMunawar/AI-Native-Book-backend/internal/core/chunk"
	"github.com/google/uuid"
	"github.com/samber/mo"
)

// DefaultBatchSize はアップサート1回あたりのポイント数。リクエストサイズを抑えるための上限
const DefaultBatchSize = 100

// Chunker はドキュメント本文をチャンク列に分割します
type Chunker interface {
	Split(text string) []chunk.Piece
}

// Embedder はチャンク本文をまとめてベクトル化します。入力順を保持すること
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Index はベクトルストアへのポイント登録。ID単位で冪等であること
type Index interface {
	Upsert(ctx context.Context, points []Point) error
}

// Service は教科書ディレクトリの取り込みパイプラインを実行します
type Service struct {
	chunker   Chunker
	embedder  Embedder
	index     Index
	batchSize int
	logger    *slog.Logger
}

// ServiceOption は Service のオプション設定
type ServiceOption func(*Service)

// WithLogger はロガーを差し替える
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithBatchSize はアップサートのバッチサイズを上書きする
func WithBatchSize(n int) ServiceOption {
	return func(s *Service) {
		s.batchSize = n
	}
}

// NewService は新しい Service を作成します
func NewService(chunker Chunker, embedder Embedder, index Index, opts ...ServiceOption) *Service {
	s := &Service{
		chunker:   chunker,
		embedder:  embedder,
		index:     index,
		batchSize: DefaultBatchSize,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.batchSize <= 0 {
		s.batchSize = DefaultBatchSize
	}
	return s
}

// IngestDir は docsPath 直下のMarkdownを章として取り込み、ポイントを一括登録します
func (s *Service) IngestDir(ctx context.Context, docsPath string) (*Report, error) {
	docs, err := s.loadDocuments(docsPath)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("no markdown files found in %s", docsPath)
	}

	report := &Report{Files: len(docs), FailedBatch: mo.None[int]()}

	var allPoints []Point
	for _, doc := range docs {
		points, err := s.buildPoints(ctx, doc)
		if err != nil {
			return nil, fmt.Errorf("failed to process %s: %w", doc.Path, err)
		}

		s.logger.Info("document chunked",
			"chapter", doc.ChapterSlug,
			"title", doc.Title,
			"chunks", len(points),
		)

		report.Chunks += len(points)
		allPoints = append(allPoints, points...)
	}

	if err := s.upsertAll(ctx, allPoints, report); err != nil {
		return report, err
	}

	s.logger.Info("ingestion completed",
		"files", report.Files,
		"chunks", report.Chunks,
		"batches", len(report.Batches),
	)

	return report, nil
}

// loadDocuments はディレクトリ内のMarkdownをファイル名順に読み込みます
func (s *Service) loadDocuments(docsPath string) ([]Document, error) {
	entries, err := os.ReadDir(docsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read docs directory: %w", err)
	}

	var docs []Document
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}

		path := filepath.Join(docsPath, entry.Name())
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}

		title, body := parseMarkdown(string(raw))
		docs = append(docs, Document{
			ChapterSlug: strings.TrimSuffix(entry.Name(), ".md"),
			Title:       title,
			Content:     body,
			Path:        path,
		})
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].Path < docs[j].Path })
	return docs, nil
}

// buildPoints は1章分をチャンク化・埋め込みしてポイント列にします
func (s *Service) buildPoints(ctx context.Context, doc Document) ([]Point, error) {
	pieces := s.chunker.Split(doc.Content)
	if len(pieces) == 0 {
		return nil, nil
	}

	texts := make([]string, len(pieces))
	for i, p := range pieces {
		texts[i] = p.Text
	}

	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed chunks: %w", err)
	}
	if len(vectors) != len(pieces) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(pieces))
	}

	// start_char / end_char は章テキスト内のバイトオフセット
	points := make([]Point, len(pieces))
	for i, p := range pieces {
		points[i] = Point{
			ID:     uuid.New(),
			Vector: vectors[i],
			Payload: map[string]any{
				"chapter_slug": doc.ChapterSlug,
				"section_id":   chunk.SectionID(p.Text, doc.ChapterSlug),
				"chunk_text":   p.Text,
				"chunk_index":  i,
				"start_char":   p.StartChar,
				"end_char":     p.EndChar,
			},
		}
	}

	return points, nil
}

// upsertAll はポイント列をバッチ分割してアップサートします。
// 途中のバッチが失敗した場合はそこで打ち切り、成功分・失敗分・未試行分を区別して記録する
func (s *Service) upsertAll(ctx context.Context, points []Point, report *Report) error {
	total := (len(points) + s.batchSize - 1) / s.batchSize

	for i := 0; i < len(points); i += s.batchSize {
		end := i + s.batchSize
		if end > len(points) {
			end = len(points)
		}
		batch := points[i:end]
		batchIndex := i / s.batchSize

		if err := s.index.Upsert(ctx, batch); err != nil {
			report.Batches = append(report.Batches, BatchResult{Index: batchIndex, Points: len(batch), Err: err})
			report.PointsFailed = len(batch)
			report.PointsSkipped = len(points) - end
			report.FailedBatch = mo.Some(batchIndex)
			return fmt.Errorf("upsert batch %d/%d failed (%d points upserted, %d failed, %d not attempted): %w",
				batchIndex+1, total, report.PointsUpserted, report.PointsFailed, report.PointsSkipped, err)
		}

		report.Batches = append(report.Batches, BatchResult{Index: batchIndex, Points: len(batch)})
		report.PointsUpserted += len(batch)

		s.logger.Info("batch upserted", "batch", batchIndex+1, "total", total, "points", len(batch))
	}

	return nil
}
