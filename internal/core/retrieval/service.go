package retrieval

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samber/mo"
)

// Embedder はクエリテキストをベクトルに変換します
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Index はベクトルストアへの近傍検索クエリ
type Index interface {
	Query(ctx context.Context, vector []float32, limit int, filter mo.Option[Filter]) ([]ScoredPoint, error)
}

// Service は埋め込み→ベクトル検索→結果の復元を束ねる検索サービス
type Service struct {
	embedder   Embedder
	index      Index
	topK       int
	thresholds Thresholds
	logger     *slog.Logger
}

// ServiceOption は Service のオプション設定
type ServiceOption func(*Service)

// WithLogger はロガーを差し替える
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService は新しい Service を作成します。閾値の大小関係はここで検証する
func NewService(embedder Embedder, index Index, topK int, thresholds Thresholds, opts ...ServiceOption) (*Service, error) {
	if err := thresholds.Validate(); err != nil {
		return nil, err
	}
	if topK <= 0 {
		return nil, fmt.Errorf("top_k must be positive: got %d", topK)
	}

	s := &Service{
		embedder:   embedder,
		index:      index,
		topK:       topK,
		thresholds: thresholds,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s, nil
}

// SearchOptions は検索の任意パラメータ
type SearchOptions struct {
	// TopK は取得件数。未指定時は設定のデフォルトを使う
	TopK mo.Option[int]

	// Chapter は chapter_slug による完全一致での絞り込み
	Chapter mo.Option[string]
}

// Search はクエリを埋め込み、近傍チャンクをスコア降順で返します。
// 並び順はベクトルストアの保証に従い、ここでは再ランクしない
func (s *Service) Search(ctx context.Context, query string, opts SearchOptions) ([]Result, error) {
	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	topK := opts.TopK.OrElse(s.topK)
	if topK <= 0 {
		topK = s.topK
	}

	filter := mo.None[Filter]()
	if chapter, ok := opts.Chapter.Get(); ok && chapter != "" {
		filter = mo.Some(ChapterFilter(chapter))
	}

	points, err := s.index.Query(ctx, vector, topK, filter)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	results := make([]Result, 0, len(points))
	for _, p := range points {
		results = append(results, resultFromPayload(p.Score, p.Payload))
	}

	s.logger.Debug("retrieval completed",
		"query", query,
		"topK", topK,
		"hits", len(results),
		"filtered", filter.IsPresent(),
	)

	return results, nil
}

// Classify は検索結果列を確信度レベルに写します
func (s *Service) Classify(results []Result) Confidence {
	return s.thresholds.ClassifyResults(results)
}

// Thresholds は設定済みの閾値ペアを返します
func (s *Service) Thresholds() Thresholds {
	return s.thresholds
}
