package chat

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SaweraMunawar/AI-Native-Book-backend/internal/core/retrieval"
	"github.com/google/uuid"
	"github.com/samber/mo"
)

// Retriever は関連チャンクの検索と確信度分類
type Retriever interface {
	Search(ctx context.Context, query string, opts retrieval.SearchOptions) ([]retrieval.Result, error)
	Classify(results []retrieval.Result) retrieval.Confidence
}

// Generator は回答生成。低確信度用の定型応答はLLMを介さない
type Generator interface {
	Generate(ctx context.Context, query string, results []retrieval.Result, selectedText mo.Option[string]) (string, error)
	GenerateLowConfidence(query string) string
}

// Service はチャット1往復分のオーケストレーションを担います
type Service struct {
	retriever Retriever
	generator Generator
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

// NewService は新しい Service を作成します
func NewService(retriever Retriever, generator Generator, opts ...ServiceOption) *Service {
	s := &Service{
		retriever: retriever,
		generator: generator,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Ask は通常チャットの応答を生成します。
// 低確信度なら定型回答に切り替え、引用は付けない
func (s *Service) Ask(ctx context.Context, params AskParams) (*Response, error) {
	if params.Message == "" {
		return nil, fmt.Errorf("message is required")
	}

	results, err := s.retriever.Search(ctx, params.Message, retrieval.SearchOptions{})
	if err != nil {
		return nil, err
	}

	confidence := s.retriever.Classify(results)

	var (
		answer     string
		sources    []Source
		disclaimer string
	)

	switch confidence {
	case retrieval.ConfidenceLow:
		answer = s.generator.GenerateLowConfidence(params.Message)
		sources = []Source{}
		disclaimer = disclaimerNotCovered
	default:
		answer, err = s.generator.Generate(ctx, params.Message, results, mo.None[string]())
		if err != nil {
			return nil, err
		}
		sources = buildSources(results)
		if confidence == retrieval.ConfidenceMedium {
			disclaimer = disclaimerLimitedContext
		}
	}

	resp := s.newResponse(params.SessionID, answer, confidence, sources, disclaimer)

	s.logger.Info("chat completed",
		"messageID", resp.MessageID.String(),
		"confidence", string(confidence),
		"sources", len(sources),
	)

	return resp, nil
}

// AskWithContext は選択テキスト付きチャットの応答を生成します。
// 検索が弱くても選択テキスト自体が根拠になるため、低確信度は中確信度へ引き上げ、
// 定型回答ではなく通常の生成経路を通す
func (s *Service) AskWithContext(ctx context.Context, params ContextualAskParams) (*Response, error) {
	if params.Message == "" {
		return nil, fmt.Errorf("message is required")
	}
	if params.SelectedText == "" {
		return nil, fmt.Errorf("selected text is required")
	}

	results, err := s.retriever.Search(ctx, params.Message, retrieval.SearchOptions{
		Chapter: params.ChapterSlug,
	})
	if err != nil {
		return nil, err
	}

	confidence := s.retriever.Classify(results)

	answer, err := s.generator.Generate(ctx, params.Message, results, mo.Some(params.SelectedText))
	if err != nil {
		return nil, err
	}

	sources := buildSources(results)

	var disclaimer string
	switch confidence {
	case retrieval.ConfidenceLow:
		confidence = retrieval.ConfidenceMedium
		disclaimer = disclaimerSelectedPrimary
	case retrieval.ConfidenceMedium:
		disclaimer = disclaimerSelectedLimited
	}

	resp := s.newResponse(params.SessionID, answer, confidence, sources, disclaimer)

	s.logger.Info("contextual chat completed",
		"messageID", resp.MessageID.String(),
		"confidence", string(confidence),
		"chapterFilter", params.ChapterSlug.OrElse(""),
		"sources", len(sources),
	)

	return resp, nil
}

// newResponse は応答を組み立てます。message_id は毎回新規発行、
// session_id はリクエスト指定をエコーし、無ければ新規発行する
func (s *Service) newResponse(sessionID mo.Option[uuid.UUID], answer string, confidence retrieval.Confidence, sources []Source, disclaimer string) *Response {
	sid, ok := sessionID.Get()
	if !ok {
		sid = uuid.New()
	}
	return &Response{
		MessageID:  uuid.New(),
		SessionID:  sid,
		Answer:     answer,
		Confidence: confidence,
		Sources:    sources,
		Disclaimer: disclaimer,
	}
}
