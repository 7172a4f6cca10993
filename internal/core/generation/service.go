// Package generation は検索結果からプロンプトを組み立て、LLMに回答を生成させます。
package generation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SaweraMunawar/AI-Native-Book-backend/internal/core/retrieval"
	"github.com/pkoukk/tiktoken-go"
	"github.com/samber/mo"
)

const (
	// completionTemperature は回答生成の温度。教科書QAなので低めに固定
	completionTemperature = 0.3

	// completionMaxTokens は生成トークン数の上限
	completionMaxTokens = 1000
)

// CompletionRequest はLLMへのチャット補完リクエスト
type CompletionRequest struct {
	SystemPrompt string
	UserPrompt   string
	Temperature  float64
	MaxTokens    int
}

// LLMClient はLLM通信インターフェース
type LLMClient interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// TokenCounter はプロンプトのトークン数を見積もるインターフェース
type TokenCounter interface {
	Count(text string) int
}

// tiktokenCounter はcl100k_baseエンコーディングによる TokenCounter 実装
type tiktokenCounter struct {
	encoder *tiktoken.Tiktoken
}

func (c *tiktokenCounter) Count(text string) int {
	return len(c.encoder.Encode(text, nil, nil))
}

// Service はプロンプト組み立てとLLM呼び出しを担います
type Service struct {
	llm     LLMClient
	counter TokenCounter
	logger  *slog.Logger
}

// ServiceOption は Service のオプション設定
type ServiceOption func(*Service)

// WithLogger はロガーを差し替える
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithTokenCounter はトークンカウンタを差し替える
func WithTokenCounter(counter TokenCounter) ServiceOption {
	return func(s *Service) {
		s.counter = counter
	}
}

// NewService は新しい Service を作成します
func NewService(llm LLMClient, opts ...ServiceOption) (*Service, error) {
	s := &Service{
		llm:    llm,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	if s.counter == nil {
		// cl100k_baseでプロンプトのトークン量を見積もる（課金・レイテンシ監視用）。
		// BPE定義の初回取得はネットワークアクセスを伴う
		encoder, err := tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, fmt.Errorf("failed to get tiktoken encoder: %w", err)
		}
		s.counter = &tiktokenCounter{encoder: encoder}
	}

	return s, nil
}

// Generate は検索結果をコンテキストとしてLLMに回答を生成させます。
// selectedText が指定された場合はユーザーターンに引用として埋め込む
func (s *Service) Generate(ctx context.Context, query string, results []retrieval.Result, selectedText mo.Option[string]) (string, error) {
	contextBlock := FormatContext(results)
	userPrompt := buildUserMessage(query, contextBlock, selectedText)

	s.logger.Debug("prompt composed",
		"contextSources", len(results),
		"promptTokens", s.counter.Count(systemPrompt+userPrompt),
	)

	answer, err := s.llm.Complete(ctx, CompletionRequest{
		SystemPrompt: systemPrompt,
		UserPrompt:   userPrompt,
		Temperature:  completionTemperature,
		MaxTokens:    completionMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate answer: %w", err)
	}

	return answer, nil
}

// GenerateLowConfidence は低確信度クエリ向けの定型回答を返します。
// コストとレイテンシを抑えるため、この経路ではLLMを呼ばない
func (s *Service) GenerateLowConfidence(query string) string {
	s.logger.Debug("low confidence fallback", "query", query)
	return lowConfidenceAnswer
}
