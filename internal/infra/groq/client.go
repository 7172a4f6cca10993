// Package groq はGroqのOpenAI互換APIを使ったLLMクライアントを提供します。
package groq

import (
	"context"
	"errors"
	"time"

	"github.com/SaweraMunawar/AI-Native-Book-backend/internal/core/apperr"
	"github.com/SaweraMunawar/AI-Native-Book-backend/internal/core/generation"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
)

const (
	// DefaultBaseURL はGroqのOpenAI互換エンドポイント
	DefaultBaseURL = "https://api.groq.com/openai/v1"

	// DefaultModel はデフォルトで使用するGroqモデル
	DefaultModel = "llama-3.1-8b-instant"

	// DefaultTimeout はAPI呼び出しのデフォルトタイムアウト
	DefaultTimeout = 60 * time.Second
)

// ErrAPIKeyNotSet はAPIキーが設定されていない場合のエラー
var ErrAPIKeyNotSet = errors.New("Groq API key not set: please set GROQ_API_KEY environment variable")

// Client は Groq API を使用した LLM クライアント実装
type Client struct {
	client  openai.Client
	model   string
	timeout time.Duration
}

type clientOptions struct {
	baseURL string
	model   string
	timeout time.Duration
}

// ClientOption は Client のオプション設定
type ClientOption func(*clientOptions)

// WithBaseURL はエンドポイントを上書きする（テスト用）
func WithBaseURL(baseURL string) ClientOption {
	return func(o *clientOptions) {
		o.baseURL = baseURL
	}
}

// WithModel はモデル名を上書きする
func WithModel(model string) ClientOption {
	return func(o *clientOptions) {
		o.model = model
	}
}

// WithTimeout はAPIコールのタイムアウトを上書きする
func WithTimeout(timeout time.Duration) ClientOption {
	return func(o *clientOptions) {
		o.timeout = timeout
	}
}

// NewClient は新しい Client を作成する
func NewClient(apiKey string, opts ...ClientOption) (*Client, error) {
	if apiKey == "" {
		return nil, ErrAPIKeyNotSet
	}

	options := clientOptions{
		baseURL: DefaultBaseURL,
		model:   DefaultModel,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(&options)
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(options.baseURL),
	)

	return &Client{
		client:  client,
		model:   options.model,
		timeout: options.timeout,
	}, nil
}

// ModelName はモデル名を返す
func (c *Client) ModelName() string {
	return c.model
}

// Complete はチャット補完を実行して応答テキストを返す
func (c *Client) Complete(ctx context.Context, req generation.CompletionRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.SystemPrompt),
			openai.UserMessage(req.UserPrompt),
		},
		Temperature: openai.Float(req.Temperature),
		MaxTokens:   openai.Int(int64(req.MaxTokens)),
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", apperr.Unavailable("Groq API request failed", err)
		}
		return "", apperr.Unavailable("Groq unreachable", err)
	}
	if len(resp.Choices) == 0 {
		return "", apperr.Unavailable("Groq returned no completion choices", nil)
	}

	return resp.Choices[0].Message.Content, nil
}

// Healthy はGroq APIへ疎通確認します
func (c *Client) Healthy(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if _, err := c.client.Models.List(ctx); err != nil {
		return apperr.Unavailable("Groq health check failed", err)
	}
	return nil
}

// インターフェース実装の確認
var _ generation.LLMClient = (*Client)(nil)
