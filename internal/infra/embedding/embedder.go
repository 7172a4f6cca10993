// Package embedding はOpenAI互換APIを使った埋め込みクライアントを提供します。
package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SaweraMunawar/AI-Native-Book-backend/internal/core/apperr"
	"github.com/SaweraMunawar/AI-Native-Book-backend/internal/core/ingestion"
	"github.com/SaweraMunawar/AI-Native-Book-backend/internal/core/retrieval"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	// DefaultModel はモデル未指定時のデフォルトモデル
	DefaultModel = "sentence-transformers/all-MiniLM-L6-v2"

	// DefaultDimension はデフォルトのベクトル次元
	DefaultDimension = 384

	// DefaultTimeout はAPI呼び出しのデフォルトタイムアウト
	DefaultTimeout = 30 * time.Second

	// MaxBatchSize は1リクエストあたりの最大入力件数
	MaxBatchSize = 100
)

// ErrAPIKeyNotSet はAPIキーが設定されていない場合のエラー
var ErrAPIKeyNotSet = errors.New("embedding API key not set: please set EMBEDDING_API_KEY environment variable")

// Embedder はOpenAI互換エンドポイントでテキストをベクトルに変換する
type Embedder struct {
	client    openai.Client
	model     string
	dimension int
	timeout   time.Duration
}

type embedderOptions struct {
	model     string
	dimension int
	timeout   time.Duration
}

// EmbedderOption は Embedder のオプション設定
type EmbedderOption func(*embedderOptions)

// WithModel はモデル名を上書きする
func WithModel(model string) EmbedderOption {
	return func(o *embedderOptions) {
		o.model = model
	}
}

// WithDimension は期待するベクトル次元を上書きする
func WithDimension(dimension int) EmbedderOption {
	return func(o *embedderOptions) {
		o.dimension = dimension
	}
}

// WithTimeout はAPIコールのタイムアウトを上書きする
func WithTimeout(timeout time.Duration) EmbedderOption {
	return func(o *embedderOptions) {
		o.timeout = timeout
	}
}

// NewEmbedder は新しい Embedder を作成する。
// baseURL はOpenAI互換の埋め込みエンドポイント
func NewEmbedder(baseURL, apiKey string, opts ...EmbedderOption) (*Embedder, error) {
	if apiKey == "" {
		return nil, ErrAPIKeyNotSet
	}

	options := embedderOptions{
		model:     DefaultModel,
		dimension: DefaultDimension,
		timeout:   DefaultTimeout,
	}
	for _, opt := range opts {
		opt(&options)
	}

	clientOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(baseURL))
	}

	return &Embedder{
		client:    openai.NewClient(clientOpts...),
		model:     options.model,
		dimension: options.dimension,
		timeout:   options.timeout,
	}, nil
}

// Embed は単一テキストの埋め込みを生成する
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(embeddings) == 0 {
		return nil, apperr.Unavailable("embedding API returned no vectors", nil)
	}
	return embeddings[0], nil
}

// EmbedBatch はテキスト列の埋め込みをまとめて生成する。
// MaxBatchSize を超える入力はAPI上限に収まるよう分割し、入力順を保持する
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	embeddings := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += MaxBatchSize {
		end := min(start+MaxBatchSize, len(texts))
		batch, err := e.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		embeddings = append(embeddings, batch...)
	}
	return embeddings, nil
}

func (e *Embedder) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	params := openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(e.model),
	}
	if len(texts) == 1 {
		params.Input = openai.EmbeddingNewParamsInputUnion{
			OfString: openai.String(texts[0]),
		}
	} else {
		params.Input = openai.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: texts,
		}
	}

	resp, err := e.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, apperr.Unavailable("failed to generate embeddings", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, apperr.Unavailable(
			fmt.Sprintf("embedding API returned %d vectors for %d inputs", len(resp.Data), len(texts)), nil)
	}

	embeddings := make([][]float32, len(resp.Data))
	for i, data := range resp.Data {
		if e.dimension > 0 && len(data.Embedding) != e.dimension {
			return nil, apperr.Unavailable(
				fmt.Sprintf("embedding dimension mismatch: got %d, want %d", len(data.Embedding), e.dimension), nil)
		}
		vector := make([]float32, len(data.Embedding))
		for j, v := range data.Embedding {
			vector[j] = float32(v)
		}
		embeddings[i] = vector
	}
	return embeddings, nil
}

// ModelName はモデル名を返す
func (e *Embedder) ModelName() string {
	return e.model
}

// Dimension はベクトル次元数を返す
func (e *Embedder) Dimension() int {
	return e.dimension
}

// インターフェース実装の確認
var (
	_ retrieval.Embedder = (*Embedder)(nil)
	_ ingestion.Embedder = (*Embedder)(nil)
)
