// Package qdrant はQdrantベクトルストアへのRESTアダプタを提供します。
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/SaweraMunawar/AI-Native-Book-backend/internal/core/apperr"
	"github.com/SaweraMunawar/AI-Native-Book-backend/internal/core/ingestion"
	"github.com/SaweraMunawar/AI-Native-Book-backend/internal/core/retrieval"
	"github.com/samber/mo"
)

// DefaultTimeout はQdrantへのHTTPリクエストのタイムアウト。
// サービングスレッドを無期限にブロックさせないための上限
const DefaultTimeout = 15 * time.Second

// Client はQdrantのコレクション操作・ポイント登録・近傍検索を行うRESTクライアント
type Client struct {
	baseURL    string
	apiKey     string
	collection string
	httpClient *http.Client
	logger     *slog.Logger
}

// Config は Client の接続設定
type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

// ClientOption は Client のオプション設定
type ClientOption func(*Client)

// WithLogger はロガーを差し替える
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient は新しい Client を作成します
func NewClient(cfg Config, opts ...ClientOption) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	c := &Client{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		httpClient: &http.Client{Timeout: timeout},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// CollectionExists はコレクションの有無を返します
func (c *Client) CollectionExists(ctx context.Context) (bool, error) {
	status, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/collections/%s", c.collection), nil, nil)
	if err != nil {
		return false, err
	}
	return status == http.StatusOK, nil
}

// CreateCollection はコサイン距離・指定次元のコレクションを作成し、
// chapter_slug にキーワードインデックスを張ります
func (c *Client) CreateCollection(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return apperr.New(apperr.KindConfig, fmt.Sprintf("invalid vector dimension: %d", dimension), nil)
	}

	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	if status, err := c.do(ctx, http.MethodPut, fmt.Sprintf("/collections/%s", c.collection), body, nil); err != nil {
		return err
	} else if status >= 300 {
		return apperr.Unavailable(fmt.Sprintf("qdrant create collection returned status %d", status), nil)
	}

	// フィルタ付き検索用のペイロードインデックス
	indexBody := map[string]any{
		"field_name":   "chapter_slug",
		"field_schema": "keyword",
	}
	if status, err := c.do(ctx, http.MethodPut, fmt.Sprintf("/collections/%s/index", c.collection), indexBody, nil); err != nil {
		return err
	} else if status >= 300 {
		return apperr.Unavailable(fmt.Sprintf("qdrant create payload index returned status %d", status), nil)
	}

	c.logger.Info("collection created", "collection", c.collection, "dimension", dimension)
	return nil
}

// DeleteCollection はコレクションを削除します（再作成時用）
func (c *Client) DeleteCollection(ctx context.Context) error {
	status, err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/collections/%s", c.collection), nil, nil)
	if err != nil {
		return err
	}
	if status >= 300 && status != http.StatusNotFound {
		return apperr.Unavailable(fmt.Sprintf("qdrant delete collection returned status %d", status), nil)
	}
	return nil
}

// upsertRequest / upsertPoint はポイント登録のワイヤ形式
type upsertRequest struct {
	Points []upsertPoint `json:"points"`
}

type upsertPoint struct {
	ID      string         `json:"id"`
	Vector  []float32      `json:"vector"`
	Payload map[string]any `json:"payload"`
}

// Upsert はポイント列を登録します。wait=true で永続化完了まで待ち、
// 部分適用の見えない失敗を避ける。IDが同じポイントは置き換えられる（冪等）
func (c *Client) Upsert(ctx context.Context, points []ingestion.Point) error {
	if len(points) == 0 {
		return nil
	}

	req := upsertRequest{Points: make([]upsertPoint, len(points))}
	for i, p := range points {
		req.Points[i] = upsertPoint{
			ID:      p.ID.String(),
			Vector:  p.Vector,
			Payload: p.Payload,
		}
	}

	status, err := c.do(ctx, http.MethodPut, fmt.Sprintf("/collections/%s/points?wait=true", c.collection), req, nil)
	if err != nil {
		return err
	}
	if status >= 300 {
		return apperr.Unavailable(fmt.Sprintf("qdrant upsert returned status %d", status), nil)
	}
	return nil
}

// searchRequest / searchResponse は近傍検索のワイヤ形式
type searchRequest struct {
	Vector      []float32      `json:"vector"`
	Limit       int            `json:"limit"`
	WithPayload bool           `json:"with_payload"`
	Filter      map[string]any `json:"filter,omitempty"`
}

type searchResponse struct {
	Result []struct {
		Score   float64        `json:"score"`
		Payload map[string]any `json:"payload"`
	} `json:"result"`
}

// Query はコサイン類似度の近傍検索を実行します。結果はスコア降順
func (c *Client) Query(ctx context.Context, vector []float32, limit int, filter mo.Option[retrieval.Filter]) ([]retrieval.ScoredPoint, error) {
	req := searchRequest{
		Vector:      vector,
		Limit:       limit,
		WithPayload: true,
	}
	if f, ok := filter.Get(); ok {
		req.Filter = map[string]any{
			"must": []map[string]any{
				{
					"key":   f.Field,
					"match": map[string]any{"value": f.Value},
				},
			},
		}
	}

	var resp searchResponse
	status, err := c.do(ctx, http.MethodPost, fmt.Sprintf("/collections/%s/points/search", c.collection), req, &resp)
	if err != nil {
		return nil, err
	}
	if status >= 300 {
		return nil, apperr.Unavailable(fmt.Sprintf("qdrant search returned status %d", status), nil)
	}

	points := make([]retrieval.ScoredPoint, 0, len(resp.Result))
	for _, r := range resp.Result {
		points = append(points, retrieval.ScoredPoint{Score: r.Score, Payload: r.Payload})
	}
	return points, nil
}

// Healthy はQdrantへ疎通確認します
func (c *Client) Healthy(ctx context.Context) error {
	status, err := c.do(ctx, http.MethodGet, "/collections", nil, nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return apperr.Unavailable(fmt.Sprintf("qdrant health check returned status %d", status), nil)
	}
	return nil
}

// do はJSONリクエストを送信し、ステータスコードと（outが非nilなら）復号済みボディを返します。
// 到達不能は上流障害エラーに分類する
func (c *Client) do(ctx context.Context, method, path string, body any, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, apperr.Unavailable("qdrant unreachable", err)
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to decode qdrant response: %w", err)
		}
	}

	return resp.StatusCode, nil
}

// インターフェース実装の確認
var (
	_ retrieval.Index = (*Client)(nil)
	_ ingestion.Index = (*Client)(nil)
)
