package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var (
	// ErrQdrantURLNotSet はQdrantのURLが設定されていない場合のエラー
	ErrQdrantURLNotSet = errors.New("qdrant URL not set: please set QDRANT_URL environment variable")

	// ErrGroqAPIKeyNotSet はGroqのAPIキーが設定されていない場合のエラー
	ErrGroqAPIKeyNotSet = errors.New("groq API key not set: please set GROQ_API_KEY environment variable")

	// ErrInvalidThresholds は確信度の閾値の大小関係が不正な場合のエラー
	ErrInvalidThresholds = errors.New("confidence thresholds misordered: low threshold must be smaller than high threshold")

	// ErrInvalidChunkOverlap はチャンクのオーバーラップ設定が不正な場合のエラー
	ErrInvalidChunkOverlap = errors.New("chunk overlap must be smaller than chunk max tokens")
)

// Config はアプリケーション全体の設定を保持します
type Config struct {
	// 実行環境 ("development" or "production")
	Environment string

	// ログレベル名（"debug"等）。空なら実行環境に応じた既定値
	LogLevel string

	// CORS許可オリジン（カンマ区切り）
	CORSOrigins string

	// Qdrant設定
	Qdrant QdrantConfig

	// Groq設定（回答生成用LLM）
	Groq GroqConfig

	// Embedding設定
	Embedding EmbeddingConfig

	// 検索・確信度設定
	Retrieval RetrievalConfig

	// チャンク分割設定
	Chunking ChunkingConfig

	// レートリミット設定
	RateLimit RateLimitConfig

	// Neon PostgreSQL接続文字列（ヘルスチェック用・任意）
	DatabaseURL string
}

// QdrantConfig はQdrantベクトルストアの接続設定
type QdrantConfig struct {
	URL        string
	APIKey     string
	Collection string
}

// GroqConfig はGroq Chat Completions APIの設定
type GroqConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// EmbeddingConfig はEmbedding APIの設定
type EmbeddingConfig struct {
	// OpenAI互換Embeddingエンドポイント（TEI等）
	BaseURL   string
	APIKey    string
	Model     string
	Dimension int
}

// RetrievalConfig は検索件数と確信度閾値の設定
type RetrievalConfig struct {
	TopK          int
	HighThreshold float64
	LowThreshold  float64
}

// ChunkingConfig はドキュメント取り込み時のチャンク分割設定
type ChunkingConfig struct {
	MaxTokens     int
	OverlapTokens int
}

// RateLimitConfig は固定ウィンドウ方式のレートリミット設定
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// Load は環境変数または.envファイルから設定を読み込みます
func Load(envFilePath string) (*Config, error) {
	// .envファイルが存在する場合は読み込む
	if envFilePath != "" {
		if err := godotenv.Load(envFilePath); err != nil {
			// ファイルが存在しない場合はエラーとしない（環境変数のみで動作可能）
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to load .env file: %w", err)
			}
		}
	}

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", ""),
		CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:3000"),
		Qdrant: QdrantConfig{
			URL:        getEnv("QDRANT_URL", ""),
			APIKey:     getEnv("QDRANT_API_KEY", ""),
			Collection: getEnv("QDRANT_COLLECTION", "textbook_embeddings"),
		},
		Groq: GroqConfig{
			APIKey:  getEnv("GROQ_API_KEY", ""),
			Model:   getEnv("GROQ_MODEL", "llama-3.1-8b-instant"),
			BaseURL: getEnv("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
		},
		Embedding: EmbeddingConfig{
			BaseURL:   getEnv("EMBEDDING_BASE_URL", ""),
			APIKey:    getEnv("EMBEDDING_API_KEY", ""),
			Model:     getEnv("EMBEDDING_MODEL", "sentence-transformers/all-MiniLM-L6-v2"),
			Dimension: getEnvAsInt("EMBEDDING_DIMENSION", 384),
		},
		Retrieval: RetrievalConfig{
			TopK:          getEnvAsInt("RETRIEVAL_TOP_K", 3),
			HighThreshold: getEnvAsFloat("CONFIDENCE_HIGH_THRESHOLD", 0.7),
			LowThreshold:  getEnvAsFloat("CONFIDENCE_LOW_THRESHOLD", 0.4),
		},
		Chunking: ChunkingConfig{
			MaxTokens:     getEnvAsInt("CHUNK_MAX_TOKENS", 512),
			OverlapTokens: getEnvAsInt("CHUNK_OVERLAP_TOKENS", 50),
		},
		RateLimit: RateLimitConfig{
			Requests: getEnvAsInt("RATE_LIMIT_REQUESTS", 100),
			Window:   time.Duration(getEnvAsInt("RATE_LIMIT_WINDOW_SECONDS", 3600)) * time.Second,
		},
		DatabaseURL: getEnv("DATABASE_URL", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate は設定の整合性を起動時に検証します。
// 閾値の大小関係や必須クレデンシャルの欠落はここで弾き、リクエスト処理には持ち込まない。
func (c *Config) Validate() error {
	if c.Qdrant.URL == "" {
		return ErrQdrantURLNotSet
	}
	if c.Groq.APIKey == "" {
		return ErrGroqAPIKeyNotSet
	}
	if c.Retrieval.LowThreshold >= c.Retrieval.HighThreshold {
		return fmt.Errorf("%w: low=%v high=%v", ErrInvalidThresholds, c.Retrieval.LowThreshold, c.Retrieval.HighThreshold)
	}
	if c.Chunking.MaxTokens <= 0 {
		return fmt.Errorf("chunk max tokens must be positive: got %d", c.Chunking.MaxTokens)
	}
	if c.Chunking.OverlapTokens < 0 || c.Chunking.OverlapTokens >= c.Chunking.MaxTokens {
		return fmt.Errorf("%w: max=%d overlap=%d", ErrInvalidChunkOverlap, c.Chunking.MaxTokens, c.Chunking.OverlapTokens)
	}
	if c.Embedding.Dimension <= 0 {
		return fmt.Errorf("embedding dimension must be positive: got %d", c.Embedding.Dimension)
	}
	if c.Retrieval.TopK <= 0 {
		return fmt.Errorf("retrieval top_k must be positive: got %d", c.Retrieval.TopK)
	}
	return nil
}

// CORSOriginsList はカンマ区切りのCORSオリジンをスライスに展開します
func (c *Config) CORSOriginsList() []string {
	parts := strings.Split(c.CORSOrigins, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

// IsProduction は本番環境かどうかを返します
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// getEnv は環境変数を取得し、存在しない場合はデフォルト値を返します
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt は環境変数を整数として取得します
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsFloat は環境変数を浮動小数点数として取得します
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}
