package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("QDRANT_URL", "http://localhost:6333")
	t.Setenv("GROQ_API_KEY", "gsk_test")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Empty(t, cfg.LogLevel)
	assert.Equal(t, "textbook_embeddings", cfg.Qdrant.Collection)
	assert.Equal(t, "llama-3.1-8b-instant", cfg.Groq.Model)
	assert.Equal(t, "sentence-transformers/all-MiniLM-L6-v2", cfg.Embedding.Model)
	assert.Equal(t, 384, cfg.Embedding.Dimension)
	assert.Equal(t, 3, cfg.Retrieval.TopK)
	assert.Equal(t, 0.7, cfg.Retrieval.HighThreshold)
	assert.Equal(t, 0.4, cfg.Retrieval.LowThreshold)
	assert.Equal(t, 512, cfg.Chunking.MaxTokens)
	assert.Equal(t, 50, cfg.Chunking.OverlapTokens)
	assert.Equal(t, 100, cfg.RateLimit.Requests)
	assert.Equal(t, time.Hour, cfg.RateLimit.Window)
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("RETRIEVAL_TOP_K", "5")
	t.Setenv("CONFIDENCE_HIGH_THRESHOLD", "0.8")
	t.Setenv("RATE_LIMIT_WINDOW_SECONDS", "60")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Retrieval.TopK)
	assert.Equal(t, 0.8, cfg.Retrieval.HighThreshold)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_MissingCredentials(t *testing.T) {
	t.Run("missing qdrant URL", func(t *testing.T) {
		t.Setenv("QDRANT_URL", "")
		t.Setenv("GROQ_API_KEY", "gsk_test")

		_, err := Load("")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrQdrantURLNotSet)
	})

	t.Run("missing groq API key", func(t *testing.T) {
		t.Setenv("QDRANT_URL", "http://localhost:6333")
		t.Setenv("GROQ_API_KEY", "")

		_, err := Load("")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrGroqAPIKeyNotSet)
	})
}

func TestLoad_InvalidThresholds(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CONFIDENCE_HIGH_THRESHOLD", "0.3")
	t.Setenv("CONFIDENCE_LOW_THRESHOLD", "0.6")

	_, err := Load("")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidThresholds)
}

func TestLoad_InvalidChunkOverlap(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CHUNK_MAX_TOKENS", "100")
	t.Setenv("CHUNK_OVERLAP_TOKENS", "100")

	_, err := Load("")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidChunkOverlap)
}

func TestConfig_CORSOriginsList(t *testing.T) {
	cfg := &Config{CORSOrigins: "http://localhost:3000, https://book.example.com ,"}
	assert.Equal(t, []string{"http://localhost:3000", "https://book.example.com"}, cfg.CORSOriginsList())
}

func TestConfig_IsProduction(t *testing.T) {
	assert.True(t, (&Config{Environment: "production"}).IsProduction())
	assert.True(t, (&Config{Environment: "Production"}).IsProduction())
	assert.False(t, (&Config{Environment: "development"}).IsProduction())
}
