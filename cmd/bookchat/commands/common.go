package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SaweraMunawar/AI-Native-Book-backend/internal/core/chat"
	"github.com/SaweraMunawar/AI-Native-Book-backend/internal/core/chunk"
	"github.com/SaweraMunawar/AI-Native-Book-backend/internal/core/generation"
	"github.com/SaweraMunawar/AI-Native-Book-backend/internal/core/health"
	"github.com/SaweraMunawar/AI-Native-Book-backend/internal/core/ingestion"
	"github.com/SaweraMunawar/AI-Native-Book-backend/internal/core/retrieval"
	"github.com/SaweraMunawar/AI-Native-Book-backend/internal/infra/embedding"
	"github.com/SaweraMunawar/AI-Native-Book-backend/internal/infra/groq"
	"github.com/SaweraMunawar/AI-Native-Book-backend/internal/infra/postgres"
	"github.com/SaweraMunawar/AI-Native-Book-backend/internal/infra/qdrant"
	"github.com/SaweraMunawar/AI-Native-Book-backend/internal/platform/logger"
	"github.com/SaweraMunawar/AI-Native-Book-backend/pkg/config"
)

// AppContext はコマンド実行に必要な共通コンテキストを保持する
type AppContext struct {
	Config   *config.Config
	Logger   *slog.Logger
	Qdrant   *qdrant.Client
	Embedder *embedding.Embedder
	Groq     *groq.Client

	neonChecker *postgres.Checker
}

// NewAppContext は設定を読み込み、外部依存クライアントを組み立てて AppContext を作成する
func NewAppContext(ctx context.Context, envFile string) (*AppContext, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, fmt.Errorf("設定の読み込みに失敗: %w", err)
	}

	logCfg := logger.FromEnvironment(cfg.Environment)
	if cfg.LogLevel != "" {
		logCfg.Level = logger.ParseLevel(cfg.LogLevel)
	}
	appLogger := logger.New(logCfg)

	if cfg.IsProduction() && cfg.Qdrant.APIKey == "" {
		appLogger.Warn("QDRANT_API_KEYが未設定のまま本番環境で起動します")
	}

	qdrantClient := qdrant.NewClient(qdrant.Config{
		URL:        cfg.Qdrant.URL,
		APIKey:     cfg.Qdrant.APIKey,
		Collection: cfg.Qdrant.Collection,
	}, qdrant.WithLogger(appLogger))

	embedder, err := embedding.NewEmbedder(
		cfg.Embedding.BaseURL,
		cfg.Embedding.APIKey,
		embedding.WithModel(cfg.Embedding.Model),
		embedding.WithDimension(cfg.Embedding.Dimension),
	)
	if err != nil {
		return nil, fmt.Errorf("埋め込みクライアントの初期化に失敗: %w", err)
	}

	groqClient, err := groq.NewClient(
		cfg.Groq.APIKey,
		groq.WithBaseURL(cfg.Groq.BaseURL),
		groq.WithModel(cfg.Groq.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("Groqクライアントの初期化に失敗: %w", err)
	}

	appCtx := &AppContext{
		Config:   cfg,
		Logger:   appLogger,
		Qdrant:   qdrantClient,
		Embedder: embedder,
		Groq:     groqClient,
	}

	// Neonは任意依存。未設定ならヘルスチェック対象から外す
	if cfg.DatabaseURL != "" {
		checker, err := postgres.NewChecker(ctx, cfg.DatabaseURL)
		if err != nil {
			appLogger.Warn("Neonチェッカーの初期化に失敗", "error", err)
		} else {
			appCtx.neonChecker = checker
		}
	}

	return appCtx, nil
}

// Close はAppContextが保持するリソースをクリーンアップする
func (ac *AppContext) Close() {
	if ac.neonChecker != nil {
		ac.neonChecker.Close()
	}
}

// NewChatService は検索・生成サービスを組み立ててチャットサービスを作成する
func (ac *AppContext) NewChatService() (*chat.Service, error) {
	retriever, err := retrieval.NewService(
		ac.Embedder,
		ac.Qdrant,
		ac.Config.Retrieval.TopK,
		retrieval.Thresholds{
			High: ac.Config.Retrieval.HighThreshold,
			Low:  ac.Config.Retrieval.LowThreshold,
		},
		retrieval.WithLogger(ac.Logger),
	)
	if err != nil {
		return nil, fmt.Errorf("検索サービスの初期化に失敗: %w", err)
	}

	generator, err := generation.NewService(ac.Groq, generation.WithLogger(ac.Logger))
	if err != nil {
		return nil, fmt.Errorf("生成サービスの初期化に失敗: %w", err)
	}

	return chat.NewService(retriever, generator, chat.WithLogger(ac.Logger)), nil
}

// NewIngestionService は取り込みパイプラインを組み立てる
func (ac *AppContext) NewIngestionService() (*ingestion.Service, error) {
	chunker, err := chunk.New(
		chunk.WithMaxTokens(ac.Config.Chunking.MaxTokens),
		chunk.WithOverlapTokens(ac.Config.Chunking.OverlapTokens),
	)
	if err != nil {
		return nil, fmt.Errorf("チャンカーの初期化に失敗: %w", err)
	}

	return ingestion.NewService(chunker, ac.Embedder, ac.Qdrant, ingestion.WithLogger(ac.Logger)), nil
}

// NewHealthService はヘルスチェックサービスを組み立てる。
// QdrantとGroqはチャット経路に必須、Neonは任意
func (ac *AppContext) NewHealthService() *health.Service {
	checkers := []health.Checker{
		{Name: "qdrant", Critical: true, Check: ac.Qdrant.Healthy},
		{Name: "groq", Critical: true, Check: ac.Groq.Healthy},
	}
	if ac.neonChecker != nil {
		checkers = append(checkers, health.Checker{
			Name: "neon", Critical: false, Check: ac.neonChecker.Check,
		})
	}
	return health.NewService(checkers, health.WithLogger(ac.Logger))
}
