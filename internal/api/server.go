// Package api はFiberベースのHTTPインターフェース層を提供します。
package api

import (
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

// ServerConfig は Server の設定
type ServerConfig struct {
	ListenAddr        string
	CORSOrigins       []string
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

// Server はチャットAPIのHTTPサーバ
type Server struct {
	app    *fiber.App
	addr   string
	logger *slog.Logger
}

// NewServer はルーティングとミドルウェアを構成した Server を作成する
func NewServer(cfg ServerConfig, chatHandler *ChatHandler, healthHandler *HealthHandler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	app := fiber.New(fiber.Config{
		ErrorHandler:          ErrorHandler,
		DisableStartupMessage: true,
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.CORSOrigins, ","),
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Content-Type",
	}))

	limiter := NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow)
	app.Use(limiter.Middleware())

	app.Get("/", HandleRoot)
	app.Get("/health", healthHandler.HandleHealth)
	app.Post("/chat", chatHandler.HandleChat)
	app.Post("/chat/context", chatHandler.HandleContextualChat)

	return &Server{
		app:    app,
		addr:   cfg.ListenAddr,
		logger: logger,
	}
}

// App はFiberアプリケーションを返す（テスト用）
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen はHTTPサーバを起動してブロックする
func (s *Server) Listen() error {
	s.logger.Info("server starting", "addr", s.addr)
	return s.app.Listen(s.addr)
}

// Shutdown は処理中のリクエスト完了を待ってサーバを停止する
func (s *Server) Shutdown() error {
	s.logger.Info("server shutting down")
	return s.app.Shutdown()
}
