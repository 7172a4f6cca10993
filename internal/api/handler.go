package api

import (
	"context"
	"log/slog"

	"github.com/SaweraMunawar/AI-Native-Book-backend/internal/core/chat"
	"github.com/SaweraMunawar/AI-Native-Book-backend/internal/core/health"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/samber/mo"
)

// ChatService はチャットエンドポイントが依存する操作
type ChatService interface {
	Ask(ctx context.Context, params chat.AskParams) (*chat.Response, error)
	AskWithContext(ctx context.Context, params chat.ContextualAskParams) (*chat.Response, error)
}

// ChatHandler はチャットエンドポイントのハンドラ
type ChatHandler struct {
	chatService ChatService
	logger      *slog.Logger
}

// NewChatHandler は新しい ChatHandler を作成する
func NewChatHandler(chatService ChatService, logger *slog.Logger) *ChatHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChatHandler{
		chatService: chatService,
		logger:      logger,
	}
}

// HandleChat は POST /chat を処理する
func (h *ChatHandler) HandleChat(c *fiber.Ctx) error {
	var req ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return ErrBadRequest()
	}
	if err := req.Validate(); err != nil {
		return err
	}

	resp, err := h.chatService.Ask(c.UserContext(), chat.AskParams{
		Message:   req.Message,
		SessionID: optionalUUID(req.SessionID),
	})
	if err != nil {
		h.logger.Error("chat request failed", "error", err)
		return err
	}

	return c.JSON(resp)
}

// HandleContextualChat は POST /chat/context を処理する
func (h *ChatHandler) HandleContextualChat(c *fiber.Ctx) error {
	var req ContextualChatRequest
	if err := c.BodyParser(&req); err != nil {
		return ErrBadRequest()
	}
	if err := req.Validate(); err != nil {
		return err
	}

	params := chat.ContextualAskParams{
		Message:      req.Message,
		SelectedText: req.SelectedText,
		SessionID:    optionalUUID(req.SessionID),
	}
	if req.ChapterSlug != nil && *req.ChapterSlug != "" {
		params.ChapterSlug = mo.Some(*req.ChapterSlug)
	}

	resp, err := h.chatService.AskWithContext(c.UserContext(), params)
	if err != nil {
		h.logger.Error("contextual chat request failed", "error", err)
		return err
	}

	return c.JSON(resp)
}

func optionalUUID(id *uuid.UUID) mo.Option[uuid.UUID] {
	if id == nil {
		return mo.None[uuid.UUID]()
	}
	return mo.Some(*id)
}

// HealthService はヘルスエンドポイントが依存する操作
type HealthService interface {
	Report(ctx context.Context) health.Report
}

// HealthHandler はヘルスチェックエンドポイントのハンドラ
type HealthHandler struct {
	healthService HealthService
}

// NewHealthHandler は新しい HealthHandler を作成する
func NewHealthHandler(healthService HealthService) *HealthHandler {
	return &HealthHandler{healthService: healthService}
}

// HandleHealth は GET /health を処理する。unhealthy のときは503を返す
func (h *HealthHandler) HandleHealth(c *fiber.Ctx) error {
	report := h.healthService.Report(c.UserContext())

	status := fiber.StatusOK
	if report.Status == health.StatusUnhealthy {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(report)
}

// HandleRoot は GET / を処理する
func HandleRoot(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": "Textbook RAG Chatbot API",
		"docs":    "/docs",
	})
}
