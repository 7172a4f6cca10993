package api

import (
	"errors"

	"github.com/SaweraMunawar/AI-Native-Book-backend/internal/core/apperr"
	"github.com/gofiber/fiber/v2"
)

// ErrorCode はAPIレスポンスの機械可読エラーコード
type ErrorCode string

const (
	CodeInvalidRequest      ErrorCode = "INVALID_REQUEST"
	CodeMessageTooLong      ErrorCode = "MESSAGE_TOO_LONG"
	CodeSelectedTextTooLong ErrorCode = "SELECTED_TEXT_TOO_LONG"
	CodeRateLimitExceeded   ErrorCode = "RATE_LIMIT_EXCEEDED"
	CodeServiceUnavailable  ErrorCode = "SERVICE_UNAVAILABLE"
	CodeInternalError       ErrorCode = "INTERNAL_ERROR"
)

// Error は全エンドポイント共通のエラーレスポンス形式。
// {error, code, details} の形はクライアント契約なので変更しないこと
type Error struct {
	Status  int            `json:"-"`
	Message string         `json:"error"`
	Code    ErrorCode      `json:"code"`
	Details map[string]any `json:"details,omitempty"`
}

// Error は error インターフェースを実装する
func (e Error) Error() string {
	return e.Message
}

// NewError は新しい Error を作成する
func NewError(status int, code ErrorCode, message string) Error {
	return Error{
		Status:  status,
		Code:    code,
		Message: message,
	}
}

// ErrValidation はリクエスト検証エラーを返す
func ErrValidation(code ErrorCode, message string, details map[string]any) Error {
	return Error{
		Status:  fiber.StatusUnprocessableEntity,
		Code:    code,
		Message: message,
		Details: details,
	}
}

// ErrBadRequest は不正なJSONボディに対するエラーを返す
func ErrBadRequest() Error {
	return NewError(fiber.StatusBadRequest, CodeInvalidRequest, "invalid JSON request body")
}

// ErrorHandler はハンドラから返されたエラーをエラーレスポンス形式に変換する。
// fiber.Config.ErrorHandler として登録する
func ErrorHandler(c *fiber.Ctx, err error) error {
	var apiErr Error
	if errors.As(err, &apiErr) {
		return c.Status(apiErr.Status).JSON(apiErr)
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code := CodeInternalError
		if fiberErr.Code < fiber.StatusInternalServerError {
			code = CodeInvalidRequest
		}
		return c.Status(fiberErr.Code).JSON(NewError(fiberErr.Code, code, fiberErr.Message))
	}

	// 上流障害は検証エラーと区別して503で返す
	switch apperr.KindOf(err) {
	case apperr.KindUnavailable:
		return c.Status(fiber.StatusServiceUnavailable).JSON(Error{
			Status:  fiber.StatusServiceUnavailable,
			Code:    CodeServiceUnavailable,
			Message: "A required service is temporarily unavailable. Please try again later.",
			Details: map[string]any{"detail": err.Error()},
		})
	case apperr.KindValidation:
		return c.Status(fiber.StatusUnprocessableEntity).JSON(ErrValidation(CodeInvalidRequest, err.Error(), nil))
	}

	return c.Status(fiber.StatusInternalServerError).JSON(Error{
		Status:  fiber.StatusInternalServerError,
		Code:    CodeInternalError,
		Message: "An unexpected error occurred while processing your message.",
		Details: map[string]any{"detail": err.Error()},
	})
}
