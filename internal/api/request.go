package api

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = validator.New()

// ChatRequest は POST /chat のリクエストボディ
type ChatRequest struct {
	Message   string     `json:"message" validate:"required,max=2000"`
	SessionID *uuid.UUID `json:"session_id"`
}

// ContextualChatRequest は POST /chat/context のリクエストボディ
type ContextualChatRequest struct {
	Message      string     `json:"message" validate:"required,max=2000"`
	SelectedText string     `json:"selected_text" validate:"required,min=10,max=500"`
	ChapterSlug  *string    `json:"chapter_slug" validate:"omitempty,max=100"`
	SessionID    *uuid.UUID `json:"session_id"`
}

// Validate はフィールド検証を行い、違反フィールドごとに区別可能な
// エラーコードを割り当てて返す
func (r *ChatRequest) Validate() error {
	return validateRequest(r)
}

// Validate はフィールド検証を行う
func (r *ContextualChatRequest) Validate() error {
	return validateRequest(r)
}

func validateRequest(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return ErrValidation(CodeInvalidRequest, "invalid request", nil)
	}

	details := make(map[string]any, len(verrs))
	code := CodeInvalidRequest
	message := "request validation failed"
	for _, ve := range verrs {
		details[ve.Field()] = fmt.Sprintf("failed on '%s' validation", ve.Tag())

		switch {
		case ve.Field() == "Message" && ve.Tag() == "max":
			code = CodeMessageTooLong
			message = "Message exceeds maximum length of 2000 characters."
		case ve.Field() == "SelectedText" && (ve.Tag() == "max" || ve.Tag() == "min"):
			code = CodeSelectedTextTooLong
			message = "Selected text must be between 10 and 500 characters."
		}
	}

	return ErrValidation(code, message, details)
}
