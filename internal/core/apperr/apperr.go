// Package apperr はアプリケーション共通のエラー種別を定義します。
// 上流サービス障害・バリデーション・設定不備・内部エラーを型で区別し、
// 呼び出し側が errors.As で分岐できるようにする。
package apperr

import (
	"errors"
	"fmt"
)

// Kind はエラーの分類
type Kind int

const (
	// KindInternal は予期しない内部エラー
	KindInternal Kind = iota

	// KindValidation は入力値の検証エラー
	KindValidation

	// KindUnavailable は上流サービス(ベクトルストア・LLM)の到達不能・非2xx応答
	KindUnavailable

	// KindConfig は起動時に検出すべき設定エラー
	KindConfig
)

// String は分類名を返します
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnavailable:
		return "unavailable"
	case KindConfig:
		return "config"
	default:
		return "internal"
	}
}

// Error は分類付きエラー
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Error は error インターフェースを実装します
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap はラップされた元エラーを返します
func (e *Error) Unwrap() error {
	return e.Err
}

// New は分類付きエラーを作成します
func New(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Unavailable は上流サービス障害エラーを作成します
func Unavailable(message string, err error) *Error {
	return New(KindUnavailable, message, err)
}

// Validation はバリデーションエラーを作成します
func Validation(message string) *Error {
	return New(KindValidation, message, nil)
}

// Internal は内部エラーを作成します
func Internal(message string, err error) *Error {
	return New(KindInternal, message, err)
}

// KindOf はエラーの分類を判定します。分類なしのエラーは KindInternal として扱います
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// IsUnavailable は上流サービス障害かどうかを返します
func IsUnavailable(err error) bool {
	return err != nil && KindOf(err) == KindUnavailable
}
