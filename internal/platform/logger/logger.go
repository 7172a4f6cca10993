// Package logger はアプリケーション共通の構造化ロガーを提供します。
package logger

import (
	"log/slog"
	"os"
	"strings"
)

// Config はロガーの設定
type Config struct {
	Level  slog.Level
	Format string // "json" or "text"
}

// DefaultConfig はデフォルトのロガー設定
func DefaultConfig() Config {
	return Config{
		Level:  slog.LevelInfo,
		Format: "json",
	}
}

// FromEnvironment は実行環境名に応じた設定を返します。
// 本番はJSON・Info、それ以外は読みやすいテキスト・Debug
func FromEnvironment(environment string) Config {
	if strings.EqualFold(environment, "production") {
		return Config{Level: slog.LevelInfo, Format: "json"}
	}
	return Config{Level: slog.LevelDebug, Format: "text"}
}

// ParseLevel はレベル名をslog.Levelに変換します。不明な名前は Info
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New は新しいロガーを作成し、デフォルトロガーとして設定します
func New(cfg Config) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: cfg.Level,
	}

	switch cfg.Format {
	case "text":
		handler = slog.NewTextHandler(os.Stdout, opts)
	default: // "json"
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger
}
