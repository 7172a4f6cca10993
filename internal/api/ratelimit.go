package api

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
)

const (
	// DefaultRateLimitRequests はウィンドウあたりの許容リクエスト数
	DefaultRateLimitRequests = 100

	// DefaultRateLimitWindow は固定ウィンドウの長さ
	DefaultRateLimitWindow = time.Hour
)

type rateLimitEntry struct {
	count       int
	windowStart time.Time
}

// RateLimiter はクライアント単位の固定ウィンドウレート制限。
// クライアント識別子はハッシュ化して保持し、生のIPは保存しない
type RateLimiter struct {
	mu      sync.Mutex
	entries map[string]*rateLimitEntry
	limit   int
	window  time.Duration
	now     func() time.Time
}

// NewRateLimiter は新しい RateLimiter を作成する
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	if limit <= 0 {
		limit = DefaultRateLimitRequests
	}
	if window <= 0 {
		window = DefaultRateLimitWindow
	}
	return &RateLimiter{
		entries: make(map[string]*rateLimitEntry),
		limit:   limit,
		window:  window,
		now:     time.Now,
	}
}

// Allow は識別子のリクエストを許可するか判定する。
// 拒否時は再試行までの秒数を返す
func (rl *RateLimiter) Allow(clientHash string) (bool, int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	entry, ok := rl.entries[clientHash]
	if !ok || now.Sub(entry.windowStart) >= rl.window {
		rl.entries[clientHash] = &rateLimitEntry{count: 1, windowStart: now}
		return true, 0
	}

	if entry.count >= rl.limit {
		retryAfter := int((rl.window - now.Sub(entry.windowStart)).Seconds())
		if retryAfter < 1 {
			retryAfter = 1
		}
		return false, retryAfter
	}

	entry.count++
	return true, 0
}

// Middleware は /chat 配下のエンドポイントにレート制限を適用する
func (rl *RateLimiter) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !strings.HasPrefix(c.Path(), "/chat") {
			return c.Next()
		}

		allowed, retryAfter := rl.Allow(clientHash(c))
		if !allowed {
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(retryAfter))
			return c.Status(fiber.StatusTooManyRequests).JSON(Error{
				Status:  fiber.StatusTooManyRequests,
				Code:    CodeRateLimitExceeded,
				Message: "Rate limit exceeded. Please try again later.",
				Details: map[string]any{"retry_after": retryAfter},
			})
		}
		return c.Next()
	}
}

// clientHash はクライアント識別子のSHA-256ハッシュを返す。
// プロキシ経由ではX-Forwarded-Forの先頭エントリを優先する
func clientHash(c *fiber.Ctx) string {
	identifier := c.IP()
	if forwarded := c.Get(fiber.HeaderXForwardedFor); forwarded != "" {
		identifier = strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	sum := sha256.Sum256([]byte(identifier))
	return hex.EncodeToString(sum[:])
}
