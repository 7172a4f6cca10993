// Package health は依存サービスの疎通確認と全体ステータスの集約を提供します。
package health

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Status はシステム全体のヘルスステータス
type Status string

const (
	// StatusHealthy は全依存が疎通
	StatusHealthy Status = "healthy"

	// StatusDegraded は必須依存は疎通しているが、一部の任意依存が落ちている
	StatusDegraded Status = "degraded"

	// StatusUnhealthy はチャット経路に必須の依存（ベクトルストアまたはLLM）が落ちている
	StatusUnhealthy Status = "unhealthy"
)

// DependencyStatus は個別依存の疎通状態
type DependencyStatus string

const (
	// DependencyUp は疎通確認に成功
	DependencyUp DependencyStatus = "up"

	// DependencyDown は疎通確認に失敗
	DependencyDown DependencyStatus = "down"
)

// DefaultCheckTimeout は1依存あたりの疎通確認タイムアウト
const DefaultCheckTimeout = 5 * time.Second

// Checker は1依存分の疎通確認
type Checker struct {
	// Name は依存名（応答のdependenciesキーになる）
	Name string

	// Critical はチャット経路に必須の依存かどうか
	Critical bool

	// Check は疎通確認。nil を返せば up
	Check func(ctx context.Context) error
}

// Report はヘルスチェック1回分の結果
type Report struct {
	Status       Status                      `json:"status"`
	Timestamp    time.Time                   `json:"timestamp"`
	Dependencies map[string]DependencyStatus `json:"dependencies"`
}

// Service は依存の疎通確認を並列実行し、全体ステータスへ集約します
type Service struct {
	checkers []Checker
	timeout  time.Duration
	logger   *slog.Logger
}

// ServiceOption は Service のオプション設定
type ServiceOption func(*Service)

// WithLogger はロガーを差し替える
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithCheckTimeout は依存ごとのタイムアウトを上書きする
func WithCheckTimeout(timeout time.Duration) ServiceOption {
	return func(s *Service) {
		s.timeout = timeout
	}
}

// NewService は新しい Service を作成します
func NewService(checkers []Checker, opts ...ServiceOption) *Service {
	s := &Service{
		checkers: checkers,
		timeout:  DefaultCheckTimeout,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Report は全依存を並列に確認し、全体ステータスを返します。
// 全依存up→healthy、必須依存のみup→degraded、必須依存down→unhealthy
func (s *Service) Report(ctx context.Context) Report {
	statuses := make(map[string]DependencyStatus, len(s.checkers))

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, c := range s.checkers {
		wg.Add(1)
		go func(c Checker) {
			defer wg.Done()

			checkCtx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()

			status := DependencyUp
			if err := c.Check(checkCtx); err != nil {
				status = DependencyDown
				s.logger.Warn("dependency check failed", "dependency", c.Name, "error", err)
			}

			mu.Lock()
			statuses[c.Name] = status
			mu.Unlock()
		}(c)
	}
	wg.Wait()

	allUp := true
	criticalUp := true
	for _, c := range s.checkers {
		if statuses[c.Name] == DependencyUp {
			continue
		}
		allUp = false
		if c.Critical {
			criticalUp = false
		}
	}

	overall := StatusUnhealthy
	switch {
	case allUp:
		overall = StatusHealthy
	case criticalUp:
		overall = StatusDegraded
	}

	return Report{
		Status:       overall,
		Timestamp:    time.Now().UTC(),
		Dependencies: statuses,
	}
}
