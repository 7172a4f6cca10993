// Package postgres はNeon (PostgreSQL) への疎通確認アダプタを提供します。
package postgres

import (
	"context"
	"fmt"

	"github.com/SaweraMunawar/AI-Native-Book-backend/internal/core/apperr"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Checker はPostgreSQLプールに対するヘルスチェック実装
type Checker struct {
	pool *pgxpool.Pool
}

// NewChecker は接続文字列からプールを作成して Checker を返す。
// 接続確立はチェック時まで遅延される
func NewChecker(ctx context.Context, databaseURL string) (*Checker, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	return &Checker{pool: pool}, nil
}

// Check は SELECT 1 でデータベースへの疎通を確認します
func (c *Checker) Check(ctx context.Context) error {
	var one int
	if err := c.pool.QueryRow(ctx, "SELECT 1").Scan(&one); err != nil {
		return apperr.Unavailable("database unreachable", err)
	}
	return nil
}

// Close はプールを閉じます
func (c *Checker) Close() {
	c.pool.Close()
}
