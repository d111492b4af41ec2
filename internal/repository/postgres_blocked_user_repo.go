package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresBlockedUserRepo はPostgreSQLを使用したブロックリストリポジトリ。
type PostgresBlockedUserRepo struct {
	db *sql.DB
}

// NewPostgresBlockedUserRepo はPostgresBlockedUserRepoを生成する。
func NewPostgresBlockedUserRepo(db *sql.DB) *PostgresBlockedUserRepo {
	return &PostgresBlockedUserRepo{db: db}
}

// Exists はblockerがblockedをブロックしているかを返す。
func (r *PostgresBlockedUserRepo) Exists(ctx context.Context, blockerID, blockedID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM blocked_users WHERE blocker_id = $1 AND blocked_id = $2
		 )`,
		blockerID, blockedID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check block existence: %w", err)
	}
	return exists, nil
}

// Create はブロック関係を作成する。すでに存在する場合は何もしない。
func (r *PostgresBlockedUserRepo) Create(ctx context.Context, blockerID, blockedID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO blocked_users (blocker_id, blocked_id)
		 VALUES ($1, $2)
		 ON CONFLICT (blocker_id, blocked_id) DO NOTHING`,
		blockerID, blockedID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert block: %w", err)
	}
	return nil
}

// compile-time interface check
var _ BlockedUserRepository = (*PostgresBlockedUserRepo)(nil)
