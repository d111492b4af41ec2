package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/SelahattinSert/listigo-demo/internal/model"
)

// PostgresSessionRepo はPostgreSQLを使用したセッションリポジトリ。
type PostgresSessionRepo struct {
	db *sql.DB
}

// NewPostgresSessionRepo はPostgresSessionRepoを生成する。
func NewPostgresSessionRepo(db *sql.DB) *PostgresSessionRepo {
	return &PostgresSessionRepo{db: db}
}

// FindByUserID は指定ユーザーのセッションを取得する。見つからない場合はnilを返す。
func (r *PostgresSessionRepo) FindByUserID(ctx context.Context, userID string) (*model.Session, error) {
	session := &model.Session{}
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, refresh_token, refresh_token_expiration
		 FROM sessions WHERE user_id = $1`,
		userID,
	).Scan(&session.UserID, &session.RefreshToken, &session.RefreshTokenExpiration)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}

	return session, nil
}

// Upsert はセッションを冪等に保存する。既存セッションは上書きされる。
func (r *PostgresSessionRepo) Upsert(ctx context.Context, session *model.Session) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (user_id, refresh_token, refresh_token_expiration)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_id) DO UPDATE
		 SET refresh_token = EXCLUDED.refresh_token,
		     refresh_token_expiration = EXCLUDED.refresh_token_expiration`,
		session.UserID, session.RefreshToken, session.RefreshTokenExpiration,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert session: %w", err)
	}
	return nil
}

// Rotate は保存中のリフレッシュトークンがcurrentTokenと一致する場合のみ
// 新しいトークンに置き換える。条件付きUPDATEにより並行リフレッシュでは
// 先着の1リクエストのみが成功し、残りはErrRotationConflictを受け取る。
func (r *PostgresSessionRepo) Rotate(ctx context.Context, session *model.Session, currentToken string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE sessions
		 SET refresh_token = $3, refresh_token_expiration = $4
		 WHERE user_id = $1 AND refresh_token = $2`,
		session.UserID, currentToken, session.RefreshToken, session.RefreshTokenExpiration,
	)
	if err != nil {
		return fmt.Errorf("failed to rotate session: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrRotationConflict
	}
	return nil
}

// DeleteByUserID は指定ユーザーのセッションを削除する。
func (r *PostgresSessionRepo) DeleteByUserID(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteExpired は有効期限切れのセッションを削除し、削除件数を返す。
func (r *PostgresSessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE refresh_token_expiration <= now()`,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected, nil
}

// compile-time interface check
var _ SessionRepository = (*PostgresSessionRepo)(nil)
