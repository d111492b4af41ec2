package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/SelahattinSert/listigo-demo/internal/model"
)

// PostgresMessageRepo はPostgreSQLを使用したメッセージリポジトリ。
type PostgresMessageRepo struct {
	db *sql.DB
}

// NewPostgresMessageRepo はPostgresMessageRepoを生成する。
func NewPostgresMessageRepo(db *sql.DB) *PostgresMessageRepo {
	return &PostgresMessageRepo{db: db}
}

// FindByID は指定IDのメッセージを取得する。見つからない場合はnilを返す。
func (r *PostgresMessageRepo) FindByID(ctx context.Context, id int64) (*model.Message, error) {
	message := &model.Message{}
	err := r.db.QueryRowContext(ctx,
		`SELECT message_id, sender_id, receiver_id, listing_id, content, sent_at, is_read
		 FROM messages WHERE message_id = $1`,
		id,
	).Scan(&message.ID, &message.SenderID, &message.ReceiverID, &message.ListingID,
		&message.Content, &message.SentAt, &message.IsRead)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find message by ID: %w", err)
	}

	return message, nil
}

// Create はメッセージを作成し、採番されたIDをmessage.IDに設定する。
func (r *PostgresMessageRepo) Create(ctx context.Context, message *model.Message) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO messages (sender_id, receiver_id, listing_id, content, sent_at, is_read)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING message_id`,
		message.SenderID, message.ReceiverID, message.ListingID,
		message.Content, message.SentAt, message.IsRead,
	).Scan(&message.ID)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

// ListByListingAndUser は指定出品について、userIDが送信者または受信者である
// メッセージを送信日時昇順で返す。
func (r *PostgresMessageRepo) ListByListingAndUser(ctx context.Context, listingID int64, userID string) ([]*model.Message, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT message_id, sender_id, receiver_id, listing_id, content, sent_at, is_read
		 FROM messages
		 WHERE listing_id = $1 AND (sender_id = $2 OR receiver_id = $2)
		 ORDER BY sent_at ASC`,
		listingID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []*model.Message
	for rows.Next() {
		message := &model.Message{}
		err := rows.Scan(&message.ID, &message.SenderID, &message.ReceiverID,
			&message.ListingID, &message.Content, &message.SentAt, &message.IsRead)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, message)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}

	return messages, nil
}

// MarkRead は指定メッセージを既読にする。
func (r *PostgresMessageRepo) MarkRead(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE messages SET is_read = TRUE WHERE message_id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark message read: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("message not found: %d", id)
	}
	return nil
}

// DeleteByListingAndUser は指定出品についてuserIDが関与する全メッセージを削除し、
// 削除件数を返す。
func (r *PostgresMessageRepo) DeleteByListingAndUser(ctx context.Context, listingID int64, userID string) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM messages
		 WHERE listing_id = $1 AND (sender_id = $2 OR receiver_id = $2)`,
		listingID, userID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete messages: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected, nil
}

// compile-time interface check
var _ MessageRepository = (*PostgresMessageRepo)(nil)
