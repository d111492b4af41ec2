// Package message は出品に紐づくメッセージ送受信のドメインロジックを提供する。
package message

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SelahattinSert/listigo-demo/internal/model"
	"github.com/SelahattinSert/listigo-demo/internal/repository"
	"github.com/SelahattinSert/listigo-demo/internal/security"
)

// Service はメッセージのビジネスロジックを提供する。
// 会話は必ず出品の所有者と相手の二者間で行われる。
type Service struct {
	messageRepo repository.MessageRepository
	listingRepo repository.ListingRepository
	userRepo    repository.UserRepository
	blockedRepo repository.BlockedUserRepository
	sanitizer   security.TextSanitizerService
}

// NewService はServiceを生成する。
func NewService(
	messageRepo repository.MessageRepository,
	listingRepo repository.ListingRepository,
	userRepo repository.UserRepository,
	blockedRepo repository.BlockedUserRepository,
	sanitizer security.TextSanitizerService,
) *Service {
	return &Service{
		messageRepo: messageRepo,
		listingRepo: listingRepo,
		userRepo:    userRepo,
		blockedRepo: blockedRepo,
		sanitizer:   sanitizer,
	}
}

// Send は出品についてのメッセージを送信する。
// 制約:
//   - 出品が存在すること
//   - 受信者が存在すること
//   - 自分自身への送信は不可
//   - 送信者と受信者のどちらか一方のみが出品の所有者であること
//   - 受信者が送信者をブロックしている場合は送信不可
func (s *Service) Send(ctx context.Context, senderID, receiverID string, listingID int64, content string) (*model.Message, error) {
	listing, err := s.listingRepo.FindByID(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("failed to find listing: %w", err)
	}
	if listing == nil {
		return nil, model.NewListingNotFoundError(listingID)
	}

	receiver, err := s.userRepo.FindByID(ctx, receiverID)
	if err != nil {
		return nil, fmt.Errorf("failed to find receiver: %w", err)
	}
	if receiver == nil {
		return nil, model.NewUserNotFoundError()
	}

	if senderID == receiverID {
		return nil, model.NewInvalidMessageError("自分自身にメッセージは送れません")
	}

	senderIsOwner := listing.UserID == senderID
	receiverIsOwner := listing.UserID == receiverID
	if senderIsOwner == receiverIsOwner {
		return nil, model.NewInvalidMessageError("メッセージは出品者と購入希望者の間でのみ送信できます")
	}

	blocked, err := s.blockedRepo.Exists(ctx, receiverID, senderID)
	if err != nil {
		return nil, fmt.Errorf("failed to check block: %w", err)
	}
	if blocked {
		return nil, model.NewUserBlockedError("このユーザーにメッセージを送ることはできません")
	}

	message := &model.Message{
		SenderID:   senderID,
		ReceiverID: receiverID,
		ListingID:  listingID,
		Content:    s.sanitizer.Sanitize(content),
		SentAt:     time.Now(),
		IsRead:     false,
	}
	if err := s.messageRepo.Create(ctx, message); err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	slog.Info("message sent",
		slog.Int64("message_id", message.ID),
		slog.Int64("listing_id", listingID),
		slog.String("sender_id", senderID),
	)
	return message, nil
}

// ListByListing は指定出品についてuserIDが参加している会話を返す。
// 取得時にuserID宛の未読メッセージを既読にする。
// 会話が存在しない場合はMESSAGE_NOT_FOUNDを返す。
func (s *Service) ListByListing(ctx context.Context, listingID int64, userID string) ([]*model.Message, error) {
	listing, err := s.listingRepo.FindByID(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("failed to find listing: %w", err)
	}
	if listing == nil {
		return nil, model.NewListingNotFoundError(listingID)
	}

	messages, err := s.messageRepo.ListByListingAndUser(ctx, listingID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	if len(messages) == 0 {
		return nil, model.NewMessageNotFoundError(listingID)
	}

	for _, message := range messages {
		if message.ReceiverID == userID && !message.IsRead {
			if err := s.messageRepo.MarkRead(ctx, message.ID); err != nil {
				return nil, fmt.Errorf("failed to mark message read: %w", err)
			}
			message.IsRead = true
		}
	}

	return messages, nil
}

// DeleteConversation は指定出品についてuserIDが参加している会話を削除する。
// 会話が存在しない場合はMESSAGE_NOT_FOUNDを返す。
func (s *Service) DeleteConversation(ctx context.Context, listingID int64, userID string) error {
	listing, err := s.listingRepo.FindByID(ctx, listingID)
	if err != nil {
		return fmt.Errorf("failed to find listing: %w", err)
	}
	if listing == nil {
		return model.NewListingNotFoundError(listingID)
	}

	deleted, err := s.messageRepo.DeleteByListingAndUser(ctx, listingID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	if deleted == 0 {
		return model.NewMessageNotFoundError(listingID)
	}

	slog.Info("conversation deleted",
		slog.Int64("listing_id", listingID),
		slog.String("user_id", userID),
	)
	return nil
}
