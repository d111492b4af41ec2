package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/SelahattinSert/listigo-demo/internal/middleware"
	"github.com/SelahattinSert/listigo-demo/internal/model"
)

// MessageServiceInterface はメッセージハンドラーが必要とするサービスインターフェース。
type MessageServiceInterface interface {
	// Send は出品に紐づくメッセージを送信する。
	Send(ctx context.Context, senderID, receiverID string, listingID int64, content string) (*model.Message, error)
	// ListByListing は出品ごとの会話を取得し、受信側の未読を既読化する。
	ListByListing(ctx context.Context, listingID int64, userID string) ([]*model.Message, error)
	// DeleteConversation は出品に紐づく自分宛ての会話を削除する。
	DeleteConversation(ctx context.Context, listingID int64, userID string) error
}

// MessageHandler は出品メッセージのHTTPハンドラー。
type MessageHandler struct {
	service MessageServiceInterface
}

// NewMessageHandler はMessageHandlerを生成する。
func NewMessageHandler(service MessageServiceInterface) *MessageHandler {
	return &MessageHandler{service: service}
}

// sendMessageRequest はメッセージ送信リクエストのボディ。
type sendMessageRequest struct {
	ReceiverID string `json:"receiver_id"`
	Content    string `json:"content"`
}

// messageResponse はメッセージのAPIレスポンス。
type messageResponse struct {
	ID         int64  `json:"id"`
	SenderID   string `json:"sender_id"`
	ReceiverID string `json:"receiver_id"`
	ListingID  int64  `json:"listing_id"`
	Content    string `json:"content"`
	SentAt     string `json:"sent_at"`
	IsRead     bool   `json:"is_read"`
}

// Send は出品に対するメッセージを送信する。
// POST /api/v1/listings/{listingId}/messages
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	principal, err := middleware.PrincipalFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	listingID, ok := listingIDFromURL(w, r)
	if !ok {
		return
	}

	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	if req.Content == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "メッセージ本文は必須です。",
			Category: "validation",
			Action:   "本文を入力してください。",
		})
		return
	}

	sent, err := h.service.Send(r.Context(), principal.UserID, req.ReceiverID, listingID, req.Content)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toMessageResponse(sent))
}

// List は出品ごとの会話を取得する。取得した自分宛ての未読は既読になる。
// GET /api/v1/listings/{listingId}/messages
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	principal, err := middleware.PrincipalFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	listingID, ok := listingIDFromURL(w, r)
	if !ok {
		return
	}

	messages, err := h.service.ListByListing(r.Context(), listingID, principal.UserID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]messageResponse, 0, len(messages))
	for _, m := range messages {
		responses = append(responses, toMessageResponse(m))
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(responses)
}

// DeleteConversation は出品に紐づく自分の会話を削除する。
// DELETE /api/v1/listings/{listingId}/messages
func (h *MessageHandler) DeleteConversation(w http.ResponseWriter, r *http.Request) {
	principal, err := middleware.PrincipalFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	listingID, ok := listingIDFromURL(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteConversation(r.Context(), listingID, principal.UserID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// toMessageResponse はmodel.MessageからAPIレスポンスに変換する。
func toMessageResponse(m *model.Message) messageResponse {
	return messageResponse{
		ID:         m.ID,
		SenderID:   m.SenderID,
		ReceiverID: m.ReceiverID,
		ListingID:  m.ListingID,
		Content:    m.Content,
		SentAt:     m.SentAt.Format(time.RFC3339),
		IsRead:     m.IsRead,
	}
}
