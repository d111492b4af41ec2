package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SelahattinSert/listigo-demo/internal/model"
)

// mockMessageService はMessageServiceInterfaceのモック実装。
type mockMessageService struct {
	sendFn               func(ctx context.Context, senderID, receiverID string, listingID int64, content string) (*model.Message, error)
	listByListingFn      func(ctx context.Context, listingID int64, userID string) ([]*model.Message, error)
	deleteConversationFn func(ctx context.Context, listingID int64, userID string) error
}

func (m *mockMessageService) Send(ctx context.Context, senderID, receiverID string, listingID int64, content string) (*model.Message, error) {
	if m.sendFn != nil {
		return m.sendFn(ctx, senderID, receiverID, listingID, content)
	}
	return nil, nil
}

func (m *mockMessageService) ListByListing(ctx context.Context, listingID int64, userID string) ([]*model.Message, error) {
	if m.listByListingFn != nil {
		return m.listByListingFn(ctx, listingID, userID)
	}
	return nil, nil
}

func (m *mockMessageService) DeleteConversation(ctx context.Context, listingID int64, userID string) error {
	if m.deleteConversationFn != nil {
		return m.deleteConversationFn(ctx, listingID, userID)
	}
	return nil
}

// --- POST /api/v1/listings/{listingId}/messages テスト ---

func TestMessageHandler_Send_Success(t *testing.T) {
	svc := &mockMessageService{
		sendFn: func(ctx context.Context, senderID, receiverID string, listingID int64, content string) (*model.Message, error) {
			if senderID != "buyer-1" || receiverID != "seller-1" || listingID != 42 {
				t.Errorf("send(%q, %q, %d)", senderID, receiverID, listingID)
			}
			return &model.Message{
				ID:         7,
				SenderID:   senderID,
				ReceiverID: receiverID,
				ListingID:  listingID,
				Content:    content,
				SentAt:     time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
			}, nil
		},
	}
	h := NewMessageHandler(svc)

	body := `{"receiver_id":"seller-1","content":"Hâlâ satılık mı?"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/listings/42/messages", bytes.NewBufferString(body))
	req = withChiURLParam(req, "listingId", "42")
	req = withPrincipal(req, "buyer-1", model.RoleUser)
	w := httptest.NewRecorder()

	h.Send(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusCreated)
	}
	var resp messageResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ID != 7 || resp.IsRead {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestMessageHandler_Send_EmptyContent(t *testing.T) {
	h := NewMessageHandler(&mockMessageService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/listings/42/messages", bytes.NewBufferString(`{"receiver_id":"seller-1"}`))
	req = withChiURLParam(req, "listingId", "42")
	req = withPrincipal(req, "buyer-1", model.RoleUser)
	w := httptest.NewRecorder()

	h.Send(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

// 出品者同士・無関係なユーザー同士の送信は400で返ること。
func TestMessageHandler_Send_InvalidTarget(t *testing.T) {
	svc := &mockMessageService{
		sendFn: func(ctx context.Context, senderID, receiverID string, listingID int64, content string) (*model.Message, error) {
			return nil, model.NewInvalidMessageError("メッセージは出品者と購入希望者の間でのみ送信できます")
		},
	}
	h := NewMessageHandler(svc)

	body := `{"receiver_id":"other","content":"merhaba"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/listings/42/messages", bytes.NewBufferString(body))
	req = withChiURLParam(req, "listingId", "42")
	req = withPrincipal(req, "buyer-1", model.RoleUser)
	w := httptest.NewRecorder()

	h.Send(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if got := parseAPIErrorResponse(t, w)["code"]; got != model.ErrCodeInvalidMessage {
		t.Errorf("code = %q, want %q", got, model.ErrCodeInvalidMessage)
	}
}

// ブロックされている相手への送信は403で返ること。
func TestMessageHandler_Send_Blocked(t *testing.T) {
	svc := &mockMessageService{
		sendFn: func(ctx context.Context, senderID, receiverID string, listingID int64, content string) (*model.Message, error) {
			return nil, model.NewUserBlockedError("この相手にはメッセージを送信できません。")
		},
	}
	h := NewMessageHandler(svc)

	body := `{"receiver_id":"seller-1","content":"merhaba"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/listings/42/messages", bytes.NewBufferString(body))
	req = withChiURLParam(req, "listingId", "42")
	req = withPrincipal(req, "buyer-1", model.RoleUser)
	w := httptest.NewRecorder()

	h.Send(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusForbidden)
	}
}

// --- GET /api/v1/listings/{listingId}/messages テスト ---

func TestMessageHandler_List_Success(t *testing.T) {
	svc := &mockMessageService{
		listByListingFn: func(ctx context.Context, listingID int64, userID string) ([]*model.Message, error) {
			return []*model.Message{
				{ID: 1, SenderID: "buyer-1", ReceiverID: "seller-1", ListingID: listingID, Content: "merhaba", IsRead: true},
				{ID: 2, SenderID: "seller-1", ReceiverID: "buyer-1", ListingID: listingID, Content: "buyrun", IsRead: true},
			}, nil
		},
	}
	h := NewMessageHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/listings/42/messages", nil)
	req = withChiURLParam(req, "listingId", "42")
	req = withPrincipal(req, "buyer-1", model.RoleUser)
	w := httptest.NewRecorder()

	h.List(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var resp []messageResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp) != 2 {
		t.Errorf("len(resp) = %d, want 2", len(resp))
	}
}

func TestMessageHandler_List_Empty(t *testing.T) {
	svc := &mockMessageService{
		listByListingFn: func(ctx context.Context, listingID int64, userID string) ([]*model.Message, error) {
			return nil, model.NewMessageNotFoundError(listingID)
		},
	}
	h := NewMessageHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/listings/42/messages", nil)
	req = withChiURLParam(req, "listingId", "42")
	req = withPrincipal(req, "buyer-1", model.RoleUser)
	w := httptest.NewRecorder()

	h.List(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

// --- DELETE /api/v1/listings/{listingId}/messages テスト ---

func TestMessageHandler_DeleteConversation_Success(t *testing.T) {
	svc := &mockMessageService{
		deleteConversationFn: func(ctx context.Context, listingID int64, userID string) error {
			if listingID != 42 || userID != "buyer-1" {
				t.Errorf("delete(%d, %q)", listingID, userID)
			}
			return nil
		},
	}
	h := NewMessageHandler(svc)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/listings/42/messages", nil)
	req = withChiURLParam(req, "listingId", "42")
	req = withPrincipal(req, "buyer-1", model.RoleUser)
	w := httptest.NewRecorder()

	h.DeleteConversation(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
}
