package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/SelahattinSert/listigo-demo/internal/middleware"
	"github.com/SelahattinSert/listigo-demo/internal/model"
	"github.com/SelahattinSert/listigo-demo/internal/user"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	// GetProfile はユーザーのプロフィールを取得する。
	GetProfile(ctx context.Context, userID string) (*model.User, error)
	// UpdateProfile は表示名・電話番号を更新する。
	UpdateProfile(ctx context.Context, userID string, input user.UpdateProfileInput) (*model.User, error)
	// ChangePassword は現在のパスワードを検証した上でパスワードを変更する。
	ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error
	// Block は対象ユーザーをブロックする。
	Block(ctx context.Context, blockerID, targetEmail string) error
}

// UserHandler はプロフィール管理とブロックのHTTPハンドラー。
type UserHandler struct {
	service UserServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{service: service}
}

// updateProfileRequest はプロフィール更新リクエストのボディ。
type updateProfileRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// changePasswordRequest はパスワード変更リクエストのボディ。
type changePasswordRequest struct {
	CurrentPassword    string `json:"current_password"`
	NewPassword        string `json:"new_password"`
	NewPasswordConfirm string `json:"new_password_confirm"`
}

// blockUserRequest はユーザーブロックリクエストのボディ。
type blockUserRequest struct {
	Email string `json:"email"`
}

// GetProfile は認証済みユーザーのプロフィールを返す。
// GET /api/v1/auth/users/profile
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	principal, err := middleware.PrincipalFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	profile, err := h.service.GetProfile(r.Context(), principal.UserID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toUserResponse(profile))
}

// UpdateProfile は認証済みユーザーのプロフィールを更新する。
// PUT /api/v1/auth/users/profile
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	principal, err := middleware.PrincipalFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	updated, err := h.service.UpdateProfile(r.Context(), principal.UserID, user.UpdateProfileInput{
		Name:  req.Name,
		Phone: req.Phone,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toUserResponse(updated))
}

// ChangePassword は認証済みユーザーのパスワードを変更する。
// PUT /api/v1/auth/users/profile/change-password
//
// 新パスワードと確認用の不一致はサービスに渡す前に弾く。
func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	principal, err := middleware.PrincipalFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	if req.NewPassword != req.NewPasswordConfirm {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewPasswordsDoNotMatchError())
		return
	}

	if err := h.service.ChangePassword(r.Context(), principal.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Block は指定メールアドレスのユーザーをブロックする。
// POST /api/v1/auth/block
func (h *UserHandler) Block(w http.ResponseWriter, r *http.Request) {
	principal, err := middleware.PrincipalFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req blockUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	if err := h.service.Block(r.Context(), principal.UserID, req.Email); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
