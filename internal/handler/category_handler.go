package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/SelahattinSert/listigo-demo/internal/model"
)

// CategoryServiceInterface はカテゴリハンドラーが必要とするサービスインターフェース。
type CategoryServiceInterface interface {
	Create(ctx context.Context, name string) (*model.Category, error)
	Get(ctx context.Context, id int64) (*model.Category, error)
	Update(ctx context.Context, id int64, name string) (*model.Category, error)
	Delete(ctx context.Context, id int64) error
	ListAll(ctx context.Context) ([]*model.Category, error)
}

// CategoryHandler はカテゴリ管理のHTTPハンドラー。
// 変更系の操作はROLE_ADMINのみが実行できる（ルーティング側で強制する）。
type CategoryHandler struct {
	service CategoryServiceInterface
}

// NewCategoryHandler はCategoryHandlerを生成する。
func NewCategoryHandler(service CategoryServiceInterface) *CategoryHandler {
	return &CategoryHandler{service: service}
}

// categoryRequest はカテゴリの作成・更新リクエストのボディ。
type categoryRequest struct {
	Name string `json:"name"`
}

// categoryResponse はカテゴリ情報のAPIレスポンス。
type categoryResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Create はカテゴリを作成する。
// POST /api/v1/categories
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	if req.Name == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "カテゴリ名は必須です。",
			Category: "validation",
			Action:   "カテゴリ名を入力してください。",
		})
		return
	}

	created, err := h.service.Create(r.Context(), req.Name)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toCategoryResponse(created))
}

// Get はカテゴリ詳細を取得する。
// GET /api/v1/categories/{categoryId}
func (h *CategoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	categoryID, ok := categoryIDFromURL(w, r)
	if !ok {
		return
	}

	found, err := h.service.Get(r.Context(), categoryID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toCategoryResponse(found))
}

// Update はカテゴリ名を更新する。
// PUT /api/v1/categories/{categoryId}
func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	categoryID, ok := categoryIDFromURL(w, r)
	if !ok {
		return
	}

	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	updated, err := h.service.Update(r.Context(), categoryID, req.Name)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toCategoryResponse(updated))
}

// Delete はカテゴリを削除する。
// DELETE /api/v1/categories/{categoryId}
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	categoryID, ok := categoryIDFromURL(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), categoryID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListAll は全カテゴリを返す。
// GET /api/v1/categories
func (h *CategoryHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ListAll(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]categoryResponse, 0, len(categories))
	for _, c := range categories {
		responses = append(responses, toCategoryResponse(c))
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(responses)
}

// categoryIDFromURL はURLパラメータからカテゴリIDを取り出す。
func categoryIDFromURL(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "categoryId")
	categoryID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "カテゴリIDは数値で指定してください。",
			Category: "validation",
			Action:   "URLのカテゴリIDを確認してください。",
		})
		return 0, false
	}
	return categoryID, true
}

// toCategoryResponse はmodel.CategoryからAPIレスポンスに変換する。
func toCategoryResponse(c *model.Category) categoryResponse {
	return categoryResponse{
		ID:   c.ID,
		Name: c.Name,
	}
}
