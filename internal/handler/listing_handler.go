package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/SelahattinSert/listigo-demo/internal/listing"
	"github.com/SelahattinSert/listigo-demo/internal/middleware"
	"github.com/SelahattinSert/listigo-demo/internal/model"
)

// ListingServiceInterface は出品ハンドラーが必要とするサービスインターフェース。
type ListingServiceInterface interface {
	Create(ctx context.Context, userID string, input listing.Input) (*model.Listing, error)
	Get(ctx context.Context, listingID int64) (*model.Listing, error)
	Update(ctx context.Context, userID string, listingID int64, input listing.Input) (*model.Listing, error)
	Delete(ctx context.Context, userID string, listingID int64) error
	ListAll(ctx context.Context) ([]*model.Listing, error)
	ListByUser(ctx context.Context, userID string) ([]*model.Listing, error)
	Filter(ctx context.Context, filter *model.ListingFilter) ([]*model.Listing, error)
	AddPhoto(ctx context.Context, userID string, listingID int64, photoURL string) (*model.Listing, error)
	RemovePhoto(ctx context.Context, userID string, listingID int64, photoURL string) (*model.Listing, error)
	ListPhotos(ctx context.Context, listingID int64) ([]string, error)
}

// ListingHandler は出品管理のHTTPハンドラー。
type ListingHandler struct {
	service ListingServiceInterface
}

// NewListingHandler はListingHandlerを生成する。
func NewListingHandler(service ListingServiceInterface) *ListingHandler {
	return &ListingHandler{service: service}
}

// listingRequest は出品の作成・更新リクエストのボディ。
type listingRequest struct {
	CategoryID  int64   `json:"category_id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Brand       string  `json:"brand"`
	Model       string  `json:"model"`
	Year        *int    `json:"year"`
	Mileage     *int    `json:"mileage"`
	Location    string  `json:"location"`
}

// listingFilterRequest は出品検索リクエストのボディ。
// 省略されたフィールドは条件として適用されない。
type listingFilterRequest struct {
	CategoryID *int64   `json:"category_id"`
	Brand      *string  `json:"brand"`
	Model      *string  `json:"model"`
	MinYear    *int     `json:"min_year"`
	MaxYear    *int     `json:"max_year"`
	MinPrice   *float64 `json:"min_price"`
	MaxPrice   *float64 `json:"max_price"`
	Location   *string  `json:"location"`
	SearchText *string  `json:"search_text"`
}

// photoRequest は写真の追加・削除リクエストのボディ。
type photoRequest struct {
	PhotoURL string `json:"photo_url"`
}

// listingResponse は出品情報のAPIレスポンス。
type listingResponse struct {
	ID          int64    `json:"id"`
	UserID      string   `json:"user_id"`
	CategoryID  int64    `json:"category_id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Brand       string   `json:"brand,omitempty"`
	Model       string   `json:"model,omitempty"`
	Year        *int     `json:"year,omitempty"`
	Mileage     *int     `json:"mileage,omitempty"`
	Location    string   `json:"location,omitempty"`
	Photos      []string `json:"photos"`
	CreatedAt   string   `json:"created_at"`
}

// Create は出品を作成する。
// POST /api/v1/listings
func (h *ListingHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal, err := middleware.PrincipalFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req listingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	if req.Title == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "タイトルは必須です。",
			Category: "validation",
			Action:   "タイトルを入力してください。",
		})
		return
	}

	created, err := h.service.Create(r.Context(), principal.UserID, toListingInput(req))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toListingResponse(created))
}

// Get は出品詳細を取得する。
// GET /api/v1/listings/{listingId}
func (h *ListingHandler) Get(w http.ResponseWriter, r *http.Request) {
	listingID, ok := listingIDFromURL(w, r)
	if !ok {
		return
	}

	found, err := h.service.Get(r.Context(), listingID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toListingResponse(found))
}

// Update は出品を更新する。所有者以外の試行は404になる。
// PUT /api/v1/listings/{listingId}
func (h *ListingHandler) Update(w http.ResponseWriter, r *http.Request) {
	principal, err := middleware.PrincipalFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	listingID, ok := listingIDFromURL(w, r)
	if !ok {
		return
	}

	var req listingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	updated, err := h.service.Update(r.Context(), principal.UserID, listingID, toListingInput(req))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toListingResponse(updated))
}

// Delete は出品を削除する。所有者以外の試行は404になる。
// DELETE /api/v1/listings/{listingId}
func (h *ListingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	principal, err := middleware.PrincipalFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	listingID, ok := listingIDFromURL(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), principal.UserID, listingID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListAll は全出品を新しい順で返す。
// GET /api/v1/listings/all
func (h *ListingHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	listings, err := h.service.ListAll(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeListingsResponse(w, listings)
}

// ListMine は認証済みユーザー自身の出品を返す。
// GET /api/v1/listings/my-listings
func (h *ListingHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	principal, err := middleware.PrincipalFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	listings, err := h.service.ListByUser(r.Context(), principal.UserID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeListingsResponse(w, listings)
}

// Filter は条件に合致する出品を返す。
// POST /api/v1/listings/filter
func (h *ListingHandler) Filter(w http.ResponseWriter, r *http.Request) {
	var req listingFilterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	listings, err := h.service.Filter(r.Context(), &model.ListingFilter{
		CategoryID: req.CategoryID,
		Brand:      req.Brand,
		Model:      req.Model,
		MinYear:    req.MinYear,
		MaxYear:    req.MaxYear,
		MinPrice:   req.MinPrice,
		MaxPrice:   req.MaxPrice,
		Location:   req.Location,
		SearchText: req.SearchText,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeListingsResponse(w, listings)
}

// AddPhoto は出品に写真URLを追加する。
// POST /api/v1/listings/{listingId}/photos
func (h *ListingHandler) AddPhoto(w http.ResponseWriter, r *http.Request) {
	principal, err := middleware.PrincipalFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	listingID, ok := listingIDFromURL(w, r)
	if !ok {
		return
	}

	var req photoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	updated, err := h.service.AddPhoto(r.Context(), principal.UserID, listingID, req.PhotoURL)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toListingResponse(updated))
}

// RemovePhoto は出品から写真URLを取り除く。
// DELETE /api/v1/listings/{listingId}/photos
func (h *ListingHandler) RemovePhoto(w http.ResponseWriter, r *http.Request) {
	principal, err := middleware.PrincipalFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	listingID, ok := listingIDFromURL(w, r)
	if !ok {
		return
	}

	var req photoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	updated, err := h.service.RemovePhoto(r.Context(), principal.UserID, listingID, req.PhotoURL)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toListingResponse(updated))
}

// ListPhotos は出品の写真URL一覧を返す。
// GET /api/v1/listings/{listingId}/photos
func (h *ListingHandler) ListPhotos(w http.ResponseWriter, r *http.Request) {
	listingID, ok := listingIDFromURL(w, r)
	if !ok {
		return
	}

	photos, err := h.service.ListPhotos(r.Context(), listingID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if photos == nil {
		photos = []string{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string][]string{"photos": photos})
}

// --- ヘルパー関数 ---

// listingIDFromURL はURLパラメータから出品IDを取り出す。
// 数値でない場合はエラーレスポンスを書き込みfalseを返す。
func listingIDFromURL(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "listingId")
	listingID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "出品IDは数値で指定してください。",
			Category: "validation",
			Action:   "URLの出品IDを確認してください。",
		})
		return 0, false
	}
	return listingID, true
}

// toListingInput はリクエストボディからサービス入力に変換する。
func toListingInput(req listingRequest) listing.Input {
	return listing.Input{
		CategoryID:  req.CategoryID,
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Brand:       req.Brand,
		Model:       req.Model,
		Year:        req.Year,
		Mileage:     req.Mileage,
		Location:    req.Location,
	}
}

// toListingResponse はmodel.ListingからAPIレスポンスに変換する。
func toListingResponse(l *model.Listing) listingResponse {
	photos := l.Photos
	if photos == nil {
		photos = []string{}
	}
	return listingResponse{
		ID:          l.ID,
		UserID:      l.UserID,
		CategoryID:  l.CategoryID,
		Title:       l.Title,
		Description: l.Description,
		Price:       l.Price,
		Brand:       l.Brand,
		Model:       l.Model,
		Year:        l.Year,
		Mileage:     l.Mileage,
		Location:    l.Location,
		Photos:      photos,
		CreatedAt:   l.CreatedAt.Format(time.RFC3339),
	}
}

// writeListingsResponse は出品一覧レスポンスを書き込む。
func writeListingsResponse(w http.ResponseWriter, listings []*model.Listing) {
	responses := make([]listingResponse, 0, len(listings))
	for _, l := range listings {
		responses = append(responses, toListingResponse(l))
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(responses)
}
