package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SelahattinSert/listigo-demo/internal/listing"
	"github.com/SelahattinSert/listigo-demo/internal/model"
)

// mockListingService はListingServiceInterfaceのモック実装。
type mockListingService struct {
	createFn      func(ctx context.Context, userID string, input listing.Input) (*model.Listing, error)
	getFn         func(ctx context.Context, listingID int64) (*model.Listing, error)
	updateFn      func(ctx context.Context, userID string, listingID int64, input listing.Input) (*model.Listing, error)
	deleteFn      func(ctx context.Context, userID string, listingID int64) error
	listAllFn     func(ctx context.Context) ([]*model.Listing, error)
	listByUserFn  func(ctx context.Context, userID string) ([]*model.Listing, error)
	filterFn      func(ctx context.Context, filter *model.ListingFilter) ([]*model.Listing, error)
	addPhotoFn    func(ctx context.Context, userID string, listingID int64, photoURL string) (*model.Listing, error)
	removePhotoFn func(ctx context.Context, userID string, listingID int64, photoURL string) (*model.Listing, error)
	listPhotosFn  func(ctx context.Context, listingID int64) ([]string, error)
}

func (m *mockListingService) Create(ctx context.Context, userID string, input listing.Input) (*model.Listing, error) {
	if m.createFn != nil {
		return m.createFn(ctx, userID, input)
	}
	return nil, nil
}

func (m *mockListingService) Get(ctx context.Context, listingID int64) (*model.Listing, error) {
	if m.getFn != nil {
		return m.getFn(ctx, listingID)
	}
	return nil, nil
}

func (m *mockListingService) Update(ctx context.Context, userID string, listingID int64, input listing.Input) (*model.Listing, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, userID, listingID, input)
	}
	return nil, nil
}

func (m *mockListingService) Delete(ctx context.Context, userID string, listingID int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, userID, listingID)
	}
	return nil
}

func (m *mockListingService) ListAll(ctx context.Context) ([]*model.Listing, error) {
	if m.listAllFn != nil {
		return m.listAllFn(ctx)
	}
	return nil, nil
}

func (m *mockListingService) ListByUser(ctx context.Context, userID string) ([]*model.Listing, error) {
	if m.listByUserFn != nil {
		return m.listByUserFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockListingService) Filter(ctx context.Context, filter *model.ListingFilter) ([]*model.Listing, error) {
	if m.filterFn != nil {
		return m.filterFn(ctx, filter)
	}
	return nil, nil
}

func (m *mockListingService) AddPhoto(ctx context.Context, userID string, listingID int64, photoURL string) (*model.Listing, error) {
	if m.addPhotoFn != nil {
		return m.addPhotoFn(ctx, userID, listingID, photoURL)
	}
	return nil, nil
}

func (m *mockListingService) RemovePhoto(ctx context.Context, userID string, listingID int64, photoURL string) (*model.Listing, error) {
	if m.removePhotoFn != nil {
		return m.removePhotoFn(ctx, userID, listingID, photoURL)
	}
	return nil, nil
}

func (m *mockListingService) ListPhotos(ctx context.Context, listingID int64) ([]string, error) {
	if m.listPhotosFn != nil {
		return m.listPhotosFn(ctx, listingID)
	}
	return nil, nil
}

func sampleListing() *model.Listing {
	return &model.Listing{
		ID:          42,
		UserID:      "user-1",
		CategoryID:  3,
		Title:       "2015 Honda Civic",
		Description: "Tek elden, bakımlı",
		Price:       450000,
		Brand:       "Honda",
		Model:       "Civic",
		Photos:      []string{"https://img.example.com/civic.jpg"},
		CreatedAt:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

// --- POST /api/v1/listings テスト ---

func TestListingHandler_Create_Success(t *testing.T) {
	svc := &mockListingService{
		createFn: func(ctx context.Context, userID string, input listing.Input) (*model.Listing, error) {
			if userID != "user-1" {
				t.Errorf("userID = %q, want %q", userID, "user-1")
			}
			if input.Title != "2015 Honda Civic" {
				t.Errorf("title = %q, want %q", input.Title, "2015 Honda Civic")
			}
			return sampleListing(), nil
		},
	}
	h := NewListingHandler(svc)

	body := `{"category_id":3,"title":"2015 Honda Civic","description":"Tek elden","price":450000}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/listings", bytes.NewBufferString(body))
	req = withPrincipal(req, "user-1", model.RoleUser)
	w := httptest.NewRecorder()

	h.Create(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusCreated)
	}
	var resp listingResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ID != 42 || resp.Title != "2015 Honda Civic" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestListingHandler_Create_MissingTitle(t *testing.T) {
	h := NewListingHandler(&mockListingService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/listings", bytes.NewBufferString(`{"category_id":3}`))
	req = withPrincipal(req, "user-1", model.RoleUser)
	w := httptest.NewRecorder()

	h.Create(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestListingHandler_Create_UnknownCategory(t *testing.T) {
	svc := &mockListingService{
		createFn: func(ctx context.Context, userID string, input listing.Input) (*model.Listing, error) {
			return nil, model.NewCategoryNotFoundError(input.CategoryID)
		},
	}
	h := NewListingHandler(svc)

	body := `{"category_id":999,"title":"Civic"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/listings", bytes.NewBufferString(body))
	req = withPrincipal(req, "user-1", model.RoleUser)
	w := httptest.NewRecorder()

	h.Create(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

// --- GET /api/v1/listings/{listingId} テスト ---

func TestListingHandler_Get_Success(t *testing.T) {
	svc := &mockListingService{
		getFn: func(ctx context.Context, listingID int64) (*model.Listing, error) {
			if listingID != 42 {
				t.Errorf("listingID = %d, want 42", listingID)
			}
			return sampleListing(), nil
		},
	}
	h := NewListingHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/listings/42", nil)
	req = withChiURLParam(req, "listingId", "42")
	w := httptest.NewRecorder()

	h.Get(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestListingHandler_Get_NonNumericID(t *testing.T) {
	h := NewListingHandler(&mockListingService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/listings/abc", nil)
	req = withChiURLParam(req, "listingId", "abc")
	w := httptest.NewRecorder()

	h.Get(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

// 所有者でないユーザーの削除は404で返ること（403で存在を漏らさない）。
func TestListingHandler_Delete_NotOwner(t *testing.T) {
	svc := &mockListingService{
		deleteFn: func(ctx context.Context, userID string, listingID int64) error {
			return model.NewListingNotFoundError(listingID)
		},
	}
	h := NewListingHandler(svc)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/listings/42", nil)
	req = withChiURLParam(req, "listingId", "42")
	req = withPrincipal(req, "intruder", model.RoleUser)
	w := httptest.NewRecorder()

	h.Delete(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
	if got := parseAPIErrorResponse(t, w)["code"]; got != model.ErrCodeListingNotFound {
		t.Errorf("code = %q, want %q", got, model.ErrCodeListingNotFound)
	}
}

func TestListingHandler_Delete_Success(t *testing.T) {
	svc := &mockListingService{
		deleteFn: func(ctx context.Context, userID string, listingID int64) error {
			return nil
		},
	}
	h := NewListingHandler(svc)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/listings/42", nil)
	req = withChiURLParam(req, "listingId", "42")
	req = withPrincipal(req, "user-1", model.RoleUser)
	w := httptest.NewRecorder()

	h.Delete(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
}

// --- POST /api/v1/listings/filter テスト ---

func TestListingHandler_Filter_PassesConditions(t *testing.T) {
	svc := &mockListingService{
		filterFn: func(ctx context.Context, filter *model.ListingFilter) ([]*model.Listing, error) {
			if filter.Brand == nil || *filter.Brand != "Honda" {
				t.Errorf("brand filter = %v, want Honda", filter.Brand)
			}
			if filter.MinPrice == nil || *filter.MinPrice != 100000 {
				t.Errorf("min price filter = %v, want 100000", filter.MinPrice)
			}
			if filter.CategoryID != nil {
				t.Errorf("category filter = %v, want nil", filter.CategoryID)
			}
			return []*model.Listing{sampleListing()}, nil
		},
	}
	h := NewListingHandler(svc)

	body := `{"brand":"Honda","min_price":100000}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/listings/filter", bytes.NewBufferString(body))
	w := httptest.NewRecorder()

	h.Filter(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var resp []listingResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp) != 1 {
		t.Errorf("len(resp) = %d, want 1", len(resp))
	}
}

// 結果が空でもnullではなく空配列を返すこと。
func TestListingHandler_ListAll_EmptyReturnsArray(t *testing.T) {
	svc := &mockListingService{
		listAllFn: func(ctx context.Context) ([]*model.Listing, error) {
			return nil, nil
		},
	}
	h := NewListingHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/listings/all", nil)
	w := httptest.NewRecorder()

	h.ListAll(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if body := w.Body.String(); body != "[]\n" {
		t.Errorf("body = %q, want %q", body, "[]\n")
	}
}

// --- 写真エンドポイントのテスト ---

func TestListingHandler_AddPhoto_Success(t *testing.T) {
	svc := &mockListingService{
		addPhotoFn: func(ctx context.Context, userID string, listingID int64, photoURL string) (*model.Listing, error) {
			if photoURL != "https://img.example.com/new.png" {
				t.Errorf("photoURL = %q", photoURL)
			}
			l := sampleListing()
			l.Photos = append(l.Photos, photoURL)
			return l, nil
		},
	}
	h := NewListingHandler(svc)

	body := `{"photo_url":"https://img.example.com/new.png"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/listings/42/photos", bytes.NewBufferString(body))
	req = withChiURLParam(req, "listingId", "42")
	req = withPrincipal(req, "user-1", model.RoleUser)
	w := httptest.NewRecorder()

	h.AddPhoto(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var resp listingResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Photos) != 2 {
		t.Errorf("len(photos) = %d, want 2", len(resp.Photos))
	}
}

func TestListingHandler_AddPhoto_InvalidURL(t *testing.T) {
	svc := &mockListingService{
		addPhotoFn: func(ctx context.Context, userID string, listingID int64, photoURL string) (*model.Listing, error) {
			return nil, model.NewInvalidPhotoURLError("拡張子が不正です")
		},
	}
	h := NewListingHandler(svc)

	body := `{"photo_url":"https://img.example.com/doc.pdf"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/listings/42/photos", bytes.NewBufferString(body))
	req = withChiURLParam(req, "listingId", "42")
	req = withPrincipal(req, "user-1", model.RoleUser)
	w := httptest.NewRecorder()

	h.AddPhoto(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestListingHandler_ListPhotos_Success(t *testing.T) {
	svc := &mockListingService{
		listPhotosFn: func(ctx context.Context, listingID int64) ([]string, error) {
			return []string{"https://img.example.com/a.jpg"}, nil
		},
	}
	h := NewListingHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/listings/42/photos", nil)
	req = withChiURLParam(req, "listingId", "42")
	w := httptest.NewRecorder()

	h.ListPhotos(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var resp map[string][]string
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp["photos"]) != 1 {
		t.Errorf("len(photos) = %d, want 1", len(resp["photos"]))
	}
}
