package handler

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/SelahattinSert/listigo-demo/internal/auth"
	"github.com/SelahattinSert/listigo-demo/internal/metrics"
	"github.com/SelahattinSert/listigo-demo/internal/middleware"
	"github.com/SelahattinSert/listigo-demo/internal/model"
	"github.com/SelahattinSert/listigo-demo/internal/token"
)

var routerTestSecret = []byte("router-test-secret")

// newTestRouter はテスト用のフルルーターを構築する。
// 各サービスはデフォルト応答（nil）のモックで差し替える。
func newTestRouter(t *testing.T, mutate func(deps *RouterDeps)) http.Handler {
	t.Helper()

	limiter := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())
	t.Cleanup(limiter.Stop)

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	deps := &RouterDeps{
		TokenDecoder:      token.NewCodec(routerTestSecret),
		CORSAllowedOrigin: "http://localhost:3000",
		RateLimiter:       limiter,
		Logger:            slog.New(slog.NewJSONHandler(io.Discard, nil)),
		Collector:         collector,
		Gatherer:          registry,

		AuthService:     &mockAuthService{},
		UserRegistrar:   &mockUserRegistrar{},
		UserService:     &mockUserService{},
		ListingService:  &mockListingService{},
		CategoryService: &mockCategoryService{},
		MessageService:  &mockMessageService{},
	}
	if mutate != nil {
		mutate(deps)
	}
	return NewRouter(deps)
}

// encodeRouterToken はテスト用のアクセストークンを発行する。
func encodeRouterToken(t *testing.T, userID string, roles []string) string {
	t.Helper()
	encoded, err := token.NewCodec(routerTestSecret).Encode(userID, roles, time.Hour)
	if err != nil {
		t.Fatalf("failed to encode token: %v", err)
	}
	return encoded
}

func TestRouter_Health_NoAuthRequired(t *testing.T) {
	router := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestRouter_Metrics_NoAuthRequired(t *testing.T) {
	router := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

// トークンなしの保護ルートアクセスは401で遮断されること。
func TestRouter_ProtectedRoute_NoToken(t *testing.T) {
	router := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/listings/all", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
	if got := parseAPIErrorResponse(t, w)["code"]; got != model.ErrCodeAuthenticationFailed {
		t.Errorf("code = %q, want %q", got, model.ErrCodeAuthenticationFailed)
	}
}

func TestRouter_ProtectedRoute_GarbageToken(t *testing.T) {
	router := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/listings/all", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
	if got := parseAPIErrorResponse(t, w)["code"]; got != model.ErrCodeTokenInvalid {
		t.Errorf("code = %q, want %q", got, model.ErrCodeTokenInvalid)
	}
}

func TestRouter_ProtectedRoute_ValidToken(t *testing.T) {
	var requestedBy string
	router := newTestRouter(t, func(deps *RouterDeps) {
		deps.ListingService = &mockListingService{
			listByUserFn: func(ctx context.Context, userID string) ([]*model.Listing, error) {
				requestedBy = userID
				return nil, nil
			},
		}
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/listings/my-listings", nil)
	req.Header.Set("Authorization", "Bearer "+encodeRouterToken(t, "user-1", []string{model.RoleUser}))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if requestedBy != "user-1" {
		t.Errorf("requestedBy = %q, want %q", requestedBy, "user-1")
	}
}

// 一般ユーザーによるカテゴリ作成は403で拒否されること。
func TestRouter_CategoryCreate_RequiresAdmin(t *testing.T) {
	router := newTestRouter(t, nil)

	body := bytes.NewBufferString(`{"name":"Otomobil"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/categories", body)
	req.Header.Set("Authorization", "Bearer "+encodeRouterToken(t, "user-1", []string{model.RoleUser}))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusForbidden)
	}
	if got := parseAPIErrorResponse(t, w)["code"]; got != model.ErrCodeForbidden {
		t.Errorf("code = %q, want %q", got, model.ErrCodeForbidden)
	}
}

func TestRouter_CategoryCreate_AdminAllowed(t *testing.T) {
	router := newTestRouter(t, func(deps *RouterDeps) {
		deps.CategoryService = &mockCategoryService{
			createFn: func(ctx context.Context, name string) (*model.Category, error) {
				return &model.Category{ID: 1, Name: name}, nil
			},
		}
	})

	body := bytes.NewBufferString(`{"name":"Otomobil"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/categories", body)
	req.Header.Set("Authorization", "Bearer "+encodeRouterToken(t, "admin-1", []string{model.RoleUser, model.RoleAdmin}))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusCreated)
	}
}

// ログインはトークンなしで到達できること。
func TestRouter_Login_Reachable(t *testing.T) {
	router := newTestRouter(t, func(deps *RouterDeps) {
		deps.AuthService = &mockAuthService{
			loginFn: func(ctx context.Context, email, password string) (*auth.TokenPair, error) {
				return &auth.TokenPair{AccessToken: "a", RefreshToken: "r"}, nil
			},
		}
	})

	body := bytes.NewBufferString(`{"email":"ali@example.com","password":"pw"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", body)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestRouter_CORSPreflight(t *testing.T) {
	router := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/listings/all", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}
