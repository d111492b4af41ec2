package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/SelahattinSert/listigo-demo/internal/metrics"
	"github.com/SelahattinSert/listigo-demo/internal/middleware"
	"github.com/SelahattinSert/listigo-demo/internal/model"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	TokenDecoder      middleware.TokenDecoder
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger
	Collector         metrics.MetricsCollector
	Gatherer          prometheus.Gatherer

	// サービス
	AuthService     AuthServiceInterface
	UserRegistrar   UserRegistrar
	UserService     UserServiceInterface
	ListingService  ListingServiceInterface
	CategoryService CategoryServiceInterface
	MessageService  MessageServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	CORS → SecurityHeaders → Recovery → AuthMiddleware(トークン検証) → Logging → RateLimit(General)
//
// AuthMiddlewareはAuthorizationヘッダーが無いリクエストを素通しする。
// 各保護ルートはRequirePrincipal（またはRequireRole）で認証主体の存在を強制する。
// Loggingをトークン検証の内側に置くことで、アクセスログにuser_idが載る。
// /health と /metrics はチェーンの外に置く。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewRecoveryMiddleware())

	// 監視用エンドポイント（認証・レート制限の対象外）
	r.Get("/health", handleHealth)
	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))
	}

	authHandler := NewAuthHandler(deps.AuthService, deps.UserRegistrar)
	userHandler := NewUserHandler(deps.UserService)
	listingHandler := NewListingHandler(deps.ListingService)
	categoryHandler := NewCategoryHandler(deps.CategoryService)
	messageHandler := NewMessageHandler(deps.MessageService)

	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.TokenDecoder, deps.Collector))
		r.Use(middleware.NewLoggingMiddleware(deps.Logger, deps.Collector))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Route("/api/v1", func(r chi.Router) {
			// 認証・アカウント管理
			r.Route("/auth", func(r chi.Router) {
				// 未認証で叩けるエンドポイントには認証専用のIPレート制限を追加する
				authLimit := deps.RateLimiter.AuthMiddleware()
				r.With(authLimit).Post("/register", authHandler.Register)
				r.With(authLimit).Post("/login", authHandler.Login)
				r.With(authLimit).Post("/refresh", authHandler.Refresh)

				r.With(middleware.RequirePrincipal()).Post("/logout", authHandler.Logout)
				r.With(middleware.RequirePrincipal()).Post("/block", userHandler.Block)

				r.Route("/users/profile", func(r chi.Router) {
					r.Use(middleware.RequirePrincipal())
					r.Get("/", userHandler.GetProfile)
					r.Put("/", userHandler.UpdateProfile)
					r.Put("/change-password", userHandler.ChangePassword)
				})
			})

			// 出品管理
			r.Route("/listings", func(r chi.Router) {
				r.Use(middleware.RequirePrincipal())

				r.Post("/", listingHandler.Create)
				r.Get("/all", listingHandler.ListAll)
				r.Post("/filter", listingHandler.Filter)
				r.Get("/my-listings", listingHandler.ListMine)

				r.Route("/{listingId}", func(r chi.Router) {
					r.Get("/", listingHandler.Get)
					r.Put("/", listingHandler.Update)
					r.Delete("/", listingHandler.Delete)

					r.Route("/photos", func(r chi.Router) {
						r.Get("/", listingHandler.ListPhotos)
						r.Post("/", listingHandler.AddPhoto)
						r.Delete("/", listingHandler.RemovePhoto)
					})

					// 出品ごとのメッセージ
					r.Route("/messages", func(r chi.Router) {
						r.Post("/", messageHandler.Send)
						r.Get("/", messageHandler.List)
						r.Delete("/", messageHandler.DeleteConversation)
					})
				})
			})

			// カテゴリ管理（参照は認証済みユーザー全員、変更は管理者のみ）
			r.Route("/categories", func(r chi.Router) {
				r.Use(middleware.RequirePrincipal())

				r.Get("/", categoryHandler.ListAll)
				r.Get("/{categoryId}", categoryHandler.Get)

				admin := middleware.RequireRole(model.RoleAdmin)
				r.With(admin).Post("/", categoryHandler.Create)
				r.With(admin).Put("/{categoryId}", categoryHandler.Update)
				r.With(admin).Delete("/{categoryId}", categoryHandler.Delete)
			})
		})
	})

	return r
}

// handleHealth は死活監視用のエンドポイント。
// GET /health
func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
