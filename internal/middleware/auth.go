// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/SelahattinSert/listigo-demo/internal/metrics"
	"github.com/SelahattinSert/listigo-demo/internal/model"
	"github.com/SelahattinSert/listigo-demo/internal/token"
)

const bearerPrefix = "Bearer "

// allowlistPaths は認証ゲートを素通りするパス。
var allowlistPaths = map[string]bool{
	"/health":  true,
	"/metrics": true,
}

// Principal は認証済みリクエストの主体を表す。
type Principal struct {
	UserID string
	Roles  []string
}

// HasRole は主体が指定ロールを持つかを返す。
func (p *Principal) HasRole(role string) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// principalContextKey はリクエストコンテキストに認証主体を格納するためのキー。
var principalContextKey = contextKey("principal")

// TokenDecoder はトークン検証に必要なインターフェース。
// token.Codecの部分集合として定義する。
type TokenDecoder interface {
	Decode(tokenString string) (*token.Claims, error)
}

// NewAuthMiddleware はAuthorizationヘッダーのBearerトークンを検証し、
// 認証主体をリクエストコンテキストに注入するミドルウェアを返す。
//
//   - ヘッダーが無い、またはBearer形式でないリクエストはそのまま通過させる
//     （主体なし）。認証を必須にするかはルートごとにRequirePrincipalで決める。
//   - トークンが提示されていて検証に失敗した場合は401で遮断する。
//     期限切れはTOKEN_EXPIRED、それ以外はTOKEN_INVALIDを返す。
//   - 許可リストのパス（/health、/metrics）は検証せず通過させる。
func NewAuthMiddleware(decoder TokenDecoder, collector metrics.MetricsCollector) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if allowlistPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Authorization")
			if header == "" || !strings.HasPrefix(header, bearerPrefix) {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := decoder.Decode(strings.TrimPrefix(header, bearerPrefix))
			if err != nil {
				if errors.Is(err, token.ErrTokenExpired) {
					if collector != nil {
						collector.RecordTokenValidationFailure("expired")
					}
					WriteErrorResponse(w, http.StatusUnauthorized, model.NewTokenExpiredError())
					return
				}
				if collector != nil {
					collector.RecordTokenValidationFailure("invalid")
				}
				slog.Warn("token validation failed",
					slog.String("path", r.URL.Path),
					slog.String("error", err.Error()),
				)
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewTokenInvalidError())
				return
			}

			principal := &Principal{
				UserID: claims.Subject,
				Roles:  claims.Roles,
			}
			ctx := context.WithValue(r.Context(), principalContextKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequirePrincipal は認証主体が存在しないリクエストを401で遮断するミドルウェアを返す。
// 認証必須ルートに適用する。
func RequirePrincipal() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, err := PrincipalFromContext(r.Context()); err != nil {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewAuthenticationFailedError())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole は指定ロールを持たない主体のリクエストを403で遮断するミドルウェアを返す。
// RequirePrincipalの後に適用する。
func RequireRole(role string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, err := PrincipalFromContext(r.Context())
			if err != nil {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewAuthenticationFailedError())
				return
			}
			if !principal.HasRole(role) {
				slog.Warn("role check failed",
					slog.String("user_id", principal.UserID),
					slog.String("required_role", role),
				)
				WriteErrorResponse(w, http.StatusForbidden, model.NewForbiddenError())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// PrincipalFromContext はリクエストコンテキストから認証主体を取得する。
// 認証ミドルウェアを通過したリクエストでのみ有効。
func PrincipalFromContext(ctx context.Context) (*Principal, error) {
	principal, ok := ctx.Value(principalContextKey).(*Principal)
	if !ok || principal == nil || principal.UserID == "" {
		return nil, fmt.Errorf("principal not found in context")
	}
	return principal, nil
}

// ContextWithPrincipal はコンテキストに認証主体を注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithPrincipal(ctx context.Context, principal *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, principal)
}
