// Package token は署名付きトークンの生成と検証を提供する。
//
// Codec はHMAC-SHA512で署名した自己完結型トークン（JWT）を扱う。
// ダウンストリームの認可判断はすべてこの署名検証を信頼境界とするため、
// 異なる秘密鍵・異なるアルゴリズムで署名されたトークンは必ず拒否する。
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// トークン層のエラー種別。errors.Isで判別できる。
var (
	// ErrTokenExpired は署名が正当で有効期限のみ過ぎている場合のエラー。
	ErrTokenExpired = errors.New("token has expired")
	// ErrTokenInvalid は署名不一致・構造不正・アルゴリズム不一致のエラー。
	ErrTokenInvalid = errors.New("token is invalid")
	// ErrTokenGeneration は署名基盤側の生成失敗エラー。
	ErrTokenGeneration = errors.New("failed to generate token")
)

// Claims はトークンに格納するクレームを表す。
// アクセストークンはRolesを持ち、リフレッシュトークンはsubjectのみを持つ。
type Claims struct {
	Roles []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// Codec はトークンのエンコード・デコードを行う。
// 秘密鍵は初期化後に変更されないため、複数goroutineから同時に使用できる。
type Codec struct {
	secret []byte
}

// NewCodec は指定された共有秘密鍵で署名するCodecを生成する。
func NewCodec(secret []byte) *Codec {
	return &Codec{secret: secret}
}

// Encode はsubjectとロール一覧からiat=now、exp=now+ttlのトークン文字列を生成する。
// rolesがnilの場合、rolesクレームは出力されない（リフレッシュトークン用）。
// 失敗はErrTokenGenerationとしてのみ報告される。入力の形には依存しない。
func (c *Codec) Encode(subject string, roles []string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenGeneration, err)
	}
	return signed, nil
}

// Decode はトークン文字列の署名と有効期限を検証し、クレームを返す。
//
//   - 署名が正当で有効期限のみ過ぎている場合はErrTokenExpiredを返す。
//   - 署名不一致・構造不正・アルゴリズム不一致の場合はErrTokenInvalidを返す。
//   - 成功時はsubjectとクレームを改変せずそのまま返す。
func (c *Codec) Decode(tokenString string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
	)

	parsed, err := parser.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	})
	if err != nil {
		// 署名検証に失敗したトークンは、期限切れ扱いにせず常に不正とする
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
		}
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrTokenInvalid)
	}

	return claims, nil
}
