// Package auth はログイン、トークンリフレッシュ、ログアウトの認証ライフサイクルを提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/SelahattinSert/listigo-demo/internal/metrics"
	"github.com/SelahattinSert/listigo-demo/internal/model"
	"github.com/SelahattinSert/listigo-demo/internal/repository"
	"github.com/SelahattinSert/listigo-demo/internal/token"
)

// TokenPair はログイン・リフレッシュ成功時に返すトークンの組。
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	AccessTTL  time.Duration // アクセストークン有効期間
	RefreshTTL time.Duration // リフレッシュトークン有効期間
}

// Service は認証に関するビジネスロジックを提供する。
// リフレッシュトークンはユーザーごとに1件のセッションとしてDBに保存し、
// リフレッシュのたびにローテーションする。
type Service struct {
	codec       *token.Codec
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	collector   metrics.MetricsCollector // nil可
	config      ServiceConfig
}

// NewService はServiceを生成する。collectorはnilでもよい。
func NewService(
	codec *token.Codec,
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	collector metrics.MetricsCollector,
	config ServiceConfig,
) *Service {
	return &Service{
		codec:       codec,
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		collector:   collector,
		config:      config,
	}
}

// Login はメールアドレスとパスワードを検証し、トークンペアを発行する。
// 成功時はリフレッシュトークンをセッションとして保存する（既存セッションは上書き）。
// 資格情報の不一致は、ユーザー不在・パスワード不一致を区別せず認証失敗として返す。
func (s *Service) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user for login: %w", err)
	}
	if user == nil {
		s.recordLoginFailure()
		return nil, model.NewAuthenticationFailedError()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		slog.Info("login rejected: password mismatch", slog.String("user_id", user.ID))
		s.recordLoginFailure()
		return nil, model.NewAuthenticationFailedError()
	}

	roles, err := s.userRepo.FindRolesByID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user roles: %w", err)
	}

	pair, refreshExpiration, err := s.issueTokenPair(user.ID, roles)
	if err != nil {
		return nil, err
	}

	session := &model.Session{
		UserID:                 user.ID,
		RefreshToken:           pair.RefreshToken,
		RefreshTokenExpiration: refreshExpiration,
	}
	if err := s.sessionRepo.Upsert(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	if s.collector != nil {
		s.collector.RecordLoginSuccess()
	}
	slog.Info("user logged in", slog.String("user_id", user.ID))
	return pair, nil
}

func (s *Service) recordLoginFailure() {
	if s.collector != nil {
		s.collector.RecordLoginFailure()
	}
}

// Refresh は提示されたリフレッシュトークンを検証し、新しいトークンペアを発行する。
// 検証は次の順で行う:
//  1. トークン自体の署名と有効期限
//  2. subjectのユーザーが存在すること
//  3. 保存中のセッションと提示トークンが一致すること
//  4. セッション側の有効期限が切れていないこと
//
// 成功時はリフレッシュトークンをローテーションする。保存値と一致しない提示
// （すでにローテーション済みの古いトークン、並行リフレッシュの敗者）は
// トークン不正として拒否する。
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.codec.Decode(refreshToken)
	if err != nil {
		if errors.Is(err, token.ErrTokenExpired) {
			return nil, model.NewTokenExpiredError()
		}
		return nil, model.NewTokenInvalidError()
	}

	user, err := s.userRepo.FindByID(ctx, claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("failed to find user for refresh: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}

	session, err := s.sessionRepo.FindByUserID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil || session.RefreshToken != refreshToken {
		slog.Info("refresh rejected: token does not match stored session",
			slog.String("user_id", user.ID))
		return nil, model.NewTokenInvalidError()
	}
	if !session.RefreshTokenExpiration.After(time.Now()) {
		return nil, model.NewTokenExpiredError()
	}

	roles, err := s.userRepo.FindRolesByID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user roles: %w", err)
	}

	pair, refreshExpiration, err := s.issueTokenPair(user.ID, roles)
	if err != nil {
		return nil, err
	}

	rotated := &model.Session{
		UserID:                 user.ID,
		RefreshToken:           pair.RefreshToken,
		RefreshTokenExpiration: refreshExpiration,
	}
	if err := s.sessionRepo.Rotate(ctx, rotated, refreshToken); err != nil {
		if errors.Is(err, repository.ErrRotationConflict) {
			// 並行リフレッシュの敗者。先着のローテーションが優先される。
			slog.Info("refresh rejected: rotation conflict", slog.String("user_id", user.ID))
			if s.collector != nil {
				s.collector.RecordRotationConflict()
			}
			return nil, model.NewTokenInvalidError()
		}
		return nil, fmt.Errorf("failed to rotate session: %w", err)
	}

	if s.collector != nil {
		s.collector.RecordTokenRefresh()
	}
	slog.Info("tokens refreshed", slog.String("user_id", user.ID))
	return pair, nil
}

// Logout は指定ユーザーのセッションを破棄する。
// セッションが存在しない場合もエラーにはしない（冪等）。
func (s *Service) Logout(ctx context.Context, userID string) error {
	if err := s.sessionRepo.DeleteByUserID(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	slog.Info("user logged out", slog.String("user_id", userID))
	return nil
}

// issueTokenPair はアクセストークンとリフレッシュトークンを生成する。
// リフレッシュトークンにはロールを載せない。
func (s *Service) issueTokenPair(userID string, roles []string) (*TokenPair, time.Time, error) {
	accessToken, err := s.codec.Encode(userID, roles, s.config.AccessTTL)
	if err != nil {
		return nil, time.Time{}, model.NewTokenGenerationError()
	}

	refreshToken, err := s.codec.Encode(userID, nil, s.config.RefreshTTL)
	if err != nil {
		return nil, time.Time{}, model.NewTokenGenerationError()
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, time.Now().Add(s.config.RefreshTTL), nil
}
