// Package user はユーザー登録・プロフィール管理のドメインロジックを提供する。
package user

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/SelahattinSert/listigo-demo/internal/model"
	"github.com/SelahattinSert/listigo-demo/internal/repository"
	"github.com/SelahattinSert/listigo-demo/internal/security"
)

// RegisterInput はユーザー登録の入力。
type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Phone    string
}

// UpdateProfileInput はプロフィール更新の入力。
type UpdateProfileInput struct {
	Name  string
	Phone string
}

// Service はユーザー管理のビジネスロジックを提供する。
type Service struct {
	userRepo    repository.UserRepository
	blockedRepo repository.BlockedUserRepository
	sanitizer   security.TextSanitizerService
}

// NewService はServiceを生成する。
func NewService(
	userRepo repository.UserRepository,
	blockedRepo repository.BlockedUserRepository,
	sanitizer security.TextSanitizerService,
) *Service {
	return &Service{
		userRepo:    userRepo,
		blockedRepo: blockedRepo,
		sanitizer:   sanitizer,
	}
}

// Register は新規ユーザーを作成し、ROLE_USERを付与する。
// メールアドレスが既に使用されている場合はUSER_ALREADY_EXISTSを返す。
// パスワードはbcryptでハッシュ化して保存する。
func (s *Service) Register(ctx context.Context, input RegisterInput) (*model.User, error) {
	existing, err := s.userRepo.FindByEmail(ctx, input.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, model.NewUserAlreadyExistsError(input.Email)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:           uuid.New().String(),
		Email:        input.Email,
		PasswordHash: string(hash),
		Name:         s.sanitizer.Sanitize(input.Name),
		Phone:        s.sanitizer.Sanitize(input.Phone),
		CreatedAt:    time.Now(),
	}

	if err := s.userRepo.Create(ctx, user, []string{model.RoleUser}); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("user registered", slog.String("user_id", user.ID))
	return user, nil
}

// GetProfile は指定ユーザーのプロフィールを返す。
func (s *Service) GetProfile(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	return user, nil
}

// UpdateProfile は名前と電話番号を更新する。メールアドレスは変更できない。
func (s *Service) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}

	user.Name = s.sanitizer.Sanitize(input.Name)
	user.Phone = s.sanitizer.Sanitize(input.Phone)

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	slog.Info("profile updated", slog.String("user_id", userID))
	return user, nil
}

// ChangePassword は現在のパスワードを検証した上で新しいパスワードに変更する。
// 現在のパスワードが一致しない場合はINVALID_PASSWORDを返す。
func (s *Service) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return model.NewUserNotFoundError()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return model.NewInvalidPasswordError()
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash new password: %w", err)
	}

	if err := s.userRepo.UpdatePassword(ctx, userID, string(hash)); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	slog.Info("password changed", slog.String("user_id", userID))
	return nil
}

// Block はblockerIDがtargetEmailのユーザーをブロックする。
// 自分自身のブロックはCANNOT_BLOCK_SELF、既にブロック済みの場合はUSER_BLOCKEDを返す。
func (s *Service) Block(ctx context.Context, blockerID, targetEmail string) error {
	target, err := s.userRepo.FindByEmail(ctx, targetEmail)
	if err != nil {
		return fmt.Errorf("failed to find target user: %w", err)
	}
	if target == nil {
		return model.NewUserNotFoundError()
	}
	if target.ID == blockerID {
		return model.NewCannotBlockSelfError()
	}

	exists, err := s.blockedRepo.Exists(ctx, blockerID, target.ID)
	if err != nil {
		return fmt.Errorf("failed to check block: %w", err)
	}
	if exists {
		return model.NewUserBlockedError("このユーザーはすでにブロックされています")
	}

	if err := s.blockedRepo.Create(ctx, blockerID, target.ID); err != nil {
		return fmt.Errorf("failed to create block: %w", err)
	}

	slog.Info("user blocked",
		slog.String("blocker_id", blockerID),
		slog.String("blocked_id", target.ID),
	)
	return nil
}
