// Package listing は出品管理のドメインロジックを提供する。
package listing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SelahattinSert/listigo-demo/internal/model"
	"github.com/SelahattinSert/listigo-demo/internal/repository"
	"github.com/SelahattinSert/listigo-demo/internal/security"
)

// Input は出品の作成・更新に使う入力。
type Input struct {
	CategoryID  int64
	Title       string
	Description string
	Price       float64
	Brand       string
	Model       string
	Year        *int
	Mileage     *int
	Location    string
}

// ServiceConfig は出品サービスの設定。
type ServiceConfig struct {
	// PhotoProbeTimeout が正の場合、写真追加時にHEADリクエストで到達性を検証する。
	// 0の場合は形式検証のみ行う。
	PhotoProbeTimeout time.Duration
}

// Service は出品管理のビジネスロジックを提供する。
// 変更系の操作は所有者のみが実行でき、他人の出品への操作は
// 存在の探索を許さないためLISTING_NOT_FOUNDとして扱う。
type Service struct {
	listingRepo  repository.ListingRepository
	categoryRepo repository.CategoryRepository
	sanitizer    security.TextSanitizerService
	photoGuard   security.PhotoGuardService
	config       ServiceConfig
}

// NewService はServiceを生成する。
func NewService(
	listingRepo repository.ListingRepository,
	categoryRepo repository.CategoryRepository,
	sanitizer security.TextSanitizerService,
	photoGuard security.PhotoGuardService,
	config ServiceConfig,
) *Service {
	return &Service{
		listingRepo:  listingRepo,
		categoryRepo: categoryRepo,
		sanitizer:    sanitizer,
		photoGuard:   photoGuard,
		config:       config,
	}
}

// Create は新規出品を作成する。カテゴリが存在しない場合はCATEGORY_NOT_FOUNDを返す。
// テキストフィールドはすべて保存前にサニタイズされる。
func (s *Service) Create(ctx context.Context, userID string, input Input) (*model.Listing, error) {
	if err := s.ensureCategoryExists(ctx, input.CategoryID); err != nil {
		return nil, err
	}

	listing := &model.Listing{
		UserID:     userID,
		CategoryID: input.CategoryID,
		Photos:     []string{},
		CreatedAt:  time.Now(),
	}
	s.applyInput(listing, input)

	if err := s.listingRepo.Create(ctx, listing); err != nil {
		return nil, fmt.Errorf("failed to create listing: %w", err)
	}

	slog.Info("listing created",
		slog.Int64("listing_id", listing.ID),
		slog.String("user_id", userID),
	)
	return listing, nil
}

// Get は指定IDの出品を返す。存在しない場合はLISTING_NOT_FOUNDを返す。
func (s *Service) Get(ctx context.Context, listingID int64) (*model.Listing, error) {
	listing, err := s.listingRepo.FindByID(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("failed to find listing: %w", err)
	}
	if listing == nil {
		return nil, model.NewListingNotFoundError(listingID)
	}
	return listing, nil
}

// Update は出品を更新する。所有者以外の更新はLISTING_NOT_FOUNDとして拒否する。
func (s *Service) Update(ctx context.Context, userID string, listingID int64, input Input) (*model.Listing, error) {
	listing, err := s.getOwned(ctx, userID, listingID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureCategoryExists(ctx, input.CategoryID); err != nil {
		return nil, err
	}

	listing.CategoryID = input.CategoryID
	s.applyInput(listing, input)

	if err := s.listingRepo.Update(ctx, listing); err != nil {
		return nil, fmt.Errorf("failed to update listing: %w", err)
	}

	slog.Info("listing updated", slog.Int64("listing_id", listingID))
	return listing, nil
}

// Delete は出品を削除する。所有者以外の削除はLISTING_NOT_FOUNDとして拒否する。
func (s *Service) Delete(ctx context.Context, userID string, listingID int64) error {
	if _, err := s.getOwned(ctx, userID, listingID); err != nil {
		return err
	}

	if err := s.listingRepo.Delete(ctx, listingID); err != nil {
		return fmt.Errorf("failed to delete listing: %w", err)
	}

	slog.Info("listing deleted", slog.Int64("listing_id", listingID))
	return nil
}

// ListAll は全出品を返す。
func (s *Service) ListAll(ctx context.Context) ([]*model.Listing, error) {
	listings, err := s.listingRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list listings: %w", err)
	}
	return listings, nil
}

// ListByUser は指定ユーザーの出品一覧を返す。
func (s *Service) ListByUser(ctx context.Context, userID string) ([]*model.Listing, error) {
	listings, err := s.listingRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user listings: %w", err)
	}
	return listings, nil
}

// Filter は条件に一致する出品を返す。検索テキストもサニタイズしてから照合する。
func (s *Service) Filter(ctx context.Context, filter *model.ListingFilter) ([]*model.Listing, error) {
	if filter.SearchText != nil {
		cleaned := s.sanitizer.Sanitize(*filter.SearchText)
		filter.SearchText = &cleaned
	}

	listings, err := s.listingRepo.ListByFilter(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to filter listings: %w", err)
	}
	return listings, nil
}

// AddPhoto は出品に写真URLを追加する。
// URLの形式・安全性を検証し、有効化されていれば到達性も確認する。
// 重複URLはPHOTO_ALREADY_EXISTSを返す。
func (s *Service) AddPhoto(ctx context.Context, userID string, listingID int64, photoURL string) (*model.Listing, error) {
	listing, err := s.getOwned(ctx, userID, listingID)
	if err != nil {
		return nil, err
	}

	if err := s.photoGuard.ValidateURL(photoURL); err != nil {
		return nil, model.NewInvalidPhotoURLError(err.Error())
	}
	if err := s.photoGuard.Probe(ctx, photoURL, s.config.PhotoProbeTimeout); err != nil {
		return nil, model.NewInvalidPhotoURLError(err.Error())
	}

	for _, existing := range listing.Photos {
		if existing == photoURL {
			return nil, model.NewPhotoExistsError(photoURL)
		}
	}

	listing.Photos = append(listing.Photos, photoURL)
	if err := s.listingRepo.UpdatePhotos(ctx, listingID, listing.Photos); err != nil {
		return nil, fmt.Errorf("failed to update photos: %w", err)
	}

	slog.Info("photo added", slog.Int64("listing_id", listingID))
	return listing, nil
}

// RemovePhoto は出品から写真URLを削除する。存在しないURLはPHOTO_NOT_FOUNDを返す。
func (s *Service) RemovePhoto(ctx context.Context, userID string, listingID int64, photoURL string) (*model.Listing, error) {
	listing, err := s.getOwned(ctx, userID, listingID)
	if err != nil {
		return nil, err
	}

	remaining := make([]string, 0, len(listing.Photos))
	found := false
	for _, existing := range listing.Photos {
		if existing == photoURL {
			found = true
			continue
		}
		remaining = append(remaining, existing)
	}
	if !found {
		return nil, model.NewPhotoNotFoundError(photoURL)
	}

	listing.Photos = remaining
	if err := s.listingRepo.UpdatePhotos(ctx, listingID, listing.Photos); err != nil {
		return nil, fmt.Errorf("failed to update photos: %w", err)
	}

	slog.Info("photo removed", slog.Int64("listing_id", listingID))
	return listing, nil
}

// ListPhotos は出品の写真URL一覧を返す。
func (s *Service) ListPhotos(ctx context.Context, listingID int64) ([]string, error) {
	listing, err := s.Get(ctx, listingID)
	if err != nil {
		return nil, err
	}
	return listing.Photos, nil
}

// getOwned は出品を取得し、所有者を検証する。
// 出品が存在しない場合と所有者が異なる場合のどちらもLISTING_NOT_FOUNDを返す。
func (s *Service) getOwned(ctx context.Context, userID string, listingID int64) (*model.Listing, error) {
	listing, err := s.listingRepo.FindByID(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("failed to find listing: %w", err)
	}
	if listing == nil || listing.UserID != userID {
		return nil, model.NewListingNotFoundError(listingID)
	}
	return listing, nil
}

func (s *Service) ensureCategoryExists(ctx context.Context, categoryID int64) error {
	category, err := s.categoryRepo.FindByID(ctx, categoryID)
	if err != nil {
		return fmt.Errorf("failed to find category: %w", err)
	}
	if category == nil {
		return model.NewCategoryNotFoundError(categoryID)
	}
	return nil
}

func (s *Service) applyInput(listing *model.Listing, input Input) {
	listing.Title = s.sanitizer.Sanitize(input.Title)
	listing.Description = s.sanitizer.Sanitize(input.Description)
	listing.Price = input.Price
	listing.Brand = s.sanitizer.Sanitize(input.Brand)
	listing.Model = s.sanitizer.Sanitize(input.Model)
	listing.Year = input.Year
	listing.Mileage = input.Mileage
	listing.Location = s.sanitizer.Sanitize(input.Location)
}
