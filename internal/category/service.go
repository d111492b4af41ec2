// Package category はカテゴリ管理のドメインロジックを提供する。
// 変更系の操作はハンドラ側でROLE_ADMINを要求する。
package category

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SelahattinSert/listigo-demo/internal/model"
	"github.com/SelahattinSert/listigo-demo/internal/repository"
	"github.com/SelahattinSert/listigo-demo/internal/security"
)

// Service はカテゴリ管理のビジネスロジックを提供する。
type Service struct {
	categoryRepo repository.CategoryRepository
	sanitizer    security.TextSanitizerService
}

// NewService はServiceを生成する。
func NewService(categoryRepo repository.CategoryRepository, sanitizer security.TextSanitizerService) *Service {
	return &Service{
		categoryRepo: categoryRepo,
		sanitizer:    sanitizer,
	}
}

// Create は新規カテゴリを作成する。同名カテゴリが存在する場合は
// CATEGORY_ALREADY_EXISTSを返す。
func (s *Service) Create(ctx context.Context, name string) (*model.Category, error) {
	name = s.sanitizer.Sanitize(name)

	existing, err := s.categoryRepo.FindByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing category: %w", err)
	}
	if existing != nil {
		return nil, model.NewCategoryExistsError(name)
	}

	category := &model.Category{Name: name}
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	slog.Info("category created", slog.Int64("category_id", category.ID))
	return category, nil
}

// Get は指定IDのカテゴリを返す。存在しない場合はCATEGORY_NOT_FOUNDを返す。
func (s *Service) Get(ctx context.Context, id int64) (*model.Category, error) {
	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find category: %w", err)
	}
	if category == nil {
		return nil, model.NewCategoryNotFoundError(id)
	}
	return category, nil
}

// Update はカテゴリ名を変更する。変更後の名前が他カテゴリと重複する場合は
// CATEGORY_ALREADY_EXISTSを返す。
func (s *Service) Update(ctx context.Context, id int64, name string) (*model.Category, error) {
	category, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	name = s.sanitizer.Sanitize(name)
	duplicate, err := s.categoryRepo.FindByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to check duplicate category: %w", err)
	}
	if duplicate != nil && duplicate.ID != id {
		return nil, model.NewCategoryExistsError(name)
	}

	category.Name = name
	if err := s.categoryRepo.Update(ctx, category); err != nil {
		return nil, fmt.Errorf("failed to update category: %w", err)
	}

	slog.Info("category updated", slog.Int64("category_id", id))
	return category, nil
}

// Delete は指定IDのカテゴリを削除する。
func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	if err := s.categoryRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}

	slog.Info("category deleted", slog.Int64("category_id", id))
	return nil
}

// ListAll は全カテゴリを返す。
func (s *Service) ListAll(ctx context.Context) ([]*model.Category, error) {
	categories, err := s.categoryRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}
