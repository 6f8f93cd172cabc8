package usecase

import (
	"context"
	"fmt"
	"strings"

	"catalog_service/internal/domain"
	"catalog_service/internal/tagging"

	"github.com/sirupsen/logrus"
)

type CategoryUseCase interface {
	CreateCategory(ctx context.Context, category *domain.Category) (*domain.Category, error)
	GetCategoryByID(ctx context.Context, id int) (*domain.Category, error)
	GetCategoryBySlug(ctx context.Context, slug string) (*domain.Category, error)
	UpdateCategory(ctx context.Context, category *domain.Category) (*domain.Category, error)
	DeleteCategory(ctx context.Context, id int) error
	ListCategories(ctx context.Context) ([]domain.Category, error)
}

// Invalidator is notified after every catalog write.
type Invalidator interface {
	Invalidate(ctx context.Context)
}

type nopInvalidator struct{}

func (nopInvalidator) Invalidate(context.Context) {}

func orNop(inv Invalidator) Invalidator {
	if inv == nil {
		return nopInvalidator{}
	}
	return inv
}

type categoryUseCase struct {
	categoryRepo domain.CategoryRepository
	invalidator  Invalidator
	log          *logrus.Logger
}

func NewCategoryUseCase(repo domain.CategoryRepository, invalidator Invalidator, logger *logrus.Logger) CategoryUseCase {
	return &categoryUseCase{
		categoryRepo: repo,
		invalidator:  orNop(invalidator),
		log:          logger,
	}
}

func invalidInput(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, domain.ErrInvalidInput)...)
}

// prepare derives the slug and checks that the parent is an existing
// top-level category.
func (uc *categoryUseCase) prepare(ctx context.Context, category *domain.Category) error {
	category.Name = strings.TrimSpace(category.Name)
	if category.Name == "" {
		uc.log.Warn("Use Case: Category with empty name")
		return invalidInput("category name cannot be empty")
	}
	if strings.TrimSpace(category.Slug) == "" {
		category.Slug = category.Name
	}
	category.Slug = tagging.Slug(category.Slug)
	if category.Slug == "" {
		return invalidInput("category slug cannot be empty")
	}

	if category.ParentID < 0 {
		return invalidInput("invalid parent ID %d", category.ParentID)
	}
	if category.ParentID == 0 {
		return nil
	}
	if category.ParentID == category.ID {
		return invalidInput("category cannot be its own parent")
	}
	parent, err := uc.categoryRepo.GetCategoryByID(ctx, category.ParentID)
	if err != nil {
		uc.log.Warnf("Use Case: Parent category ID %d not found: %v", category.ParentID, err)
		return invalidInput("parent category with id %d does not exist", category.ParentID)
	}
	if parent.IsSubcategory() {
		uc.log.Warnf("Use Case: Parent category ID %d is itself a subcategory", parent.ID)
		return invalidInput("parent category %s is a subcategory", parent.Slug)
	}
	return nil
}

func (uc *categoryUseCase) CreateCategory(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	category.ID = 0
	if err := uc.prepare(ctx, category); err != nil {
		return nil, err
	}

	uc.log.Infof("Use Case: Attempting to create category '%s'", category.Slug)
	created, err := uc.categoryRepo.CreateCategory(ctx, category)
	if err != nil {
		uc.log.Errorf("Use Case: Repository failed to create category '%s': %v", category.Slug, err)
		return nil, err
	}
	uc.invalidator.Invalidate(ctx)

	uc.log.Infof("Use Case: Category '%s' created with ID %d", created.Slug, created.ID)
	return created, nil
}

func (uc *categoryUseCase) GetCategoryByID(ctx context.Context, id int) (*domain.Category, error) {
	if id <= 0 {
		uc.log.Warnf("Use Case: Attempted to get category with invalid ID: %d", id)
		return nil, invalidInput("invalid category ID")
	}
	return uc.categoryRepo.GetCategoryByID(ctx, id)
}

func (uc *categoryUseCase) GetCategoryBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	s := tagging.Slug(slug)
	if s == "" {
		return nil, invalidInput("category slug cannot be empty")
	}
	return uc.categoryRepo.GetCategoryBySlug(ctx, s)
}

func (uc *categoryUseCase) UpdateCategory(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	if category.ID <= 0 {
		uc.log.Warnf("Use Case: Attempted update with invalid ID: %d", category.ID)
		return nil, invalidInput("invalid category ID for update")
	}
	if err := uc.prepare(ctx, category); err != nil {
		return nil, err
	}
	if category.ParentID != 0 {
		if err := uc.ensureNoChildren(ctx, category.ID); err != nil {
			return nil, err
		}
	}

	uc.log.Infof("Use Case: Attempting to update category ID %d", category.ID)
	updated, err := uc.categoryRepo.UpdateCategory(ctx, category)
	if err != nil {
		uc.log.Errorf("Use Case: Repository failed to update category ID %d: %v", category.ID, err)
		return nil, err
	}
	uc.invalidator.Invalidate(ctx)

	uc.log.Infof("Use Case: Category updated for ID %d", updated.ID)
	return updated, nil
}

// ensureNoChildren keeps the tree two levels deep when a top-level category
// is moved under another one.
func (uc *categoryUseCase) ensureNoChildren(ctx context.Context, id int) error {
	all, err := uc.categoryRepo.ListCategories(ctx)
	if err != nil {
		return fmt.Errorf("could not retrieve categories: %w", err)
	}
	for _, c := range all {
		if c.ParentID == id {
			return invalidInput("category %d has subcategories and cannot become one", id)
		}
	}
	return nil
}

func (uc *categoryUseCase) DeleteCategory(ctx context.Context, id int) error {
	if id <= 0 {
		uc.log.Warnf("Use Case: Attempted delete with invalid ID: %d", id)
		return invalidInput("invalid category ID for delete")
	}

	uc.log.Infof("Use Case: Attempting to delete category ID %d", id)
	if err := uc.categoryRepo.DeleteCategory(ctx, id); err != nil {
		uc.log.Warnf("Use Case: Repository failed to delete category ID %d: %v", id, err)
		return err
	}
	uc.invalidator.Invalidate(ctx)

	uc.log.Infof("Use Case: Category deleted for ID %d", id)
	return nil
}

func (uc *categoryUseCase) ListCategories(ctx context.Context) ([]domain.Category, error) {
	categories, err := uc.categoryRepo.ListCategories(ctx)
	if err != nil {
		uc.log.Errorf("Use Case: Repository failed to list categories: %v", err)
		return nil, fmt.Errorf("could not retrieve categories: %w", err)
	}
	uc.log.Debugf("Use Case: Retrieved %d categories", len(categories))
	return categories, nil
}
