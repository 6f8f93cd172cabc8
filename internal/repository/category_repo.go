package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"catalog_service/internal/domain"

	"github.com/sirupsen/logrus"
)

type postgresCategoryRepository struct {
	db  *sql.DB
	log *logrus.Logger
}

func NewPostgresCategoryRepository(db *sql.DB, logger *logrus.Logger) domain.CategoryRepository {
	return &postgresCategoryRepository{
		db:  db,
		log: logger,
	}
}

func (r *postgresCategoryRepository) CreateCategory(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	query := `INSERT INTO categories (slug, name, parent_id) VALUES ($1, $2, $3) RETURNING id`
	err := r.db.QueryRowContext(ctx, query, category.Slug, category.Name, nullID(category.ParentID)).Scan(&category.ID)
	if err != nil {
		if isPQ(err, pqUniqueViolation) {
			r.log.Warnf("Repository: Attempted to create category with duplicate slug: %s", category.Slug)
			return nil, fmt.Errorf("category with slug '%s': %w", category.Slug, domain.ErrConflict)
		}
		if isPQ(err, pqForeignKeyViolation) {
			r.log.Warnf("Repository: Attempted to create category with non-existent parent ID: %d", category.ParentID)
			return nil, fmt.Errorf("parent category with id %d does not exist: %w", category.ParentID, domain.ErrInvalidInput)
		}
		r.log.Errorf("Repository: Failed to create category '%s': %v", category.Name, err)
		return nil, fmt.Errorf("could not create category: %w", err)
	}
	r.log.Infof("Repository: Category created with ID: %d, Slug: %s", category.ID, category.Slug)
	return category, nil
}

func (r *postgresCategoryRepository) GetCategoryByID(ctx context.Context, id int) (*domain.Category, error) {
	return r.getOne(ctx, `SELECT id, slug, name, COALESCE(parent_id, 0) FROM categories WHERE id = $1`, id, fmt.Sprintf("id %d", id))
}

func (r *postgresCategoryRepository) GetCategoryBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	return r.getOne(ctx, `SELECT id, slug, name, COALESCE(parent_id, 0) FROM categories WHERE slug = $1`, slug, fmt.Sprintf("slug '%s'", slug))
}

func (r *postgresCategoryRepository) getOne(ctx context.Context, query string, arg interface{}, what string) (*domain.Category, error) {
	category := &domain.Category{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&category.ID, &category.Slug, &category.Name, &category.ParentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.log.Warnf("Repository: Category with %s not found", what)
			return nil, fmt.Errorf("category with %s: %w", what, domain.ErrNotFound)
		}
		r.log.Errorf("Repository: Failed to get category by %s: %v", what, err)
		return nil, fmt.Errorf("could not get category: %w", err)
	}
	return category, nil
}

func (r *postgresCategoryRepository) UpdateCategory(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	query := `UPDATE categories SET slug = $1, name = $2, parent_id = $3 WHERE id = $4
        RETURNING id, slug, name, COALESCE(parent_id, 0)`
	err := r.db.QueryRowContext(ctx, query, category.Slug, category.Name, nullID(category.ParentID), category.ID).
		Scan(&category.ID, &category.Slug, &category.Name, &category.ParentID)
	if err != nil {
		if isPQ(err, pqUniqueViolation) {
			r.log.Warnf("Repository: Attempted to update category ID %d with duplicate slug: %s", category.ID, category.Slug)
			return nil, fmt.Errorf("category with slug '%s': %w", category.Slug, domain.ErrConflict)
		}
		if isPQ(err, pqForeignKeyViolation) {
			return nil, fmt.Errorf("parent category with id %d does not exist: %w", category.ParentID, domain.ErrInvalidInput)
		}
		if errors.Is(err, sql.ErrNoRows) {
			r.log.Warnf("Repository: Category with ID %d not found for update", category.ID)
			return nil, fmt.Errorf("category with id %d: %w", category.ID, domain.ErrNotFound)
		}
		r.log.Errorf("Repository: Failed to update category ID %d: %v", category.ID, err)
		return nil, fmt.Errorf("could not update category: %w", err)
	}
	r.log.Infof("Repository: Category updated with ID: %d", category.ID)
	return category, nil
}

func (r *postgresCategoryRepository) DeleteCategory(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		if isPQ(err, pqForeignKeyViolation) {
			r.log.Warnf("Repository: Category ID %d is still referenced", id)
			return fmt.Errorf("category with id %d is in use: %w", id, domain.ErrConflict)
		}
		r.log.Errorf("Repository: Failed to delete category ID %d: %v", id, err)
		return fmt.Errorf("could not delete category: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		r.log.Errorf("Repository: Failed to get rows affected after deleting category ID %d: %v", id, err)
		return fmt.Errorf("could not confirm category deletion: %w", err)
	}
	if rowsAffected == 0 {
		r.log.Warnf("Repository: Attempted to delete non-existent category ID %d", id)
		return fmt.Errorf("category with id %d: %w", id, domain.ErrNotFound)
	}

	r.log.Infof("Repository: Category deleted with ID: %d", id)
	return nil
}

func (r *postgresCategoryRepository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, slug, name, COALESCE(parent_id, 0) FROM categories ORDER BY id ASC`)
	if err != nil {
		r.log.Errorf("Repository: Failed to list categories: %v", err)
		return nil, fmt.Errorf("could not list categories: %w", err)
	}
	defer rows.Close()

	categories := []domain.Category{}
	for rows.Next() {
		var category domain.Category
		if err := rows.Scan(&category.ID, &category.Slug, &category.Name, &category.ParentID); err != nil {
			r.log.Errorf("Repository: Failed to scan category row: %v", err)
			return nil, fmt.Errorf("error scanning category: %w", err)
		}
		categories = append(categories, category)
	}
	if err = rows.Err(); err != nil {
		r.log.Errorf("Repository: Error during categories list iteration: %v", err)
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	r.log.Debugf("Repository: Retrieved %d categories", len(categories))
	return categories, nil
}
