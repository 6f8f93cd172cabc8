package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"catalog_service/internal/domain"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

const productSelect = `
        SELECT p.id, p.slug, p.name, p.brand, p.description, p.price, p.stock,
               COALESCE(p.category_id, 0), COALESCE(p.subcategory_id, 0),
               COALESCE(c.slug, ''), COALESCE(s.slug, ''),
               p.material, p.length_cm, p.diameter_cm, p.image_url, p.created_at
        FROM products p
        LEFT JOIN categories c ON c.id = p.category_id
        LEFT JOIN categories s ON s.id = p.subcategory_id`

// productColumns lists the fields UpdateProduct accepts.
var productColumns = map[string]bool{
	"slug": true, "name": true, "brand": true, "description": true,
	"price": true, "stock": true, "category_id": true, "subcategory_id": true,
	"material": true, "length_cm": true, "diameter_cm": true, "image_url": true,
}

type postgresProductRepository struct {
	db  *sql.DB
	log *logrus.Logger
}

func NewPostgresProductRepository(db *sql.DB, logger *logrus.Logger) domain.ProductRepository {
	return &postgresProductRepository{
		db:  db,
		log: logger,
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row rowScanner) (domain.Product, error) {
	var p domain.Product
	err := row.Scan(
		&p.ID, &p.Slug, &p.Name, &p.Brand, &p.Description, &p.Price, &p.Stock,
		&p.CategoryID, &p.SubcategoryID,
		&p.CategorySlug, &p.SubcategorySlug,
		&p.Material, &p.LengthCM, &p.DiameterCM, &p.ImageURL, &p.CreatedAt,
	)
	p.Tags = []domain.Tag{}
	return p, err
}

// mapWriteError turns constraint violations on products into domain errors.
func (r *postgresProductRepository) mapWriteError(err error, product string) error {
	pqErr, ok := pqCode(err)
	if !ok {
		return nil
	}
	switch pqErr.Code {
	case pqUniqueViolation:
		r.log.Warnf("Repository: Duplicate slug for product '%s'", product)
		return fmt.Errorf("product with slug '%s': %w", product, domain.ErrConflict)
	case pqForeignKeyViolation:
		r.log.Warnf("Repository: Product '%s' references a non-existent category: %s", product, pqErr.Detail)
		return fmt.Errorf("category does not exist: %w", domain.ErrInvalidInput)
	case pqCheckViolation:
		r.log.Warnf("Repository: Check constraint violation for product '%s': %s", product, pqErr.Message)
		return fmt.Errorf("product data constraint violation: %s: %w", pqErr.Message, domain.ErrInvalidInput)
	}
	return nil
}

func (r *postgresProductRepository) CreateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
        INSERT INTO products (slug, name, brand, description, price, stock, category_id, subcategory_id,
                              material, length_cm, diameter_cm, image_url)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
        RETURNING id, created_at`
	err = tx.QueryRowContext(ctx, query,
		product.Slug, product.Name, product.Brand, product.Description, product.Price, product.Stock,
		nullID(product.CategoryID), nullID(product.SubcategoryID),
		product.Material, product.LengthCM, product.DiameterCM, product.ImageURL,
	).Scan(&product.ID, &product.CreatedAt)
	if err != nil {
		if mapped := r.mapWriteError(err, product.Slug); mapped != nil {
			return nil, mapped
		}
		r.log.Errorf("Repository: Failed to create product '%s': %v", product.Name, err)
		return nil, fmt.Errorf("could not create product: %w", err)
	}

	if err := insertTags(ctx, tx, product.ID, product.Tags); err != nil {
		r.log.Errorf("Repository: Failed to store tags for product '%s': %v", product.Name, err)
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("could not commit product: %w", err)
	}

	r.log.Infof("Repository: Product created with ID: %d, Slug: %s", product.ID, product.Slug)
	return r.GetProductByID(ctx, product.ID)
}

func (r *postgresProductRepository) GetProductByID(ctx context.Context, id int) (*domain.Product, error) {
	return r.getOne(ctx, productSelect+` WHERE p.id = $1`, id, fmt.Sprintf("id %d", id))
}

func (r *postgresProductRepository) GetProductBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	return r.getOne(ctx, productSelect+` WHERE p.slug = $1`, slug, fmt.Sprintf("slug '%s'", slug))
}

func (r *postgresProductRepository) getOne(ctx context.Context, query string, arg interface{}, what string) (*domain.Product, error) {
	product, err := scanProduct(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.log.Warnf("Repository: Product with %s not found", what)
			return nil, fmt.Errorf("product with %s: %w", what, domain.ErrNotFound)
		}
		r.log.Errorf("Repository: Failed to get product by %s: %v", what, err)
		return nil, fmt.Errorf("could not get product: %w", err)
	}

	tags, err := r.loadTags(ctx, []int{product.ID})
	if err != nil {
		return nil, err
	}
	if t, ok := tags[product.ID]; ok {
		product.Tags = t
	}
	return &product, nil
}

func (r *postgresProductRepository) UpdateProduct(ctx context.Context, id int, updates map[string]interface{}) (*domain.Product, error) {
	var tags []domain.Tag
	replaceTags := false
	keys := make([]string, 0, len(updates))
	for key, value := range updates {
		if key == "tags" {
			t, ok := value.([]domain.Tag)
			if !ok {
				return nil, fmt.Errorf("invalid type for tags: %w", domain.ErrInvalidInput)
			}
			tags, replaceTags = t, true
			continue
		}
		if !productColumns[key] {
			r.log.Warnf("Repository: Skipping unknown field '%s' provided for product update ID %d", key, id)
			continue
		}
		keys = append(keys, key)
	}
	if len(keys) == 0 && !replaceTags {
		r.log.Infof("Repository: No fields provided for product update ID %d. Returning current product.", id)
		return r.GetProductByID(ctx, id)
	}
	sort.Strings(keys)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	if len(keys) > 0 {
		if err := r.updateColumns(ctx, tx, id, keys, updates); err != nil {
			return nil, err
		}
	} else {
		var exists bool
		if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, id).Scan(&exists); err != nil {
			return nil, fmt.Errorf("could not check product: %w", err)
		}
		if !exists {
			return nil, fmt.Errorf("product with id %d: %w", id, domain.ErrNotFound)
		}
	}

	if replaceTags {
		if _, err := tx.ExecContext(ctx, `DELETE FROM product_tags WHERE product_id = $1`, id); err != nil {
			r.log.Errorf("Repository: Failed to clear tags for product ID %d: %v", id, err)
			return nil, fmt.Errorf("could not clear product tags: %w", err)
		}
		if err := insertTags(ctx, tx, id, tags); err != nil {
			r.log.Errorf("Repository: Failed to store tags for product ID %d: %v", id, err)
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("could not commit product update: %w", err)
	}

	r.log.Infof("Repository: Partial update successful for product ID %d", id)
	return r.GetProductByID(ctx, id)
}

func (r *postgresProductRepository) updateColumns(ctx context.Context, tx *sql.Tx, id int, keys []string, updates map[string]interface{}) error {
	setClauses := make([]string, 0, len(keys))
	args := make([]interface{}, 0, len(keys)+1)
	for i, key := range keys {
		value := updates[key]
		if key == "category_id" || key == "subcategory_id" {
			catID, ok := value.(int)
			if !ok {
				r.log.Errorf("Repository: Invalid type received for %s for product ID %d: %T", key, id, value)
				return fmt.Errorf("invalid type for %s: %w", key, domain.ErrInvalidInput)
			}
			value = nullID(catID)
		}
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", key, i+1))
		args = append(args, value)
	}
	query := "UPDATE products SET " + strings.Join(setClauses, ", ") + fmt.Sprintf(" WHERE id = $%d", len(args)+1)
	args = append(args, id)

	r.log.Debugf("Repository: Executing partial update query for ID %d: %s", id, query)

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		slug, _ := updates["slug"].(string)
		if mapped := r.mapWriteError(err, slug); mapped != nil {
			return mapped
		}
		r.log.Errorf("Repository: Failed to execute partial update for product ID %d: %v", id, err)
		return fmt.Errorf("could not update product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not confirm product update: %w", err)
	}
	if rowsAffected == 0 {
		r.log.Warnf("Repository: Product with ID %d not found for update", id)
		return fmt.Errorf("product with id %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (r *postgresProductRepository) DeleteProduct(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		r.log.Errorf("Repository: Failed to delete product ID %d: %v", id, err)
		return fmt.Errorf("could not delete product: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not confirm product deletion: %w", err)
	}
	if rowsAffected == 0 {
		r.log.Warnf("Repository: Attempted to delete non-existent product ID %d", id)
		return fmt.Errorf("product with id %d: %w", id, domain.ErrNotFound)
	}
	r.log.Infof("Repository: Product deleted with ID: %d", id)
	return nil
}

func (r *postgresProductRepository) ListProducts(ctx context.Context, limit, offset int) ([]domain.Product, error) {
	limit, offset = clampPage(limit, offset)
	return r.list(ctx, productSelect+` ORDER BY p.id ASC LIMIT $1 OFFSET $2`, limit, offset)
}

func (r *postgresProductRepository) ListAllProducts(ctx context.Context) ([]domain.Product, error) {
	return r.list(ctx, productSelect+` ORDER BY p.id ASC`)
}

func (r *postgresProductRepository) list(ctx context.Context, query string, args ...interface{}) ([]domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.log.Errorf("Repository: Failed to list products: %v", err)
		return nil, fmt.Errorf("could not list products: %w", err)
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			r.log.Errorf("Repository: Failed to scan product row: %v", err)
			return nil, fmt.Errorf("error scanning product data: %w", err)
		}
		products = append(products, product)
	}
	if err = rows.Err(); err != nil {
		r.log.Errorf("Repository: Error during products list iteration: %v", err)
		return nil, fmt.Errorf("error iterating products: %w", err)
	}
	if len(products) == 0 {
		return products, nil
	}

	ids := make([]int, len(products))
	for i := range products {
		ids[i] = products[i].ID
	}
	tags, err := r.loadTags(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range products {
		if t, ok := tags[products[i].ID]; ok {
			products[i].Tags = t
		}
	}

	r.log.Debugf("Repository: Retrieved %d products", len(products))
	return products, nil
}

func (r *postgresProductRepository) loadTags(ctx context.Context, ids []int) (map[int][]domain.Tag, error) {
	query := `
        SELECT product_id, type, value, source
        FROM product_tags
        WHERE product_id = ANY($1)
        ORDER BY product_id, position`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		r.log.Errorf("Repository: Failed to load product tags: %v", err)
		return nil, fmt.Errorf("could not load product tags: %w", err)
	}
	defer rows.Close()

	tags := make(map[int][]domain.Tag, len(ids))
	for rows.Next() {
		var id int
		var tag domain.Tag
		if err := rows.Scan(&id, &tag.Type, &tag.Value, &tag.Source); err != nil {
			return nil, fmt.Errorf("error scanning product tag: %w", err)
		}
		tags[id] = append(tags[id], tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating product tags: %w", err)
	}
	return tags, nil
}

func (r *postgresProductRepository) ReplaceTags(ctx context.Context, productID int, tags []domain.Tag) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, productID).Scan(&exists); err != nil {
		return fmt.Errorf("could not check product: %w", err)
	}
	if !exists {
		return fmt.Errorf("product with id %d: %w", productID, domain.ErrNotFound)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM product_tags WHERE product_id = $1`, productID); err != nil {
		r.log.Errorf("Repository: Failed to clear tags for product ID %d: %v", productID, err)
		return fmt.Errorf("could not clear product tags: %w", err)
	}
	if err := insertTags(ctx, tx, productID, tags); err != nil {
		r.log.Errorf("Repository: Failed to store tags for product ID %d: %v", productID, err)
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("could not commit product tags: %w", err)
	}

	r.log.Debugf("Repository: Stored %d tags for product ID %d", len(tags), productID)
	return nil
}

func insertTags(ctx context.Context, tx *sql.Tx, productID int, tags []domain.Tag) error {
	if len(tags) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `
        INSERT INTO product_tags (product_id, type, value, source, position)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (product_id, type, value) DO NOTHING`)
	if err != nil {
		return fmt.Errorf("could not prepare tag insert: %w", err)
	}
	defer stmt.Close()

	for i, tag := range tags {
		source := tag.Source
		if source == "" {
			source = domain.SourceManual
		}
		if _, err := stmt.ExecContext(ctx, productID, tag.Type, tag.Value, source, i); err != nil {
			if isPQ(err, pqCheckViolation) {
				return fmt.Errorf("invalid tag %s: %w", tag, domain.ErrInvalidInput)
			}
			return fmt.Errorf("could not insert tag %s: %w", tag, err)
		}
	}
	return nil
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
