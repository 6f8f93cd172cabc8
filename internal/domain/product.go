// domain/product.go
package domain

import "context"

type ProductRepository interface {
	CreateProduct(ctx context.Context, product *Product) (*Product, error)
	GetProductByID(ctx context.Context, id int) (*Product, error)
	GetProductBySlug(ctx context.Context, slug string) (*Product, error)

	// UpdateProduct applies column updates. A "tags" entry holding []Tag
	// replaces the product's tags in the same transaction.
	UpdateProduct(ctx context.Context, id int, updates map[string]interface{}) (*Product, error)

	DeleteProduct(ctx context.Context, id int) error
	ListProducts(ctx context.Context, limit, offset int) ([]Product, error)
	// ListAllProducts returns the whole catalog with tags and category slugs joined.
	ListAllProducts(ctx context.Context) ([]Product, error)
	ReplaceTags(ctx context.Context, productID int, tags []Tag) error
}
