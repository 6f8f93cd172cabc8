package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"catalog_service/internal/domain"

	"github.com/jinzhu/copier"
)

// MemoryStore keeps categories and products in process. It enforces the same
// constraints as the Postgres schema and hands out copies, never its own
// records. Used by tests and by offline tooling.
type MemoryStore struct {
	mu         sync.RWMutex
	categories map[int]domain.Category
	products   map[int]domain.Product
	nextCat    int
	nextProd   int
	now        func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		categories: make(map[int]domain.Category),
		products:   make(map[int]domain.Product),
		now:        time.Now,
	}
}

func (s *MemoryStore) Categories() domain.CategoryRepository {
	return &memoryCategoryRepository{s: s}
}

func (s *MemoryStore) Products() domain.ProductRepository {
	return &memoryProductRepository{s: s}
}

func cloneTags(tags []domain.Tag) []domain.Tag {
	out := []domain.Tag{}
	if len(tags) == 0 {
		return out
	}
	if err := copier.CopyWithOption(&out, tags, copier.Option{DeepCopy: true}); err != nil {
		panic("could not copy tags: " + err.Error())
	}
	return out
}

func (s *MemoryStore) cloneProduct(p domain.Product) domain.Product {
	cp := p
	cp.Tags = cloneTags(p.Tags)
	cp.CategorySlug = s.categories[p.CategoryID].Slug
	cp.SubcategorySlug = s.categories[p.SubcategoryID].Slug
	return cp
}

type memoryCategoryRepository struct {
	s *MemoryStore
}

func (r *memoryCategoryRepository) slugTaken(slug string, exceptID int) bool {
	for id, c := range r.s.categories {
		if c.Slug == slug && id != exceptID {
			return true
		}
	}
	return false
}

func (r *memoryCategoryRepository) check(c *domain.Category) error {
	if r.slugTaken(c.Slug, c.ID) {
		return fmt.Errorf("category with slug '%s': %w", c.Slug, domain.ErrConflict)
	}
	if c.ParentID != 0 {
		if _, ok := r.s.categories[c.ParentID]; !ok {
			return fmt.Errorf("parent category with id %d does not exist: %w", c.ParentID, domain.ErrInvalidInput)
		}
	}
	return nil
}

func (r *memoryCategoryRepository) CreateCategory(_ context.Context, category *domain.Category) (*domain.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	category.ID = 0
	if err := r.check(category); err != nil {
		return nil, err
	}
	r.s.nextCat++
	category.ID = r.s.nextCat
	r.s.categories[category.ID] = *category
	cp := *category
	return &cp, nil
}

func (r *memoryCategoryRepository) GetCategoryByID(_ context.Context, id int) (*domain.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.categories[id]
	if !ok {
		return nil, fmt.Errorf("category with id %d: %w", id, domain.ErrNotFound)
	}
	return &c, nil
}

func (r *memoryCategoryRepository) GetCategoryBySlug(_ context.Context, slug string) (*domain.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, c := range r.s.categories {
		if c.Slug == slug {
			cp := c
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("category with slug '%s': %w", slug, domain.ErrNotFound)
}

func (r *memoryCategoryRepository) UpdateCategory(_ context.Context, category *domain.Category) (*domain.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.categories[category.ID]; !ok {
		return nil, fmt.Errorf("category with id %d: %w", category.ID, domain.ErrNotFound)
	}
	if err := r.check(category); err != nil {
		return nil, err
	}
	r.s.categories[category.ID] = *category
	cp := *category
	return &cp, nil
}

func (r *memoryCategoryRepository) DeleteCategory(_ context.Context, id int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.categories[id]; !ok {
		return fmt.Errorf("category with id %d: %w", id, domain.ErrNotFound)
	}
	for _, c := range r.s.categories {
		if c.ParentID == id {
			return fmt.Errorf("category with id %d is in use: %w", id, domain.ErrConflict)
		}
	}
	for _, p := range r.s.products {
		if p.CategoryID == id || p.SubcategoryID == id {
			return fmt.Errorf("category with id %d is in use: %w", id, domain.ErrConflict)
		}
	}
	delete(r.s.categories, id)
	return nil
}

func (r *memoryCategoryRepository) ListCategories(_ context.Context) ([]domain.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]domain.Category, 0, len(r.s.categories))
	for _, c := range r.s.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type memoryProductRepository struct {
	s *MemoryStore
}

func (r *memoryProductRepository) check(p *domain.Product) error {
	for id, other := range r.s.products {
		if other.Slug == p.Slug && id != p.ID {
			return fmt.Errorf("product with slug '%s': %w", p.Slug, domain.ErrConflict)
		}
	}
	for _, ref := range []int{p.CategoryID, p.SubcategoryID} {
		if ref == 0 {
			continue
		}
		if _, ok := r.s.categories[ref]; !ok {
			return fmt.Errorf("category does not exist: %w", domain.ErrInvalidInput)
		}
	}
	if p.Price <= 0 || p.Stock < 0 || p.LengthCM < 0 || p.DiameterCM < 0 {
		return fmt.Errorf("product data constraint violation: %w", domain.ErrInvalidInput)
	}
	return nil
}

func (r *memoryProductRepository) CreateProduct(_ context.Context, product *domain.Product) (*domain.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	product.ID = 0
	if err := r.check(product); err != nil {
		return nil, err
	}
	r.s.nextProd++
	stored := *product
	stored.ID = r.s.nextProd
	stored.CreatedAt = r.s.now()
	stored.Tags = dedupTags(product.Tags)
	r.s.products[stored.ID] = stored

	out := r.s.cloneProduct(stored)
	return &out, nil
}

func (r *memoryProductRepository) GetProductByID(_ context.Context, id int) (*domain.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.products[id]
	if !ok {
		return nil, fmt.Errorf("product with id %d: %w", id, domain.ErrNotFound)
	}
	out := r.s.cloneProduct(p)
	return &out, nil
}

func (r *memoryProductRepository) GetProductBySlug(_ context.Context, slug string) (*domain.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, p := range r.s.products {
		if p.Slug == slug {
			out := r.s.cloneProduct(p)
			return &out, nil
		}
	}
	return nil, fmt.Errorf("product with slug '%s': %w", slug, domain.ErrNotFound)
}

func (r *memoryProductRepository) UpdateProduct(_ context.Context, id int, updates map[string]interface{}) (*domain.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.products[id]
	if !ok {
		return nil, fmt.Errorf("product with id %d: %w", id, domain.ErrNotFound)
	}
	for key, value := range updates {
		if key == "tags" {
			tags, ok := value.([]domain.Tag)
			if !ok {
				return nil, fmt.Errorf("invalid type for tags: %w", domain.ErrInvalidInput)
			}
			for _, t := range tags {
				if !domain.ValidTagType(t.Type) || t.Value == "" {
					return nil, fmt.Errorf("invalid tag %s: %w", t, domain.ErrInvalidInput)
				}
			}
			p.Tags = dedupTags(cloneTags(tags))
			continue
		}
		if !productColumns[key] {
			continue
		}
		if err := setProductField(&p, key, value); err != nil {
			return nil, err
		}
	}
	if err := r.check(&p); err != nil {
		return nil, err
	}
	r.s.products[id] = p

	out := r.s.cloneProduct(p)
	return &out, nil
}

func setProductField(p *domain.Product, key string, value interface{}) error {
	var ok bool
	switch key {
	case "slug":
		p.Slug, ok = value.(string)
	case "name":
		p.Name, ok = value.(string)
	case "brand":
		p.Brand, ok = value.(string)
	case "description":
		p.Description, ok = value.(string)
	case "material":
		p.Material, ok = value.(string)
	case "image_url":
		p.ImageURL, ok = value.(string)
	case "price":
		p.Price, ok = value.(float64)
	case "length_cm":
		p.LengthCM, ok = value.(float64)
	case "diameter_cm":
		p.DiameterCM, ok = value.(float64)
	case "stock":
		p.Stock, ok = value.(int)
	case "category_id":
		p.CategoryID, ok = value.(int)
	case "subcategory_id":
		p.SubcategoryID, ok = value.(int)
	}
	if !ok {
		return fmt.Errorf("invalid type for %s: %w", key, domain.ErrInvalidInput)
	}
	return nil
}

func (r *memoryProductRepository) DeleteProduct(_ context.Context, id int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.products[id]; !ok {
		return fmt.Errorf("product with id %d: %w", id, domain.ErrNotFound)
	}
	delete(r.s.products, id)
	return nil
}

func (r *memoryProductRepository) sorted() []domain.Product {
	out := make([]domain.Product, 0, len(r.s.products))
	for _, p := range r.s.products {
		out = append(out, r.s.cloneProduct(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *memoryProductRepository) ListProducts(_ context.Context, limit, offset int) ([]domain.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	limit, offset = clampPage(limit, offset)
	all := r.sorted()
	if offset >= len(all) {
		return []domain.Product{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (r *memoryProductRepository) ListAllProducts(_ context.Context) ([]domain.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.sorted(), nil
}

func (r *memoryProductRepository) ReplaceTags(_ context.Context, productID int, tags []domain.Tag) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.products[productID]
	if !ok {
		return fmt.Errorf("product with id %d: %w", productID, domain.ErrNotFound)
	}
	for _, t := range tags {
		if !domain.ValidTagType(t.Type) || t.Value == "" {
			return fmt.Errorf("invalid tag %s: %w", t, domain.ErrInvalidInput)
		}
	}
	p.Tags = dedupTags(tags)
	r.s.products[productID] = p
	return nil
}

// dedupTags mirrors the product_tags primary key and the default source.
func dedupTags(tags []domain.Tag) []domain.Tag {
	seen := make(map[string]struct{}, len(tags))
	out := make([]domain.Tag, 0, len(tags))
	for _, t := range tags {
		if _, ok := seen[t.Key()]; ok {
			continue
		}
		seen[t.Key()] = struct{}{}
		if t.Source == "" {
			t.Source = domain.SourceManual
		}
		out = append(out, t)
	}
	return out
}
