package usecase

import (
	"context"
	"fmt"
	"strings"

	"catalog_service/internal/catalog"
	"catalog_service/internal/domain"
	"catalog_service/internal/observability"
	"catalog_service/internal/sanitize"
	"catalog_service/internal/tagging"

	"github.com/sirupsen/logrus"
)

type ProductUseCase interface {
	CreateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error)
	GetProductByID(ctx context.Context, id int) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id int, updates map[string]interface{}) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id int) error
	ListProducts(ctx context.Context, limit, offset int) ([]domain.Product, error)
	ListProductsByCategory(ctx context.Context, categoryID, limit, offset int) ([]domain.Product, error)
	Retag(ctx context.Context) (RetagReport, error)
}

type RetagReport struct {
	Scanned int `json:"scanned"`
	Updated int `json:"updated"`
}

type productUseCase struct {
	productRepo  domain.ProductRepository
	categoryRepo domain.CategoryRepository
	tagger       *tagging.Tagger
	invalidator  Invalidator
	metrics      *observability.Metrics
	log          *logrus.Logger
}

func NewProductUseCase(
	pRepo domain.ProductRepository,
	cRepo domain.CategoryRepository,
	tagger *tagging.Tagger,
	invalidator Invalidator,
	metrics *observability.Metrics,
	logger *logrus.Logger,
) ProductUseCase {
	return &productUseCase{
		productRepo:  pRepo,
		categoryRepo: cRepo,
		tagger:       tagger,
		invalidator:  orNop(invalidator),
		metrics:      metrics,
		log:          logger,
	}
}

// enrichProduct sanitizes the description, then derives tags and missing
// attributes from the product text.
func enrichProduct(tagger *tagging.Tagger, p *domain.Product) {
	p.Description = sanitize.Description(p.Description)
	plain := sanitize.PlainText(p.Description)
	tagger.EnrichProduct(p, plain)
	tagging.ExtractAttributes(p, tagging.ProductText(p, plain))
}

func (uc *productUseCase) enrich(p *domain.Product) {
	enrichProduct(uc.tagger, p)

	inferred := make(map[string]int)
	for _, t := range p.Tags {
		if t.Source == domain.SourceInferred {
			inferred[string(t.Type)]++
		}
	}
	uc.metrics.Tagged(inferred)
}

// resolveCategories validates the category references of p and fills in
// their slugs. A subcategory alone implies its parent.
func (uc *productUseCase) resolveCategories(ctx context.Context, p *domain.Product) error {
	if p.CategoryID < 0 || p.SubcategoryID < 0 {
		return invalidInput("category ids must be positive or 0")
	}
	p.CategorySlug, p.SubcategorySlug = "", ""

	if p.SubcategoryID != 0 {
		sub, err := uc.categoryRepo.GetCategoryByID(ctx, p.SubcategoryID)
		if err != nil {
			uc.log.Warnf("Use Case: Subcategory ID %d not found: %v", p.SubcategoryID, err)
			return invalidInput("category with id %d does not exist", p.SubcategoryID)
		}
		if !sub.IsSubcategory() {
			return invalidInput("category %s is not a subcategory", sub.Slug)
		}
		if p.CategoryID == 0 {
			p.CategoryID = sub.ParentID
		} else if sub.ParentID != p.CategoryID {
			return invalidInput("subcategory %s does not belong to category %d", sub.Slug, p.CategoryID)
		}
		p.SubcategorySlug = sub.Slug
	}

	if p.CategoryID != 0 {
		cat, err := uc.categoryRepo.GetCategoryByID(ctx, p.CategoryID)
		if err != nil {
			uc.log.Warnf("Use Case: Category ID %d not found: %v", p.CategoryID, err)
			return invalidInput("category with id %d does not exist", p.CategoryID)
		}
		if cat.IsSubcategory() {
			return invalidInput("category %s is a subcategory, use subcategory_id", cat.Slug)
		}
		p.CategorySlug = cat.Slug
	}
	return nil
}

func (uc *productUseCase) CreateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	product.Name = strings.TrimSpace(product.Name)
	if product.Name == "" {
		uc.log.Warn("Use Case: Attempted to create product with empty name")
		return nil, invalidInput("product name cannot be empty")
	}
	if product.Price <= 0 {
		uc.log.Warnf("Use Case: Attempted to create product '%s' with invalid price: %f", product.Name, product.Price)
		return nil, invalidInput("product price must be positive")
	}
	if product.Stock < 0 {
		uc.log.Warnf("Use Case: Attempted to create product '%s' with negative stock: %d", product.Name, product.Stock)
		return nil, invalidInput("product stock cannot be negative")
	}
	if product.LengthCM < 0 || product.DiameterCM < 0 {
		return nil, invalidInput("product measures cannot be negative")
	}
	if strings.TrimSpace(product.Slug) == "" {
		product.Slug = product.Name
	}
	product.Slug = tagging.Slug(product.Slug)
	if product.Slug == "" {
		return nil, invalidInput("product slug cannot be empty")
	}
	if err := uc.resolveCategories(ctx, product); err != nil {
		return nil, err
	}

	uc.enrich(product)

	uc.log.Infof("Use Case: Attempting to create product '%s' with tags [%s]", product.Slug, domain.TagsString(product.Tags))
	created, err := uc.productRepo.CreateProduct(ctx, product)
	if err != nil {
		uc.log.Errorf("Use Case: Repository failed to create product '%s': %v", product.Slug, err)
		return nil, err
	}
	uc.invalidator.Invalidate(ctx)

	uc.log.Infof("Use Case: Product '%s' created with ID %d", created.Slug, created.ID)
	return created, nil
}

func (uc *productUseCase) GetProductByID(ctx context.Context, id int) (*domain.Product, error) {
	if id <= 0 {
		uc.log.Warnf("Use Case: Attempted to get product with invalid ID: %d", id)
		return nil, invalidInput("invalid product ID")
	}
	product, err := uc.productRepo.GetProductByID(ctx, id)
	if err != nil {
		uc.log.Warnf("Use Case: Repository failed to get product ID %d: %v", id, err)
		return nil, err
	}
	return product, nil
}

func toInt(value interface{}) (int, bool) {
	switch v := value.(type) {
	case nil:
		return 0, true
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if float64(int(v)) != v {
			return 0, false
		}
		return int(v), true
	}
	return 0, false
}

func toFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}

// manualTags accepts a "type:value" list or a JSON array of entries.
func manualTags(value interface{}) ([]domain.Tag, bool) {
	switch v := value.(type) {
	case string:
		return tagging.ParseTags(v), true
	case []string:
		return tagging.ParseTags(strings.Join(v, ",")), true
	case []interface{}:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			parts = append(parts, s)
		}
		return tagging.ParseTags(strings.Join(parts, ",")), true
	}
	return nil, false
}

// applyUpdates validates updates and writes them into p. It returns the
// columns that changed.
func (uc *productUseCase) applyUpdates(id int, p *domain.Product, updates map[string]interface{}) ([]string, error) {
	var changed []string
	for key, value := range updates {
		switch key {
		case "name", "slug", "brand", "description", "material", "image_url":
			s, ok := value.(string)
			if !ok {
				return nil, invalidInput("%s must be a string", key)
			}
			s = strings.TrimSpace(s)
			switch key {
			case "name":
				if s == "" {
					return nil, invalidInput("product name cannot be empty if provided for update")
				}
				p.Name = s
			case "slug":
				p.Slug = tagging.Slug(s)
				if p.Slug == "" {
					return nil, invalidInput("product slug cannot be empty if provided for update")
				}
			case "brand":
				p.Brand = s
			case "description":
				p.Description = s
			case "material":
				p.Material = s
			case "image_url":
				p.ImageURL = s
			}
		case "price":
			price, ok := toFloat(value)
			if !ok || price <= 0 {
				uc.log.Warnf("Use Case: Invalid or non-positive 'price' provided for update ID %d", id)
				return nil, invalidInput("product price must be positive if provided for update")
			}
			p.Price = price
		case "stock":
			stock, ok := toInt(value)
			if !ok || value == nil || stock < 0 {
				uc.log.Warnf("Use Case: Invalid or negative 'stock' provided for update ID %d", id)
				return nil, invalidInput("product stock cannot be negative if provided for update")
			}
			p.Stock = stock
		case "category_id", "subcategory_id":
			catID, ok := toInt(value)
			if !ok || catID < 0 {
				return nil, invalidInput("%s must be positive or 0/null", key)
			}
			if key == "category_id" {
				p.CategoryID = catID
			} else {
				p.SubcategoryID = catID
			}
		case "length_cm", "diameter_cm":
			v, ok := toFloat(value)
			if !ok || v < 0 {
				return nil, invalidInput("%s cannot be negative", key)
			}
			if key == "length_cm" {
				p.LengthCM = v
			} else {
				p.DiameterCM = v
			}
		case "tags":
			tags, ok := manualTags(value)
			if !ok {
				return nil, invalidInput("tags must be a type:value list")
			}
			p.Tags = tags
		default:
			uc.log.Warnf("Use Case: Attempted to update unknown or unsupported field '%s' for product ID %d", key, id)
			continue
		}
		changed = append(changed, key)
	}
	return changed, nil
}

func productFields(p *domain.Product, keys []string) map[string]interface{} {
	out := make(map[string]interface{}, len(keys))
	for _, key := range keys {
		switch key {
		case "name":
			out[key] = p.Name
		case "slug":
			out[key] = p.Slug
		case "brand":
			out[key] = p.Brand
		case "description":
			out[key] = p.Description
		case "material":
			out[key] = p.Material
		case "image_url":
			out[key] = p.ImageURL
		case "price":
			out[key] = p.Price
		case "stock":
			out[key] = p.Stock
		case "category_id":
			out[key] = p.CategoryID
		case "subcategory_id":
			out[key] = p.SubcategoryID
		case "length_cm":
			out[key] = p.LengthCM
		case "diameter_cm":
			out[key] = p.DiameterCM
		}
	}
	return out
}

var derivedFields = []string{"description", "material", "length_cm", "diameter_cm"}

func (uc *productUseCase) UpdateProduct(ctx context.Context, id int, updates map[string]interface{}) (*domain.Product, error) {
	if id <= 0 {
		uc.log.Warnf("Use Case: Attempted update with invalid product ID: %d", id)
		return nil, invalidInput("invalid product ID for update")
	}
	current, err := uc.productRepo.GetProductByID(ctx, id)
	if err != nil {
		uc.log.Warnf("Use Case: Product ID %d not found for update: %v", id, err)
		return nil, err
	}

	merged := *current
	merged.Tags = append([]domain.Tag(nil), current.Tags...)
	changed, err := uc.applyUpdates(id, &merged, updates)
	if err != nil {
		return nil, err
	}
	if len(changed) == 0 {
		uc.log.Infof("Use Case: No valid fields provided for update ID %d", id)
		return current, nil
	}
	if err := uc.resolveCategories(ctx, &merged); err != nil {
		return nil, err
	}

	uc.enrich(&merged)

	fields := productFields(&merged, append(changed, derivedFields...))
	fields["tags"] = merged.Tags
	uc.log.Infof("Use Case: Attempting partial update for product ID %d with fields: %v", id, changed)
	if _, err := uc.productRepo.UpdateProduct(ctx, id, fields); err != nil {
		uc.log.Errorf("Use Case: Repository failed partial update for product ID %d: %v", id, err)
		return nil, err
	}
	uc.invalidator.Invalidate(ctx)

	uc.log.Infof("Use Case: Product updated for ID %d", id)
	return uc.productRepo.GetProductByID(ctx, id)
}

func (uc *productUseCase) DeleteProduct(ctx context.Context, id int) error {
	if id <= 0 {
		uc.log.Warnf("Use Case: Attempted delete with invalid product ID: %d", id)
		return invalidInput("invalid product ID for delete")
	}
	if err := uc.productRepo.DeleteProduct(ctx, id); err != nil {
		uc.log.Warnf("Use Case: Repository failed to delete product ID %d: %v", id, err)
		return err
	}
	uc.invalidator.Invalidate(ctx)

	uc.log.Infof("Use Case: Product deleted for ID %d", id)
	return nil
}

func (uc *productUseCase) ListProducts(ctx context.Context, limit, offset int) ([]domain.Product, error) {
	if limit < 0 || offset < 0 {
		uc.log.Warnf("Use Case: Invalid pagination parameters (limit: %d, offset: %d)", limit, offset)
	}
	products, err := uc.productRepo.ListProducts(ctx, limit, offset)
	if err != nil {
		uc.log.Errorf("Use Case: Repository failed to list products: %v", err)
		return nil, fmt.Errorf("could not retrieve products: %w", err)
	}
	return products, nil
}

// ListProductsByCategory lists the products of a category, subcategories
// included.
func (uc *productUseCase) ListProductsByCategory(ctx context.Context, categoryID, limit, offset int) ([]domain.Product, error) {
	if categoryID <= 0 {
		uc.log.Warnf("Use Case: Attempted list by category with invalid category ID: %d", categoryID)
		return nil, invalidInput("invalid category ID")
	}
	cat, err := uc.categoryRepo.GetCategoryByID(ctx, categoryID)
	if err != nil {
		uc.log.Warnf("Use Case: Category ID %d not found: %v", categoryID, err)
		return nil, err
	}
	all, err := uc.productRepo.ListAllProducts(ctx)
	if err != nil {
		uc.log.Errorf("Use Case: Repository failed to list products for category %d: %v", categoryID, err)
		return nil, fmt.Errorf("could not retrieve products for category %d: %w", categoryID, err)
	}

	products := []domain.Product{}
	for i := range all {
		if catalog.InCategory(&all[i], cat.Slug) {
			products = append(products, all[i])
		}
	}

	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(products) {
		return []domain.Product{}, nil
	}
	end := offset + limit
	if end > len(products) {
		end = len(products)
	}
	return products[offset:end], nil
}

// Retag re-runs enrichment over the whole catalog and stores what changed.
func (uc *productUseCase) Retag(ctx context.Context) (RetagReport, error) {
	var report RetagReport
	all, err := uc.productRepo.ListAllProducts(ctx)
	if err != nil {
		uc.log.Errorf("Use Case: Repository failed to list products for retag: %v", err)
		return report, fmt.Errorf("could not retrieve products: %w", err)
	}

	for i := range all {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		before := all[i]
		after := before
		after.Tags = append([]domain.Tag(nil), before.Tags...)
		uc.enrich(&after)
		report.Scanned++

		tagsChanged := !sameTags(before.Tags, after.Tags)
		attrsChanged := before.Description != after.Description || before.Material != after.Material ||
			before.LengthCM != after.LengthCM || before.DiameterCM != after.DiameterCM
		if !tagsChanged && !attrsChanged {
			continue
		}

		if attrsChanged {
			fields := productFields(&after, derivedFields)
			if tagsChanged {
				fields["tags"] = after.Tags
			}
			if _, err := uc.productRepo.UpdateProduct(ctx, after.ID, fields); err != nil {
				return report, fmt.Errorf("could not update product %d: %w", after.ID, err)
			}
		} else if err := uc.productRepo.ReplaceTags(ctx, after.ID, after.Tags); err != nil {
			return report, fmt.Errorf("could not store tags of product %d: %w", after.ID, err)
		}
		uc.log.Infof("Use Case: Retagged product '%s': [%s]", after.Slug, domain.TagsString(after.Tags))
		report.Updated++
	}

	if report.Updated > 0 {
		uc.invalidator.Invalidate(ctx)
	}
	uc.log.Infof("Use Case: Retag scanned %d products, updated %d", report.Scanned, report.Updated)
	return report, nil
}

func sameTags(a, b []domain.Tag) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) || a[i].Source != b[i].Source {
			return false
		}
	}
	return true
}
