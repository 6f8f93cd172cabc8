package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"catalog_service/internal/cache"
	"catalog_service/internal/catalog"
	"catalog_service/internal/collections"
	"catalog_service/internal/domain"
	"catalog_service/internal/observability"
	"catalog_service/internal/tagging"

	"github.com/sirupsen/logrus"
)

const relatedCount = 4

type PreviewRequest struct {
	Name        string `json:"name"`
	Brand       string `json:"brand"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Subcategory string `json:"subcategory"`
	Tags        string `json:"tags"`
}

type PreviewResult struct {
	Tags        []domain.Tag `json:"tags"`
	Material    string       `json:"material,omitempty"`
	LengthCM    float64      `json:"length_cm,omitempty"`
	DiameterCM  float64      `json:"diameter_cm,omitempty"`
	Description string       `json:"description"`
}

type CollectionSummary struct {
	domain.Collection
	Count int `json:"count"`
}

// CatalogUseCase serves storefront reads from an in-memory snapshot of the
// catalog. Responses are cached per catalog version.
type CatalogUseCase struct {
	productRepo  domain.ProductRepository
	categoryRepo domain.CategoryRepository
	registry     *collections.Registry
	tagger       *tagging.Tagger
	cache        cache.Cache
	metrics      *observability.Metrics
	snapshotTTL  time.Duration
	now          func() time.Time
	log          *logrus.Logger

	mu       sync.Mutex
	snapshot []domain.Product
	loadedAt time.Time
}

func NewCatalogUseCase(
	pRepo domain.ProductRepository,
	cRepo domain.CategoryRepository,
	registry *collections.Registry,
	tagger *tagging.Tagger,
	c cache.Cache,
	metrics *observability.Metrics,
	snapshotTTL time.Duration,
	logger *logrus.Logger,
) *CatalogUseCase {
	if c == nil {
		c = cache.Noop{}
	}
	return &CatalogUseCase{
		productRepo:  pRepo,
		categoryRepo: cRepo,
		registry:     registry,
		tagger:       tagger,
		cache:        c,
		metrics:      metrics,
		snapshotTTL:  snapshotTTL,
		now:          time.Now,
		log:          logger,
	}
}

// products returns the current snapshot, reloading it once it is older than
// the snapshot TTL. Callers must not modify the returned slice.
func (uc *CatalogUseCase) products(ctx context.Context) ([]domain.Product, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	if uc.snapshot != nil && uc.now().Sub(uc.loadedAt) < uc.snapshotTTL {
		return uc.snapshot, nil
	}
	all, err := uc.productRepo.ListAllProducts(ctx)
	if err != nil {
		uc.log.Errorf("Use Case: Failed to load catalog snapshot: %v", err)
		return nil, fmt.Errorf("could not load catalog: %w", err)
	}
	uc.snapshot = all
	uc.loadedAt = uc.now()
	uc.metrics.SnapshotLoaded()
	uc.log.Debugf("Use Case: Catalog snapshot loaded with %d products", len(all))
	return all, nil
}

// Invalidate drops the snapshot and moves the cache to a new version.
func (uc *CatalogUseCase) Invalidate(ctx context.Context) {
	uc.mu.Lock()
	uc.snapshot = nil
	uc.mu.Unlock()

	version, err := uc.cache.Bump(ctx)
	if err != nil {
		uc.log.Warnf("Use Case: Could not bump cache version: %v", err)
		return
	}
	uc.log.Debugf("Use Case: Catalog cache version is now %d", version)
}

func validateSelection(sel domain.Selection) error {
	if !catalog.ValidSort(sel.Sort) {
		return invalidInput("unknown sort '%s'", sel.Sort)
	}
	if sel.PriceMin < 0 || sel.PriceMax < 0 {
		return invalidInput("price bounds cannot be negative")
	}
	if sel.PriceMax > 0 && sel.PriceMin > sel.PriceMax {
		return invalidInput("price_min cannot exceed price_max")
	}
	if sel.Page < 0 || sel.PageSize < 0 {
		return invalidInput("page and page_size cannot be negative")
	}
	return nil
}

// cached looks the page up under the current catalog version and builds it
// on a miss. Cache failures degrade to building the page.
func (uc *CatalogUseCase) cached(ctx context.Context, scope string, sel domain.Selection, build func() (*domain.ProductPage, error)) (*domain.ProductPage, error) {
	version, err := uc.cache.Version(ctx)
	if err != nil {
		uc.log.Warnf("Use Case: Cache unavailable, building '%s' directly: %v", scope, err)
		uc.metrics.CacheError()
		return build()
	}

	key := cache.Key(version, scope, sel)
	var page domain.ProductPage
	hit, err := uc.cache.Get(ctx, key, &page)
	if err != nil {
		uc.log.Warnf("Use Case: Cache read failed for %s: %v", key, err)
		uc.metrics.CacheError()
	}
	if hit {
		uc.metrics.CacheHit()
		return &page, nil
	}
	uc.metrics.CacheMiss()

	built, err := build()
	if err != nil {
		return nil, err
	}
	if err := uc.cache.Set(ctx, key, built); err != nil {
		uc.log.Warnf("Use Case: Cache write failed for %s: %v", key, err)
		uc.metrics.CacheError()
	}
	return built, nil
}

// buildPage filters, sorts and paginates base. Facets are computed over base
// so every option count reflects the other active filters.
func buildPage(base []domain.Product, sel domain.Selection) *domain.ProductPage {
	filtered := catalog.Filter(base, sel)
	sorted := catalog.Sort(filtered, sel.Sort)
	items, page, size := catalog.Paginate(sorted, sel.Page, sel.PageSize)
	return &domain.ProductPage{
		Items:    items,
		Total:    len(filtered),
		Page:     page,
		PageSize: size,
		Facets:   catalog.Facets(base, sel),
	}
}

func (uc *CatalogUseCase) Browse(ctx context.Context, sel domain.Selection) (*domain.ProductPage, error) {
	if err := validateSelection(sel); err != nil {
		return nil, err
	}
	return uc.cached(ctx, "browse", sel, func() (*domain.ProductPage, error) {
		products, err := uc.products(ctx)
		if err != nil {
			return nil, err
		}
		return buildPage(products, sel), nil
	})
}

// CategoryProducts lists a category page. Products of its subcategories are
// included.
func (uc *CatalogUseCase) CategoryProducts(ctx context.Context, slug string, sel domain.Selection) (*domain.Category, *domain.ProductPage, error) {
	if err := validateSelection(sel); err != nil {
		return nil, nil, err
	}
	cat, err := uc.categoryRepo.GetCategoryBySlug(ctx, tagging.Slug(slug))
	if err != nil {
		uc.log.Warnf("Use Case: Category '%s' requested by storefront: %v", slug, err)
		return nil, nil, err
	}

	sel.Category = cat.Slug
	page, err := uc.cached(ctx, "category:"+cat.Slug, sel, func() (*domain.ProductPage, error) {
		products, err := uc.products(ctx)
		if err != nil {
			return nil, err
		}
		return buildPage(products, sel), nil
	})
	if err != nil {
		return nil, nil, err
	}
	return cat, page, nil
}

func (uc *CatalogUseCase) CollectionProducts(ctx context.Context, slug string, sel domain.Selection) (*domain.Collection, *domain.ProductPage, error) {
	if err := validateSelection(sel); err != nil {
		return nil, nil, err
	}
	coll, err := uc.registry.Get(slug)
	if err != nil {
		uc.log.Warnf("Use Case: Collection '%s' requested by storefront: %v", slug, err)
		return nil, nil, err
	}

	page, err := uc.cached(ctx, "collection:"+coll.Slug, sel, func() (*domain.ProductPage, error) {
		products, err := uc.products(ctx)
		if err != nil {
			return nil, err
		}
		return buildPage(collections.Resolve(coll, products), sel), nil
	})
	if err != nil {
		return nil, nil, err
	}
	return &coll, page, nil
}

func (uc *CatalogUseCase) Collections(ctx context.Context) ([]CollectionSummary, error) {
	products, err := uc.products(ctx)
	if err != nil {
		return nil, err
	}
	list := uc.registry.List()
	out := make([]CollectionSummary, 0, len(list))
	for _, c := range list {
		n := 0
		for i := range products {
			if collections.Contains(c, &products[i]) {
				n++
			}
		}
		out = append(out, CollectionSummary{Collection: c, Count: n})
	}
	return out, nil
}

func (uc *CatalogUseCase) ProductDetail(ctx context.Context, slug string) (*domain.ProductDetail, error) {
	s := tagging.Slug(slug)
	if s == "" {
		return nil, invalidInput("product slug cannot be empty")
	}
	products, err := uc.products(ctx)
	if err != nil {
		return nil, err
	}
	for i := range products {
		if products[i].Slug == s {
			return &domain.ProductDetail{
				Product: products[i],
				Related: catalog.Related(&products[i], products, relatedCount),
			}, nil
		}
	}
	return nil, fmt.Errorf("product with slug '%s': %w", s, domain.ErrNotFound)
}

func (uc *CatalogUseCase) PreviewTags(req PreviewRequest) PreviewResult {
	return Preview(uc.tagger, req)
}

// Preview runs enrichment on unsaved input so merchandisers can see the
// tags a product would get.
func Preview(tagger *tagging.Tagger, req PreviewRequest) PreviewResult {
	p := &domain.Product{
		Name:            strings.TrimSpace(req.Name),
		Brand:           strings.TrimSpace(req.Brand),
		Description:     req.Description,
		CategorySlug:    tagging.Slug(req.Category),
		SubcategorySlug: tagging.Slug(req.Subcategory),
		Tags:            tagging.ParseTags(req.Tags),
	}
	enrichProduct(tagger, p)
	return PreviewResult{
		Tags:        p.Tags,
		Material:    p.Material,
		LengthCM:    p.LengthCM,
		DiameterCM:  p.DiameterCM,
		Description: p.Description,
	}
}
