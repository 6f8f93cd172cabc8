package catalog

import (
	"sort"

	"catalog_service/internal/domain"
	"catalog_service/internal/tagging"
)

const (
	SortRelevance = "relevance"
	SortPriceAsc  = "price-asc"
	SortPriceDesc = "price-desc"
	SortName      = "name"
	SortNewest    = "newest"

	DefaultPageSize = 24
	MaxPageSize     = 96
)

func ValidSort(key string) bool {
	switch key {
	case "", SortRelevance, SortPriceAsc, SortPriceDesc, SortName, SortNewest:
		return true
	}
	return false
}

// Sort returns a stably sorted copy. Unknown keys keep the input order.
func Sort(products []domain.Product, key string) []domain.Product {
	out := make([]domain.Product, len(products))
	copy(out, products)

	var less func(a, b *domain.Product) bool
	switch key {
	case SortPriceAsc:
		less = func(a, b *domain.Product) bool { return a.Price < b.Price }
	case SortPriceDesc:
		less = func(a, b *domain.Product) bool { return a.Price > b.Price }
	case SortName:
		less = func(a, b *domain.Product) bool { return tagging.Fold(a.Name) < tagging.Fold(b.Name) }
	case SortNewest:
		less = func(a, b *domain.Product) bool { return a.CreatedAt.After(b.CreatedAt) }
	default:
		return out
	}

	sort.SliceStable(out, func(i, j int) bool { return less(&out[i], &out[j]) })
	return out
}

// Paginate slices a 1-based page. It returns the normalized page and size.
func Paginate(products []domain.Product, page, pageSize int) ([]domain.Product, int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	// checked before multiplying so huge pages cannot overflow
	if len(products) == 0 || page-1 > (len(products)-1)/pageSize {
		return []domain.Product{}, page, pageSize
	}
	start := (page - 1) * pageSize
	end := start + pageSize
	if end > len(products) {
		end = len(products)
	}
	return products[start:end], page, pageSize
}
