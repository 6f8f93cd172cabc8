package catalog

import (
	"sort"

	"catalog_service/internal/domain"
	"catalog_service/internal/tagging"
)

// Related picks up to n products from the same category as p, most shared
// tags first. Without a category only products sharing a tag qualify.
func Related(p *domain.Product, products []domain.Product, n int) []domain.Product {
	if n <= 0 {
		return []domain.Product{}
	}

	own := make(valueSet, len(p.Tags))
	for _, t := range p.Tags {
		own[t.Key()] = struct{}{}
	}

	type scored struct {
		product domain.Product
		shared  int
	}
	var candidates []scored
	for i := range products {
		other := &products[i]
		if other.ID == p.ID {
			continue
		}
		shared := 0
		for _, t := range other.Tags {
			if own.has(t.Key()) {
				shared++
			}
		}
		sameCategory := p.CategorySlug != "" && InCategory(other, p.CategorySlug)
		if !sameCategory && (p.CategorySlug != "" || shared == 0) {
			continue
		}
		candidates = append(candidates, scored{product: *other, shared: shared})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].shared != candidates[j].shared {
			return candidates[i].shared > candidates[j].shared
		}
		return tagging.Fold(candidates[i].product.Name) < tagging.Fold(candidates[j].product.Name)
	})

	if len(candidates) > n {
		candidates = candidates[:n]
	}
	out := make([]domain.Product, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, c.product)
	}
	return out
}
