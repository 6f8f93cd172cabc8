// Package catalog holds the pure functions behind the storefront filter panel:
// matching products against a Selection, facet counting, sorting, paging and
// category membership. Nothing here does I/O or keeps state.
package catalog

import (
	"html"
	"regexp"
	"sort"
	"strings"

	"catalog_service/internal/domain"
	"catalog_service/internal/tagging"
)

const (
	dimBrand    = "brand"
	dimMaterial = "material"
	dimLength   = "length"
	dimDiameter = "diameter"
)

// facetTagTypes are the tag types exposed as their own facet. Material tags
// are folded into the material facet.
var facetTagTypes = []domain.TagType{domain.TagPersona, domain.TagUso, domain.TagFeature}

type valueSet map[string]struct{}

func (s valueSet) has(v string) bool {
	_, ok := s[v]
	return ok
}

// FoldValues splits comma separated entries, folds every value and returns
// the distinct results sorted. It is the canonical form of one filter
// dimension: selections with equal FoldValues match the same products.
func FoldValues(values ...[]string) []string {
	set := foldSet(values...)
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func foldSet(values ...[]string) valueSet {
	set := valueSet{}
	for _, vs := range values {
		for _, v := range vs {
			for _, part := range strings.Split(v, ",") {
				if f := tagging.Fold(part); f != "" {
					set[f] = struct{}{}
				}
			}
		}
	}
	return set
}

// compiled is a Selection with every value folded once.
type compiled struct {
	brands      valueSet
	materials   valueSet
	lengths     valueSet
	diameters   valueSet
	tags        map[domain.TagType]valueSet
	category    string
	queryTokens []string
	priceMin    float64
	priceMax    float64
	inStock     bool
}

func compile(sel domain.Selection) *compiled {
	c := &compiled{
		brands:    foldSet(sel.Brands),
		materials: foldSet(sel.Materials, sel.Tags[domain.TagMaterial]),
		lengths:   foldSet(sel.Lengths),
		diameters: foldSet(sel.Diameters),
		tags:      make(map[domain.TagType]valueSet, len(facetTagTypes)),
		category:  tagging.Fold(sel.Category),
		priceMin:  sel.PriceMin,
		priceMax:  sel.PriceMax,
		inStock:   sel.InStockOnly,
	}
	for _, t := range facetTagTypes {
		if set := foldSet(sel.Tags[t]); len(set) > 0 {
			c.tags[t] = set
		}
	}
	if q := tagging.Normalize(sel.Query); q != "" {
		c.queryTokens = strings.Fields(q)
	}
	return c
}

// Matches reports whether p satisfies every active dimension of sel.
func Matches(p *domain.Product, sel domain.Selection) bool {
	return compile(sel).match(p, "")
}

// Filter returns the products matching sel in their original order.
func Filter(products []domain.Product, sel domain.Selection) []domain.Product {
	c := compile(sel)
	out := make([]domain.Product, 0, len(products))
	for i := range products {
		if c.match(&products[i], "") {
			out = append(out, products[i])
		}
	}
	return out
}

// InCategory reports whether p belongs to the category or subcategory slug.
func InCategory(p *domain.Product, slug string) bool {
	f := tagging.Fold(slug)
	if f == "" {
		return false
	}
	return tagging.Fold(p.CategorySlug) == f || tagging.Fold(p.SubcategorySlug) == f
}

// match checks every dimension except skip.
func (c *compiled) match(p *domain.Product, skip string) bool {
	if c.category != "" && !InCategory(p, c.category) {
		return false
	}
	if c.inStock && p.Stock <= 0 {
		return false
	}
	if c.priceMin > 0 && p.Price < c.priceMin {
		return false
	}
	if c.priceMax > 0 && p.Price > c.priceMax {
		return false
	}
	if len(c.queryTokens) > 0 && !matchQuery(p, c.queryTokens) {
		return false
	}

	if skip != dimBrand && len(c.brands) > 0 && !c.brands.has(tagging.Fold(p.Brand)) {
		return false
	}
	if skip != dimMaterial && len(c.materials) > 0 && !anyIn(c.materials, materialValues(p)) {
		return false
	}
	if skip != dimLength && len(c.lengths) > 0 && !c.lengths.has(bucketFor(LengthBuckets, p.LengthCM)) {
		return false
	}
	if skip != dimDiameter && len(c.diameters) > 0 && !c.diameters.has(bucketFor(DiameterBuckets, p.DiameterCM)) {
		return false
	}
	for t, set := range c.tags {
		if skip == string(t) {
			continue
		}
		if !anyIn(set, p.TagValues(t)) {
			return false
		}
	}
	return true
}

func anyIn(set valueSet, values []string) bool {
	for _, v := range values {
		if set.has(v) {
			return true
		}
	}
	return false
}

// materialValues is the folded material attribute plus every material tag.
func materialValues(p *domain.Product) []string {
	var values []string
	if m := tagging.Fold(p.Material); m != "" {
		values = append(values, m)
	}
	for _, v := range p.TagValues(domain.TagMaterial) {
		if f := tagging.Fold(v); f != "" && (len(values) == 0 || values[0] != f) {
			values = append(values, f)
		}
	}
	return values
}

var reMarkup = regexp.MustCompile(`<[^>]*>`)

// matchQuery requires every token to start a word of the product text.
// Descriptions are stored as sanitized HTML, so markup is ignored.
func matchQuery(p *domain.Product, tokens []string) bool {
	description := html.UnescapeString(reMarkup.ReplaceAllString(p.Description, " "))
	parts := []string{p.Name, p.Brand, p.Material, description}
	for _, t := range p.Tags {
		parts = append(parts, t.Value)
	}
	haystack := " " + tagging.Normalize(strings.Join(parts, " "))
	for _, tok := range tokens {
		if !strings.Contains(haystack, " "+tok) {
			return false
		}
	}
	return true
}
