// Package collections resolves rule-defined subsets of the catalog.
package collections

import (
	_ "embed"
	"fmt"
	"os"

	"catalog_service/internal/catalog"
	"catalog_service/internal/domain"
	"catalog_service/internal/tagging"

	"gopkg.in/yaml.v3"
)

//go:embed collections.yaml
var defaultCollections []byte

type Registry struct {
	collections []domain.Collection
	bySlug      map[string]int
}

func Default() (*Registry, error) {
	return Parse(defaultCollections)
}

// Load reads a collection file, falling back to the embedded set when path is empty.
func Load(path string) (*Registry, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read collections %s: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Registry, error) {
	var list []domain.Collection
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("invalid collections file: %w", err)
	}
	return New(list)
}

// New validates the collections and normalizes their slugs and rule values.
func New(list []domain.Collection) (*Registry, error) {
	r := &Registry{
		collections: make([]domain.Collection, 0, len(list)),
		bySlug:      make(map[string]int, len(list)),
	}
	for _, c := range list {
		c.Slug = tagging.Slug(c.Slug)
		if c.Slug == "" {
			return nil, fmt.Errorf("collection slug cannot be empty: %w", domain.ErrInvalidInput)
		}
		if _, dup := r.bySlug[c.Slug]; dup {
			return nil, fmt.Errorf("collection %q: %w", c.Slug, domain.ErrConflict)
		}
		if c.Match == "" {
			c.Match = domain.MatchAny
		}
		if c.Match != domain.MatchAny && c.Match != domain.MatchAll {
			return nil, fmt.Errorf("collection %q has invalid match %q: %w", c.Slug, c.Match, domain.ErrInvalidInput)
		}
		if len(c.Rules) == 0 {
			return nil, fmt.Errorf("collection %q has no rules: %w", c.Slug, domain.ErrInvalidInput)
		}

		rules := make([]domain.CollectionRule, 0, len(c.Rules))
		for _, rule := range c.Rules {
			rule.Value = tagging.Fold(rule.Value)
			if rule.Value == "" {
				return nil, fmt.Errorf("collection %q has a rule without value: %w", c.Slug, domain.ErrInvalidInput)
			}
			switch rule.Kind {
			case domain.RuleTag:
				if !domain.ValidTagType(rule.TagType) {
					return nil, fmt.Errorf("collection %q has invalid tag type %q: %w", c.Slug, rule.TagType, domain.ErrInvalidInput)
				}
			case domain.RuleCategory, domain.RuleSubcategory, domain.RuleBrand:
			default:
				return nil, fmt.Errorf("collection %q has invalid rule kind %q: %w", c.Slug, rule.Kind, domain.ErrInvalidInput)
			}
			rules = append(rules, rule)
		}
		c.Rules = rules

		r.bySlug[c.Slug] = len(r.collections)
		r.collections = append(r.collections, c)
	}
	return r, nil
}

func (r *Registry) List() []domain.Collection {
	out := make([]domain.Collection, len(r.collections))
	copy(out, r.collections)
	return out
}

func (r *Registry) Get(slug string) (domain.Collection, error) {
	idx, ok := r.bySlug[tagging.Slug(slug)]
	if !ok {
		return domain.Collection{}, fmt.Errorf("collection %q: %w", slug, domain.ErrNotFound)
	}
	return r.collections[idx], nil
}

// Resolve returns the products of the collection in input order.
func Resolve(c domain.Collection, products []domain.Product) []domain.Product {
	out := make([]domain.Product, 0)
	for i := range products {
		if Contains(c, &products[i]) {
			out = append(out, products[i])
		}
	}
	return out
}

// Contains applies the collection rules to a single product.
func Contains(c domain.Collection, p *domain.Product) bool {
	if len(c.Rules) == 0 {
		return false
	}
	for _, rule := range c.Rules {
		ok := ruleMatches(rule, p)
		if c.Match == domain.MatchAll && !ok {
			return false
		}
		if c.Match != domain.MatchAll && ok {
			return true
		}
	}
	return c.Match == domain.MatchAll
}

func ruleMatches(rule domain.CollectionRule, p *domain.Product) bool {
	switch rule.Kind {
	case domain.RuleTag:
		return p.HasTag(rule.TagType, rule.Value)
	case domain.RuleCategory:
		return catalog.InCategory(p, rule.Value)
	case domain.RuleSubcategory:
		return tagging.Fold(p.SubcategorySlug) == rule.Value
	case domain.RuleBrand:
		return tagging.Fold(p.Brand) == rule.Value
	}
	return false
}
