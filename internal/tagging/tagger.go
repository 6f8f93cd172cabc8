package tagging

import (
	"strings"

	"catalog_service/internal/domain"
)

// Tagger derives tags for products from a RuleTable. It holds no mutable
// state and is safe for concurrent use.
type Tagger struct {
	rules *RuleTable
}

func NewTagger(rules *RuleTable) *Tagger {
	return &Tagger{rules: rules}
}

func (t *Tagger) Rules() *RuleTable {
	return t.rules
}

// Infer returns the tags implied by category membership and free text:
// category tags, then subcategory tags, then keyword matches in rule order.
func (t *Tagger) Infer(category, subcategory, text string) []domain.Tag {
	var tags []domain.Tag
	if category != "" {
		tags = append(tags, t.rules.Categories[Slug(category)]...)
	}
	if subcategory != "" {
		tags = append(tags, t.rules.Subcategories[Slug(subcategory)]...)
	}

	normalized := Normalize(text)
	for _, rule := range t.rules.Keywords {
		for _, phrase := range rule.Phrases {
			if containsPhrase(normalized, phrase) {
				tags = append(tags, rule.Tags...)
				break
			}
		}
	}

	return withSource(Dedup(tags), domain.SourceInferred)
}

// Enrich merges manual tags with inferred ones. Tags already marked as
// inferred in the input are dropped and re-derived, so Enrich is idempotent.
func (t *Tagger) Enrich(current []domain.Tag, category, subcategory, text string) []domain.Tag {
	manual := make([]domain.Tag, 0, len(current))
	for _, tag := range current {
		value := Slug(tag.Value)
		if tag.Source == domain.SourceInferred || !domain.ValidTagType(tag.Type) || value == "" {
			continue
		}
		manual = append(manual, domain.Tag{Type: tag.Type, Value: value})
	}
	manual = withSource(Dedup(manual), domain.SourceManual)

	return Dedup(append(manual, t.Infer(category, subcategory, text)...))
}

// EnrichProduct enriches p in place from its category slugs and its name,
// brand and description.
func (t *Tagger) EnrichProduct(p *domain.Product, plainDescription string) {
	p.Tags = t.Enrich(p.Tags, p.CategorySlug, p.SubcategorySlug, ProductText(p, plainDescription))
}

// ProductText is the free text the tagger reads for a product.
func ProductText(p *domain.Product, plainDescription string) string {
	return strings.Join([]string{p.Name, p.Brand, p.Material, plainDescription}, "\n")
}

// ParseTags reads manual tags from "type:value" entries separated by commas,
// semicolons or newlines. Malformed entries and unknown types are skipped.
func ParseTags(raw string) []domain.Tag {
	entries := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';' || r == '\n'
	})
	tags := make([]domain.Tag, 0, len(entries))
	for _, e := range entries {
		tag, err := ParseTag(strings.TrimSpace(e))
		if err != nil {
			continue
		}
		tag.Source = domain.SourceManual
		tags = append(tags, tag)
	}
	return Dedup(tags)
}

// Dedup keeps the first occurrence of each (type, value) pair.
func Dedup(tags []domain.Tag) []domain.Tag {
	seen := make(map[string]struct{}, len(tags))
	out := make([]domain.Tag, 0, len(tags))
	for _, tag := range tags {
		if _, ok := seen[tag.Key()]; ok {
			continue
		}
		seen[tag.Key()] = struct{}{}
		out = append(out, tag)
	}
	return out
}

func withSource(tags []domain.Tag, src domain.TagSource) []domain.Tag {
	for i := range tags {
		tags[i].Source = src
	}
	return tags
}
