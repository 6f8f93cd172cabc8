package tagging

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"catalog_service/internal/domain"

	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var defaultRules []byte

type KeywordRule struct {
	Phrases []string
	Tags    []domain.Tag
}

// RuleTable maps keywords, category slugs and subcategory slugs to tags.
// Phrases and slugs are stored normalized.
type RuleTable struct {
	Keywords      []KeywordRule
	Categories    map[string][]domain.Tag
	Subcategories map[string][]domain.Tag
}

type ruleFile struct {
	Keywords []struct {
		Phrases []string `yaml:"phrases"`
		Tags    []string `yaml:"tags"`
	} `yaml:"keywords"`
	Categories    map[string][]string `yaml:"categories"`
	Subcategories map[string][]string `yaml:"subcategories"`
}

func DefaultRules() (*RuleTable, error) {
	return ParseRules(defaultRules)
}

// LoadRules reads a rule file, falling back to the embedded table when path is empty.
func LoadRules(path string) (*RuleTable, error) {
	if path == "" {
		return DefaultRules()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read tag rules %s: %w", path, err)
	}
	return ParseRules(data)
}

func ParseRules(data []byte) (*RuleTable, error) {
	var raw ruleFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid tag rules: %w", err)
	}

	rt := &RuleTable{
		Categories:    make(map[string][]domain.Tag, len(raw.Categories)),
		Subcategories: make(map[string][]domain.Tag, len(raw.Subcategories)),
	}

	for i, kw := range raw.Keywords {
		tags, err := parseTagList(kw.Tags)
		if err != nil {
			return nil, fmt.Errorf("keyword rule %d: %w", i, err)
		}
		rule := KeywordRule{Tags: tags}
		for _, p := range kw.Phrases {
			if n := Normalize(p); n != "" {
				rule.Phrases = append(rule.Phrases, n)
			}
		}
		if len(rule.Phrases) == 0 || len(rule.Tags) == 0 {
			return nil, fmt.Errorf("keyword rule %d: phrases and tags cannot be empty: %w", i, domain.ErrInvalidInput)
		}
		rt.Keywords = append(rt.Keywords, rule)
	}

	for slug, entries := range raw.Categories {
		tags, err := parseTagList(entries)
		if err != nil {
			return nil, fmt.Errorf("category rule %q: %w", slug, err)
		}
		rt.Categories[Slug(slug)] = tags
	}
	for slug, entries := range raw.Subcategories {
		tags, err := parseTagList(entries)
		if err != nil {
			return nil, fmt.Errorf("subcategory rule %q: %w", slug, err)
		}
		rt.Subcategories[Slug(slug)] = tags
	}

	return rt, nil
}

// YAML renders the table in the rule file format.
func (rt *RuleTable) YAML() ([]byte, error) {
	var raw ruleFile
	for _, kw := range rt.Keywords {
		raw.Keywords = append(raw.Keywords, struct {
			Phrases []string `yaml:"phrases"`
			Tags    []string `yaml:"tags"`
		}{Phrases: kw.Phrases, Tags: tagStrings(kw.Tags)})
	}
	raw.Categories = make(map[string][]string, len(rt.Categories))
	for slug, tags := range rt.Categories {
		raw.Categories[slug] = tagStrings(tags)
	}
	raw.Subcategories = make(map[string][]string, len(rt.Subcategories))
	for slug, tags := range rt.Subcategories {
		raw.Subcategories[slug] = tagStrings(tags)
	}
	return yaml.Marshal(raw)
}

func parseTagList(entries []string) ([]domain.Tag, error) {
	tags := make([]domain.Tag, 0, len(entries))
	for _, e := range entries {
		t, err := ParseTag(e)
		if err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return Dedup(tags), nil
}

// ParseTag parses a single "type:value" entry.
func ParseTag(s string) (domain.Tag, error) {
	idx := strings.IndexAny(s, ":=")
	if idx <= 0 {
		return domain.Tag{}, fmt.Errorf("tag %q must be type:value: %w", s, domain.ErrInvalidInput)
	}
	t := domain.TagType(Slug(s[:idx]))
	if !domain.ValidTagType(t) {
		return domain.Tag{}, fmt.Errorf("tag %q has invalid type %q: %w", s, t, domain.ErrInvalidInput)
	}
	value := Slug(s[idx+1:])
	if value == "" {
		return domain.Tag{}, fmt.Errorf("tag %q value cannot be empty: %w", s, domain.ErrInvalidInput)
	}
	return domain.Tag{Type: t, Value: value}, nil
}

func tagStrings(tags []domain.Tag) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		out = append(out, t.String())
	}
	return out
}
