package domain

type RuleKind string

const (
	RuleTag         RuleKind = "tag"
	RuleCategory    RuleKind = "category"
	RuleSubcategory RuleKind = "subcategory"
	RuleBrand       RuleKind = "brand"
)

type MatchMode string

const (
	MatchAny MatchMode = "any"
	MatchAll MatchMode = "all"
)

type CollectionRule struct {
	Kind    RuleKind `json:"kind" yaml:"kind"`
	TagType TagType  `json:"tag_type,omitempty" yaml:"tag_type,omitempty"`
	Value   string   `json:"value" yaml:"value"`
}

// Collection is a named subset of the catalog defined by rules.
type Collection struct {
	Slug        string           `json:"slug" yaml:"slug"`
	Title       string           `json:"title" yaml:"title"`
	Description string           `json:"description,omitempty" yaml:"description,omitempty"`
	Match       MatchMode        `json:"match" yaml:"match"`
	Rules       []CollectionRule `json:"rules" yaml:"rules"`
}
