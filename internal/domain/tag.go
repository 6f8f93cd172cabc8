package domain

import "strings"

type TagType string

const (
	TagPersona  TagType = "persona"
	TagUso      TagType = "uso"
	TagFeature  TagType = "feature"
	TagMaterial TagType = "material"
)

// TagTypes lists every tag type in display order.
var TagTypes = []TagType{TagPersona, TagUso, TagFeature, TagMaterial}

func ValidTagType(t TagType) bool {
	switch t {
	case TagPersona, TagUso, TagFeature, TagMaterial:
		return true
	}
	return false
}

type TagSource string

const (
	SourceManual   TagSource = "manual"
	SourceInferred TagSource = "inferred"
)

// Tag is a (type, value) classification pair. Value is always a slug.
// Source does not take part in equality.
type Tag struct {
	Type   TagType   `json:"type" yaml:"type"`
	Value  string    `json:"value" yaml:"value"`
	Source TagSource `json:"source,omitempty" yaml:"-"`
}

func (t Tag) String() string {
	return string(t.Type) + ":" + t.Value
}

func (t Tag) Key() string {
	return t.String()
}

func (t Tag) Equal(o Tag) bool {
	return t.Type == o.Type && t.Value == o.Value
}

// TagsString renders tags as a comma separated "type:value" list.
func TagsString(tags []Tag) string {
	parts := make([]string, 0, len(tags))
	for _, t := range tags {
		parts = append(parts, t.String())
	}
	return strings.Join(parts, ", ")
}
