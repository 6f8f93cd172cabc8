package domain

import "time"

type Product struct {
	ID              int       `json:"id"`
	Slug            string    `json:"slug"`
	Name            string    `json:"name"`
	Brand           string    `json:"brand"`
	Description     string    `json:"description"`
	Price           float64   `json:"price"`
	Stock           int       `json:"stock"`
	CategoryID      int       `json:"category_id"`
	SubcategoryID   int       `json:"subcategory_id"`
	CategorySlug    string    `json:"category_slug,omitempty"`
	SubcategorySlug string    `json:"subcategory_slug,omitempty"`
	Material        string    `json:"material,omitempty"`
	LengthCM        float64   `json:"length_cm,omitempty"`   // 0 = unknown
	DiameterCM      float64   `json:"diameter_cm,omitempty"` // 0 = unknown
	ImageURL        string    `json:"image_url,omitempty"`
	Tags            []Tag     `json:"tags"`
	CreatedAt       time.Time `json:"created_at"`
}

// HasTag reports whether the product carries the (type, value) pair.
func (p *Product) HasTag(t TagType, value string) bool {
	for _, tag := range p.Tags {
		if tag.Type == t && tag.Value == value {
			return true
		}
	}
	return false
}

// TagValues returns the values of every tag of the given type, in order.
func (p *Product) TagValues(t TagType) []string {
	var values []string
	for _, tag := range p.Tags {
		if tag.Type == t {
			values = append(values, tag.Value)
		}
	}
	return values
}

type Category struct {
	ID       int    `json:"id"`
	Slug     string `json:"slug"`
	Name     string `json:"name"`
	ParentID int    `json:"parent_id"` // 0 = top level
}

func (c *Category) IsSubcategory() bool {
	return c.ParentID != 0
}
