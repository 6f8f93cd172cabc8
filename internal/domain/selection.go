package domain

// Selection holds the filter values picked in the storefront filter panel.
// Values inside one dimension are OR-ed, dimensions are AND-ed.
type Selection struct {
	Brands      []string             `json:"brands,omitempty"`
	Materials   []string             `json:"materials,omitempty"`
	Lengths     []string             `json:"lengths,omitempty"`
	Diameters   []string             `json:"diameters,omitempty"`
	Tags        map[TagType][]string `json:"tags,omitempty"`
	Category    string               `json:"category,omitempty"`
	Query       string               `json:"query,omitempty"`
	PriceMin    float64              `json:"price_min,omitempty"`
	PriceMax    float64              `json:"price_max,omitempty"`
	InStockOnly bool                 `json:"in_stock_only,omitempty"`
	Sort        string               `json:"sort,omitempty"`
	Page        int                  `json:"page,omitempty"`
	PageSize    int                  `json:"page_size,omitempty"`
}

type FacetOption struct {
	Value    string `json:"value"`
	Label    string `json:"label"`
	Count    int    `json:"count"`
	Selected bool   `json:"selected"`
}

type Facet struct {
	Name    string        `json:"name"`
	Label   string        `json:"label"`
	Options []FacetOption `json:"options"`
}

type ProductPage struct {
	Items    []Product `json:"items"`
	Total    int       `json:"total"`
	Page     int       `json:"page"`
	PageSize int       `json:"page_size"`
	Facets   []Facet   `json:"facets,omitempty"`
}

type ProductDetail struct {
	Product Product   `json:"product"`
	Related []Product `json:"related"`
}
