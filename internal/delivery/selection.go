package delivery

import (
	"fmt"
	"strconv"
	"strings"

	"catalog_service/internal/domain"

	"github.com/gin-gonic/gin"
)

// queryValues collects a repeated or comma separated query parameter.
func queryValues(c *gin.Context, name string) []string {
	var out []string
	for _, raw := range c.QueryArray(name) {
		for _, v := range strings.Split(raw, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

func queryFloat(c *gin.Context, name string) (float64, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(strings.Replace(raw, ",", ".", 1), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s '%s': %w", name, raw, domain.ErrInvalidInput)
	}
	return v, nil
}

func queryInt(c *gin.Context, name string) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s '%s': %w", name, raw, domain.ErrInvalidInput)
	}
	return v, nil
}

// parseSelection reads the storefront filter panel from the query string.
func parseSelection(c *gin.Context) (domain.Selection, error) {
	sel := domain.Selection{
		Brands:    queryValues(c, "brand"),
		Materials: queryValues(c, "material"),
		Lengths:   queryValues(c, "length"),
		Diameters: queryValues(c, "diameter"),
		Category:  strings.TrimSpace(c.Query("category")),
		Query:     strings.TrimSpace(c.Query("q")),
		Sort:      strings.TrimSpace(c.Query("sort")),
	}
	for _, t := range domain.TagTypes {
		if t == domain.TagMaterial {
			continue // read into Materials above
		}
		if values := queryValues(c, string(t)); len(values) > 0 {
			if sel.Tags == nil {
				sel.Tags = make(map[domain.TagType][]string)
			}
			sel.Tags[t] = values
		}
	}

	var err error
	if sel.PriceMin, err = queryFloat(c, "price_min"); err != nil {
		return sel, err
	}
	if sel.PriceMax, err = queryFloat(c, "price_max"); err != nil {
		return sel, err
	}
	if sel.Page, err = queryInt(c, "page"); err != nil {
		return sel, err
	}
	if sel.PageSize, err = queryInt(c, "page_size"); err != nil {
		return sel, err
	}
	switch strings.ToLower(strings.TrimSpace(c.Query("in_stock"))) {
	case "", "0", "false", "no":
	case "1", "true", "yes", "on":
		sel.InStockOnly = true
	default:
		return sel, fmt.Errorf("invalid in_stock '%s': %w", c.Query("in_stock"), domain.ErrInvalidInput)
	}
	return sel, nil
}
