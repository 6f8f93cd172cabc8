package catalog

import (
	"sort"

	"catalog_service/internal/domain"
	"catalog_service/internal/tagging"
)

var facetLabels = map[string]string{
	dimBrand:                  "Marca",
	dimMaterial:               "Material",
	dimLength:                 "Comprimento",
	dimDiameter:               "Diâmetro",
	string(domain.TagPersona): "Para quem",
	string(domain.TagUso):     "Uso",
	string(domain.TagFeature): "Recursos",
}

type counter struct {
	counts map[string]int
	labels map[string]string
	order  []string
}

func newCounter() *counter {
	return &counter{counts: map[string]int{}, labels: map[string]string{}}
}

func (c *counter) add(value, label string) {
	if value == "" {
		return
	}
	if _, ok := c.counts[value]; !ok {
		c.order = append(c.order, value)
		c.labels[value] = label
	}
	c.counts[value]++
}

// Facets counts the options of every facet for the products in scope.
// Each facet is counted over the products matching all other active
// dimensions, so picking a brand never hides the other brands.
func Facets(products []domain.Product, sel domain.Selection) []domain.Facet {
	c := compile(sel)
	facets := make([]domain.Facet, 0, 4+len(facetTagTypes))

	brands := newCounter()
	for i := range products {
		p := &products[i]
		if c.match(p, dimBrand) {
			brands.add(tagging.Fold(p.Brand), p.Brand)
		}
	}
	facets = appendFacet(facets, dimBrand, brands, c.brands, nil)

	materials := newCounter()
	for i := range products {
		p := &products[i]
		if !c.match(p, dimMaterial) {
			continue
		}
		if m := tagging.Fold(p.Material); m != "" {
			materials.add(m, p.Material)
		}
		for _, v := range p.TagValues(domain.TagMaterial) {
			if v != tagging.Fold(p.Material) {
				materials.add(v, tagging.Humanize(v))
			}
		}
	}
	facets = appendFacet(facets, dimMaterial, materials, c.materials, nil)

	lengths := newCounter()
	diameters := newCounter()
	for i := range products {
		p := &products[i]
		if c.match(p, dimLength) {
			id := bucketFor(LengthBuckets, p.LengthCM)
			lengths.add(id, bucketLabel(LengthBuckets, id))
		}
		if c.match(p, dimDiameter) {
			id := bucketFor(DiameterBuckets, p.DiameterCM)
			diameters.add(id, bucketLabel(DiameterBuckets, id))
		}
	}
	facets = appendFacet(facets, dimLength, lengths, c.lengths, LengthBuckets)
	facets = appendFacet(facets, dimDiameter, diameters, c.diameters, DiameterBuckets)

	for _, t := range facetTagTypes {
		tags := newCounter()
		for i := range products {
			p := &products[i]
			if !c.match(p, string(t)) {
				continue
			}
			for _, v := range p.TagValues(t) {
				tags.add(v, tagging.Humanize(v))
			}
		}
		facets = appendFacet(facets, string(t), tags, c.tags[t], nil)
	}

	return facets
}

// appendFacet turns counts into a facet. Measure facets keep bucket order,
// the rest sort by count desc then label. Selected values with no match are
// kept with a zero count.
func appendFacet(facets []domain.Facet, name string, c *counter, selected valueSet, buckets []Bucket) []domain.Facet {
	for v := range selected {
		if _, ok := c.counts[v]; !ok {
			label := tagging.Humanize(v)
			if buckets != nil {
				label = bucketLabel(buckets, v)
			}
			c.order = append(c.order, v)
			c.labels[v] = label
			c.counts[v] = 0
		}
	}
	if len(c.order) == 0 {
		return facets
	}

	options := make([]domain.FacetOption, 0, len(c.order))
	for _, v := range c.order {
		options = append(options, domain.FacetOption{
			Value:    v,
			Label:    c.labels[v],
			Count:    c.counts[v],
			Selected: selected.has(v),
		})
	}

	if buckets != nil {
		rank := make(map[string]int, len(buckets))
		for i, b := range buckets {
			rank[b.ID] = i
		}
		sort.SliceStable(options, func(i, j int) bool {
			ri, iok := rank[options[i].Value]
			rj, jok := rank[options[j].Value]
			if iok != jok {
				return iok
			}
			return ri < rj
		})
	} else {
		sort.SliceStable(options, func(i, j int) bool {
			if options[i].Count != options[j].Count {
				return options[i].Count > options[j].Count
			}
			return tagging.Fold(options[i].Label) < tagging.Fold(options[j].Label)
		})
	}

	return append(facets, domain.Facet{Name: name, Label: facetLabels[name], Options: options})
}
