package tagging

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"catalog_service/internal/domain"
)

var (
	reLength   = regexp.MustCompile(`(?:comprimento|length|tamanho)(?:\s+(?:total|util|insertavel))?\s*[:\-]?\s*(?:de\s+)?(\d+(?:[.,]\d+)?)\s*(cm|mm)\b`)
	reDiameter = regexp.MustCompile(`(?:diametro|diameter|espessura|largura)(?:\s+(?:maximo|maxima|total))?\s*[:\-]?\s*(?:de\s+)?(\d+(?:[.,]\d+)?)\s*(cm|mm)\b`)
)

// ExtractAttributes fills the measures and material a product is missing
// from its free text ("Comprimento: 18 cm", "Diâmetro: 3,5 cm") and its tags.
// Fields that already hold a value are left untouched.
func ExtractAttributes(p *domain.Product, text string) {
	folded := foldDiacritics(text)

	if p.LengthCM <= 0 {
		if v, ok := matchMeasure(reLength, folded); ok {
			p.LengthCM = v
		}
	}
	if p.DiameterCM <= 0 {
		if v, ok := matchMeasure(reDiameter, folded); ok {
			p.DiameterCM = v
		}
	}
	if strings.TrimSpace(p.Material) == "" {
		if values := p.TagValues(domain.TagMaterial); len(values) > 0 {
			p.Material = Humanize(values[0])
		}
	}
}

func matchMeasure(re *regexp.Regexp, text string) (float64, bool) {
	m := re.FindStringSubmatch(text)
	if len(m) < 3 {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	if m[2] == "mm" {
		v = v / 10
	}
	return math.Round(v*100) / 100, true
}
