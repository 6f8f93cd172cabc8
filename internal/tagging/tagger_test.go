package tagging

import (
	"testing"

	"catalog_service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDefaultTagger(t *testing.T) *Tagger {
	t.Helper()
	rules, err := DefaultRules()
	require.NoError(t, err)
	return NewTagger(rules)
}

func keys(tags []domain.Tag) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		out = append(out, tag.String())
	}
	return out
}

func TestParseTagsDropsMalformedAndDuplicates(t *testing.T) {
	tags := ParseTags("persona:Iniciante, persona:iniciante; material:Silicone Médico\nbogus:x, feature:, nocolon")

	assert.Equal(t, []string{"persona:iniciante", "material:silicone-medico"}, keys(tags))
	for _, tag := range tags {
		assert.Equal(t, domain.SourceManual, tag.Source)
	}
}

func TestDedupKeepsFirstOccurrence(t *testing.T) {
	in := []domain.Tag{
		{Type: domain.TagUso, Value: "anal", Source: domain.SourceManual},
		{Type: domain.TagFeature, Value: "vibracao"},
		{Type: domain.TagUso, Value: "anal", Source: domain.SourceInferred},
	}
	out := Dedup(in)
	require.Len(t, out, 2)
	assert.Equal(t, domain.SourceManual, out[0].Source)
}

func TestInferUsesCategorySubcategoryAndKeywords(t *testing.T) {
	tagger := newDefaultTagger(t)

	tags := tagger.Infer("Vibradores", "Bullets", "Bullet mini à prova d'água recarregável")

	assert.Equal(t, []string{
		"feature:vibracao",
		"persona:discreto",
		"feature:recarregavel",
		"feature:a-prova-dagua",
	}, keys(tags))
	for _, tag := range tags {
		assert.Equal(t, domain.SourceInferred, tag.Source)
	}
}

func TestInferMatchesWholeWordsOnly(t *testing.T) {
	tagger := newDefaultTagger(t)

	tags := tagger.Infer("", "", "Happy hour no hotel com aplicativos")

	assert.NotContains(t, keys(tags), "feature:app")
	assert.NotContains(t, keys(tags), "feature:aquecimento")
}

func TestInferUnknownCategoryYieldsNothing(t *testing.T) {
	tagger := newDefaultTagger(t)
	assert.Empty(t, tagger.Infer("acessorios", "", ""))
}

func TestEnrichIsIdempotent(t *testing.T) {
	tagger := newDefaultTagger(t)
	manual := []domain.Tag{
		{Type: domain.TagPersona, Value: "Iniciante"},
		{Type: domain.TagPersona, Value: "iniciante"},
		{Type: domain.TagFeature, Value: "vibracao"},
	}

	first := tagger.Enrich(manual, "vibradores", "", "Vibrador de silicone para casais")
	second := tagger.Enrich(first, "vibradores", "", "Vibrador de silicone para casais")

	assert.Equal(t, first, second)
	assert.Equal(t, []string{
		"persona:iniciante",
		"feature:vibracao",
		"material:silicone",
		"uso:casal",
		"persona:casal",
	}, keys(first))
	assert.Equal(t, domain.SourceManual, first[1].Source)
	assert.Equal(t, domain.SourceInferred, first[2].Source)
}

func TestEnrichRederivesStaleInferredTags(t *testing.T) {
	tagger := newDefaultTagger(t)
	stale := []domain.Tag{{Type: domain.TagMaterial, Value: "vidro", Source: domain.SourceInferred}}

	tags := tagger.Enrich(stale, "", "", "Plug de aço inox")

	assert.Equal(t, []string{"material:metal", "uso:anal"}, keys(tags))
}

func TestEnrichProduct(t *testing.T) {
	tagger := newDefaultTagger(t)
	p := &domain.Product{
		Name:            "Sugador Rosa",
		CategorySlug:    "vibradores",
		SubcategorySlug: "sugadores",
	}

	tagger.EnrichProduct(p, "Com 10 intensidades e aplicativo.")

	assert.True(t, p.HasTag(domain.TagFeature, "succao"))
	assert.True(t, p.HasTag(domain.TagFeature, "app"))
	assert.True(t, p.HasTag(domain.TagPersona, "ela"))
}
