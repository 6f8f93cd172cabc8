package tagging

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"À Prova D’Água!!  Silicone": "a prova dagua silicone",
		"  Vibração   Dupla ":        "vibracao dupla",
		"Ponto-G / Clitóris":         "ponto g clitoris",
		"":                           "",
		"---":                        "",
	}
	for in, want := range cases {
		assert.Equal(t, want, Normalize(in), "input %q", in)
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	in := "Gel Térmico Esquenta & Esfria / 30ml"
	once := Normalize(in)
	assert.Equal(t, once, Normalize(once))
}

func TestSlugAndFold(t *testing.T) {
	assert.Equal(t, "plugs-anais", Slug("Plugs Anais"))
	assert.Equal(t, "a-prova-dagua", Slug("à prova d'água"))
	assert.True(t, EqualFold("Vibração", "vibracao"))
	assert.True(t, EqualFold("Silicone Médico", "silicone-medico"))
	assert.False(t, EqualFold("vidro", "vibro"))
}

func TestHumanize(t *testing.T) {
	assert.Equal(t, "A prova dagua", Humanize("a-prova-dagua"))
	assert.Equal(t, "Silicone", Humanize("silicone"))
	assert.Equal(t, "", Humanize(""))
}
