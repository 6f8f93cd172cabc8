// Package sanitize cleans merchant-authored product descriptions.
package sanitize

import (
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

var (
	policyOnce sync.Once
	policy     *bluemonday.Policy
)

func descriptionPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		p := bluemonday.NewPolicy()
		p.AllowElements("p", "br", "strong", "b", "em", "i", "u", "ul", "ol", "li", "h2", "h3", "h4", "blockquote")
		p.AllowAttrs("href").OnElements("a")
		p.AllowURLSchemes("http", "https", "mailto")
		p.RequireParseableURLs(true)
		p.RequireNoFollowOnLinks(true)
		p.RequireNoReferrerOnLinks(true)
		policy = p
	})
	return policy
}

// Description keeps only the formatting tags a product page renders.
// Links keep their href when it is http, https or mailto.
func Description(html string) string {
	return strings.TrimSpace(descriptionPolicy().Sanitize(html))
}

var blockElements = map[string]bool{
	"p": true, "br": true, "li": true, "ul": true, "ol": true, "div": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"blockquote": true, "tr": true, "td": true, "th": true,
}

// PlainText returns the visible text of an HTML fragment with whitespace
// collapsed. Block elements separate words.
func PlainText(html string) string {
	if strings.TrimSpace(html) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return strings.Join(strings.Fields(html), " ")
	}
	doc.Find("script, style, noscript, template").Remove()

	var sb strings.Builder
	collectText(doc.Selection, &sb)
	return strings.Join(strings.Fields(sb.String()), " ")
}

func collectText(s *goquery.Selection, sb *strings.Builder) {
	s.Contents().Each(func(_ int, c *goquery.Selection) {
		name := goquery.NodeName(c)
		if name == "#text" {
			sb.WriteString(c.Nodes[0].Data)
			return
		}
		block := blockElements[name]
		if block {
			sb.WriteByte(' ')
		}
		collectText(c, sb)
		if block {
			sb.WriteByte(' ')
		}
	})
}
