package services

import (
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
)

// newExcerptConverter builds the HTML→markdown converter used on
// focused excerpts. Link targets are dropped: the model only needs the
// visible text, and document-internal hrefs are meaningless to it.
func newExcerptConverter() *md.Converter {
	conv := md.NewConverter("", true, nil)
	conv.AddRules(md.Rule{
		Filter: []string{"a"},
		Replacement: func(content string, selec *goquery.Selection, opt *md.Options) *string {
			return md.String(content)
		},
	})
	return conv
}

// htmlToMarkdown converts one HTML fragment to markdown text. A
// fragment the converter cannot parse falls back to the raw input with
// tags left in place; a degraded excerpt beats a dropped one.
func htmlToMarkdown(conv *md.Converter, fragment string) string {
	out, err := conv.ConvertString(fragment)
	if err != nil {
		return strings.TrimSpace(fragment)
	}
	return strings.TrimSpace(out)
}
