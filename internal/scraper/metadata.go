package scraper

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

// TextSanitizer strips markup from attribute and meta text
type TextSanitizer struct {
	policy *bluemonday.Policy
}

func NewTextSanitizer() *TextSanitizer {
	return &TextSanitizer{policy: bluemonday.StrictPolicy()}
}

// Clean removes tags, decodes entities and collapses whitespace
func (ts *TextSanitizer) Clean(text string) string {
	if text == "" {
		return ""
	}
	cleaned := html.UnescapeString(ts.policy.Sanitize(text))
	return strings.Join(strings.Fields(cleaned), SingleSpace)
}

// FindMetaTag searches for a meta tag with the given property or name
func FindMetaTag(doc *goquery.Document, property, name string) string {
	var value string

	doc.Find("meta").EachWithBreak(func(i int, s *goquery.Selection) bool {
		if property != "" {
			if prop, exists := s.Attr("property"); exists && prop == property {
				if content, exists := s.Attr("content"); exists && strings.TrimSpace(content) != "" {
					value = strings.TrimSpace(content)
					return false
				}
			}
		}
		if name != "" {
			if n, exists := s.Attr("name"); exists && n == name {
				if content, exists := s.Attr("content"); exists && strings.TrimSpace(content) != "" {
					value = strings.TrimSpace(content)
					return false
				}
			}
		}
		return true
	})

	return value
}

// ExtractPageTitle finds the product page title: Open Graph, Twitter card,
// readability's title heuristics, then the first h1 and finally <title>.
func (ts *TextSanitizer) ExtractPageTitle(doc *goquery.Document, page string, base *url.URL) string {
	if title := FindMetaTag(doc, OGTitle, ""); title != "" {
		return ts.Clean(title)
	}
	if title := FindMetaTag(doc, "", TwitterTitle); title != "" {
		return ts.Clean(title)
	}

	if article, err := readability.FromReader(strings.NewReader(page), base); err == nil && article.Title != "" {
		return ts.Clean(article.Title)
	}

	if title := strings.TrimSpace(doc.Find("h1").First().Text()); title != "" {
		return ts.Clean(title)
	}
	return ts.Clean(doc.Find("title").First().Text())
}
