package scraper

import (
	"fmt"
	"strings"

	"product-image-scraper/internal/config"
	"product-image-scraper/internal/models"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/antchfx/htmlquery"
	"github.com/antchfx/xpath"
	"golang.org/x/net/html"
)

// lazySrcAttrs are read in order when an image has neither src nor srcset
var lazySrcAttrs = []string{"data-src", "data-lazy-src", "data-original"}

type galleryMatcher struct {
	spec config.SelectorSpec
	css  cascadia.Selector
	xp   *xpath.Expr
}

// first returns the first element matched below root, or nil
func (m galleryMatcher) first(root *html.Node) *html.Node {
	if m.xp != nil {
		n := htmlquery.QuerySelector(root, m.xp)
		if n == nil || n.Type != html.ElementNode {
			return nil
		}
		return n
	}
	sel := goquery.NewDocumentFromNode(root).FindMatcher(m.css)
	if sel.Length() == 0 {
		return nil
	}
	return sel.Get(0)
}

// CandidateExtractor finds the product gallery and lists the images in it.
// Gallery selectors are tried in order; the whole document is the implicit
// last resort.
type CandidateExtractor struct {
	matchers []galleryMatcher
}

// NewCandidateExtractor compiles the selector list. An invalid CSS or XPath
// expression is a configuration error.
func NewCandidateExtractor(specs []config.SelectorSpec) (*CandidateExtractor, error) {
	matchers := make([]galleryMatcher, 0, len(specs))
	for _, spec := range specs {
		m := galleryMatcher{spec: spec}
		switch spec.Kind {
		case config.SelectorCSS, "":
			sel, err := cascadia.Compile(spec.Expr)
			if err != nil {
				return nil, fmt.Errorf("gallery selector %s: %w", spec, err)
			}
			m.css = sel
		case config.SelectorXPath:
			expr, err := xpath.Compile(spec.Expr)
			if err != nil {
				return nil, fmt.Errorf("gallery selector %s: %w", spec, err)
			}
			m.xp = expr
		default:
			return nil, fmt.Errorf("gallery selector %s: unknown kind", spec)
		}
		matchers = append(matchers, m)
	}
	return &CandidateExtractor{matchers: matchers}, nil
}

// FindGallery returns the first matching gallery container and the selector
// that matched it, or the document root and an empty spec.
func (ce *CandidateExtractor) FindGallery(root *html.Node) (*html.Node, config.SelectorSpec) {
	for _, m := range ce.matchers {
		if n := m.first(root); n != nil {
			return n, m.spec
		}
	}
	return root, config.SelectorSpec{}
}

// Extract returns the image elements of the gallery, or of the whole
// document when no gallery is found, in document order, together with the
// selector that matched (empty on fallback).
func (ce *CandidateExtractor) Extract(root *html.Node) ([]models.ImageElement, config.SelectorSpec) {
	container, matched := ce.FindGallery(root)
	return ImageElementsUnder(container), matched
}

// ImageElementsUnder lists every <img> below n. n itself is included when it
// is an <img>.
func ImageElementsUnder(n *html.Node) []models.ImageElement {
	var elements []models.ImageElement
	sel := goquery.NewDocumentFromNode(n).Selection
	if sel.Is("img") {
		elements = append(elements, imageElementFrom(sel))
	}
	sel.Find("img").Each(func(i int, s *goquery.Selection) {
		elements = append(elements, imageElementFrom(s))
	})
	return elements
}

func imageElementFrom(s *goquery.Selection) models.ImageElement {
	el := models.ImageElement{
		Src:    s.AttrOr("src", ""),
		Srcset: s.AttrOr("srcset", ""),
		Alt:    s.AttrOr("alt", ""),
		Class:  strings.Fields(s.AttrOr("class", "")),
	}
	for _, attr := range lazySrcAttrs {
		if v := strings.TrimSpace(s.AttrOr(attr, "")); v != "" {
			el.LazySrc = v
			break
		}
	}
	return el
}
