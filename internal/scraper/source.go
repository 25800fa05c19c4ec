package scraper

import (
	"errors"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"product-image-scraper/internal/config"
	"product-image-scraper/internal/models"
)

// SourceResolver picks the raw source of an image element and makes it absolute
type SourceResolver struct {
	srcsetItem *regexp.Regexp
	lazy       bool
}

// NewSourceResolver builds a resolver. With lazy set, the lazy-load source is
// used for elements that have neither srcset nor src.
func NewSourceResolver(lazy bool) *SourceResolver {
	return &SourceResolver{srcsetItem: config.CompileRegexes()["srcsetItem"], lazy: lazy}
}

// RawSource returns the widest srcset entry, else src, else (when enabled)
// the lazy-load source. Empty when the element has nothing usable.
func (r *SourceResolver) RawSource(el models.ImageElement) string {
	if src := r.PickFromSrcset(el.Srcset); src != "" {
		return src
	}
	if src := strings.TrimSpace(el.Src); src != "" {
		return src
	}
	if r.lazy {
		return strings.TrimSpace(el.LazySrc)
	}
	return ""
}

// PickFromSrcset selects the entry with the largest width descriptor.
// Entries without a numeric "w" descriptor are ignored; on equal widths the
// first entry wins.
func (r *SourceResolver) PickFromSrcset(srcset string) string {
	best := ""
	bestWidth := -1
	for _, item := range strings.Split(srcset, ",") {
		matches := r.srcsetItem.FindStringSubmatch(strings.TrimSpace(item))
		if len(matches) < 3 {
			continue
		}
		w, err := strconv.Atoi(matches[2])
		if err != nil {
			continue
		}
		if w > bestWidth {
			best, bestWidth = matches[1], w
		}
	}
	return best
}

// Resolve joins raw against base. Absolute references pass through unchanged.
func (r *SourceResolver) Resolve(raw string, base *url.URL) (string, error) {
	if raw == "" {
		return "", errors.New("empty source")
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	abs := base.ResolveReference(ref)
	if !abs.IsAbs() || abs.Host == "" {
		return "", errors.New("source did not resolve to an absolute URL")
	}
	return abs.String(), nil
}

// SourceFilter rejects sources that can never be a product photo
type SourceFilter struct {
	dataURI     *regexp.Regexp
	vectorExt   *regexp.Regexp
	animatedExt *regexp.Regexp
}

func NewSourceFilter() *SourceFilter {
	regexes := config.CompileRegexes()
	return &SourceFilter{
		dataURI:     regexes["dataURI"],
		vectorExt:   regexes["vectorExt"],
		animatedExt: regexes["animatedExt"],
	}
}

// Excluded reports whether raw is an inline data URI, a vector graphic or a
// gif, along with the reason.
func (f *SourceFilter) Excluded(raw string) (string, bool) {
	switch {
	case f.dataURI.MatchString(raw):
		return "data-uri", true
	case f.vectorExt.MatchString(raw):
		return "vector", true
	case f.animatedExt.MatchString(raw):
		return "gif", true
	}
	return "", false
}
