// Package config holds the tunable parameters of the scraper: browser
// settings, gallery selectors, scoring markers and rule weights.
package config

import (
	"fmt"
	"regexp"
	"time"
)

// ScrapeConfig configures the headless browser renderer
type ScrapeConfig struct {
	UserAgent        string
	RenderTimeout    time.Duration
	SettleDelay      time.Duration
	MaxChallengeWait time.Duration
	WindowWidth      int
	WindowHeight     int
}

func DefaultScrapeConfig() ScrapeConfig {
	return ScrapeConfig{
		UserAgent:        "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		RenderTimeout:    60 * time.Second,
		SettleDelay:      2 * time.Second,
		MaxChallengeWait: 15 * time.Second,
		WindowWidth:      1366,
		WindowHeight:     900,
	}
}

// SelectorKind is the query language of a gallery selector
type SelectorKind string

const (
	SelectorCSS   SelectorKind = "css"
	SelectorXPath SelectorKind = "xpath"
)

// SelectorSpec locates a gallery container. Specs are tried in order; the
// first one matching anything wins.
type SelectorSpec struct {
	Kind SelectorKind `yaml:"kind" json:"kind"`
	Expr string       `yaml:"expr" json:"expr"`
}

func (s SelectorSpec) String() string {
	return string(s.Kind) + ":" + s.Expr
}

// RuleWeights are the score contributions of the heuristic rules
type RuleWeights struct {
	PrimaryClass int
	LargeHint    int
	MediumHint   int
	AltPositive  int
	ThumbHint    int
	ThumbPath    int
	AltLogo      int
}

// Validate enforces the relative ordering the scorer depends on:
// primary class > large hint > alt positive > 0 > thumbnail penalties > logo penalty,
// and a logo penalty strong enough to cancel the primary class signal.
// The medium hint only has to be positive and below the large hint; it is
// allowed to sit below alt positive (the default weights are 10 and 15).
func (w RuleWeights) Validate() error {
	switch {
	case w.PrimaryClass <= w.LargeHint:
		return fmt.Errorf("primary class weight %d must exceed large hint weight %d", w.PrimaryClass, w.LargeHint)
	case w.LargeHint <= w.AltPositive:
		return fmt.Errorf("large hint weight %d must exceed alt positive weight %d", w.LargeHint, w.AltPositive)
	case w.MediumHint <= 0 || w.MediumHint >= w.LargeHint:
		return fmt.Errorf("medium hint weight %d must be positive and below large hint weight %d", w.MediumHint, w.LargeHint)
	case w.AltPositive <= 0:
		return fmt.Errorf("alt positive weight %d must be positive", w.AltPositive)
	case w.ThumbHint >= 0 || w.ThumbPath >= 0:
		return fmt.Errorf("thumbnail weights (%d, %d) must be negative", w.ThumbHint, w.ThumbPath)
	case w.AltLogo >= w.ThumbHint || w.AltLogo >= w.ThumbPath:
		return fmt.Errorf("logo weight %d must be the most punitive", w.AltLogo)
	case w.AltLogo+w.PrimaryClass >= 0:
		return fmt.Errorf("logo weight %d must outweigh primary class weight %d", w.AltLogo, w.PrimaryClass)
	}
	return nil
}

// ProductImageConfig drives candidate extraction and scoring
type ProductImageConfig struct {
	GallerySelectors []SelectorSpec

	// Class tokens marking the canonical product image
	PrimaryClasses []string

	// Substrings of the raw image source
	LargeMarkers     []string
	MediumMarkers    []string
	ThumbMarkers     []string
	ThumbPathMarkers []string

	// Substrings of the alt text
	AltPositiveMarkers []string
	AltLogoMarkers     []string

	// LazySources lets data-src, data-lazy-src and data-original stand in
	// for a missing src and srcset. Off by default.
	LazySources bool

	Weights RuleWeights
}

func DefaultProductImageConfig() ProductImageConfig {
	return ProductImageConfig{
		GallerySelectors: []SelectorSpec{
			{Kind: SelectorCSS, Expr: "figure.woocommerce-product-gallery"},
			{Kind: SelectorCSS, Expr: "div[data-testid='image-carousel-container']"},
			{Kind: SelectorXPath, Expr: "//*[@id='imgTagWrapperId']"},
		},
		PrimaryClasses:     []string{"wp-post-image", "main-image", "product-image"},
		LargeMarkers:       []string{"1000x1000", "large"},
		MediumMarkers:      []string{"300x300", "medium"},
		ThumbMarkers:       []string{"150x150", "thumb"},
		ThumbPathMarkers:   []string{"-150x", "-220x", "-300x"},
		AltPositiveMarkers: []string{"zoom", "front"},
		AltLogoMarkers:     []string{"logo"},
		Weights: RuleWeights{
			PrimaryClass: 30,
			LargeHint:    20,
			MediumHint:   10,
			AltPositive:  15,
			ThumbHint:    -10,
			ThumbPath:    -15,
			AltLogo:      -50,
		},
	}
}

// CompileRegexes compiles the patterns shared by the scraper
func CompileRegexes() map[string]*regexp.Regexp {
	return map[string]*regexp.Regexp{
		"srcsetItem":  regexp.MustCompile(`^(\S+)\s+(\d+)w$`),
		"dataURI":     regexp.MustCompile(`(?i)^\s*data:`),
		"vectorExt":   regexp.MustCompile(`(?i)\.svgz?(?:[?#]|$)`),
		"animatedExt": regexp.MustCompile(`(?i)\.gif(?:[?#]|$)`),
		"cfBlock":     regexp.MustCompile(`cf-browser-verification|cf_chl_opt|attention required! \| cloudflare|cloudflare ray id|why have i been blocked\?`),
	}
}
