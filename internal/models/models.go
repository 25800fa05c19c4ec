// Package models defines the data structures used by the product image scraper.
// It includes the request/response types of the HTTP service and the
// per-request pipeline types (image elements, candidates, scored candidates).
package models

import (
	"fmt"
	"strings"
	"time"
)

// OutputPolicy selects how much of the ranked result is returned
type OutputPolicy string

const (
	// PolicyBestOne returns only the highest scoring image
	PolicyBestOne OutputPolicy = "best-one"
	// PolicyFullRanked returns every qualifying image, for tuning and diagnostics
	PolicyFullRanked OutputPolicy = "full-ranked"
)

// ParseOutputPolicy maps a caller supplied mode to an OutputPolicy.
// An empty mode means best-one.
func ParseOutputPolicy(mode string) (OutputPolicy, error) {
	switch OutputPolicy(strings.ToLower(strings.TrimSpace(mode))) {
	case "", PolicyBestOne, "best":
		return PolicyBestOne, nil
	case PolicyFullRanked, "ranked", "all":
		return PolicyFullRanked, nil
	}
	return "", fmt.Errorf("%w: unknown mode %q", ErrMalformedInput, mode)
}

// ScrapeRequest represents the incoming scrape request
type ScrapeRequest struct {
	URL  string `json:"url"`
	Mode string `json:"mode,omitempty"`
}

// ImageElement holds the attributes of one <img> element as found in the page.
// Missing attributes are empty.
type ImageElement struct {
	Src     string
	Srcset  string
	LazySrc string // data-src and friends; read only when lazy sources are enabled
	Alt     string
	Class   []string
}

// Candidate is an image element with its chosen and resolved source
type Candidate struct {
	RawSource   string
	ResolvedURL string
	AltText     string   // lowercased, markup stripped
	ClassTokens []string // lowercased
}

// HasClass reports whether token is one of the candidate's class tokens
func (c Candidate) HasClass(token string) bool {
	for _, t := range c.ClassTokens {
		if t == token {
			return true
		}
	}
	return false
}

// ScoredCandidate pairs a candidate with its heuristic score. Scores may be negative.
type ScoredCandidate struct {
	Candidate
	Score int
}

// RankedCandidate is the wire form of a scored candidate
type RankedCandidate struct {
	Score int    `json:"score"`
	URL   string `json:"url"`
}

// ProductImageResult represents the successful scraping result
type ProductImageResult struct {
	ProductImage     string            `json:"productImage,omitempty"`
	RankedCandidates []RankedCandidate `json:"rankedCandidates,omitempty"`
	Metadata         Metadata          `json:"metadata"`
}

// BlockedResponse represents when scraping is blocked
type BlockedResponse struct {
	Error    string   `json:"error"`
	Provider string   `json:"provider"`
	Domain   string   `json:"domain"`
	Metadata Metadata `json:"metadata"`
}

// ErrorResponse represents error responses
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// Metadata contains request metadata
type Metadata struct {
	URL        string       `json:"url"`
	Title      string       `json:"title,omitempty"`
	Policy     OutputPolicy `json:"policy,omitempty"`
	ScrapedAt  time.Time    `json:"scrapedAt"`
	DurationMs int64        `json:"durationMs"`
}
