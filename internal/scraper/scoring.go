package scraper

import (
	"strings"

	"product-image-scraper/internal/config"
	"product-image-scraper/internal/models"
)

// ScoreRule is one independent heuristic: when Match holds, Weight is added
type ScoreRule struct {
	Name   string
	Weight int
	Match  func(c models.Candidate) bool
}

// DefaultScoreRules builds the rule table from the configured markers and weights
func DefaultScoreRules(cfg config.ProductImageConfig) []ScoreRule {
	w := cfg.Weights
	return []ScoreRule{
		{Name: "primary-class", Weight: w.PrimaryClass, Match: hasAnyClass(cfg.PrimaryClasses)},
		{Name: "large-hint", Weight: w.LargeHint, Match: sourceContains(cfg.LargeMarkers)},
		{Name: "medium-hint", Weight: w.MediumHint, Match: sourceContains(cfg.MediumMarkers)},
		{Name: "alt-positive", Weight: w.AltPositive, Match: altContains(cfg.AltPositiveMarkers)},
		{Name: "thumb-hint", Weight: w.ThumbHint, Match: sourceContains(cfg.ThumbMarkers)},
		{Name: "thumb-path", Weight: w.ThumbPath, Match: sourceContains(cfg.ThumbPathMarkers)},
		{Name: "alt-logo", Weight: w.AltLogo, Match: altContains(cfg.AltLogoMarkers)},
	}
}

// Scorer sums the weights of every matching rule. It holds no mutable state.
type Scorer struct {
	rules []ScoreRule
}

func NewScorer(rules []ScoreRule) *Scorer {
	return &Scorer{rules: append([]ScoreRule(nil), rules...)}
}

// Score returns the candidate's total score
func (s *Scorer) Score(c models.Candidate) int {
	score := 0
	for _, rule := range s.rules {
		if rule.Match(c) {
			score += rule.Weight
		}
	}
	return score
}

// Explain lists the names of the rules that fire for c
func (s *Scorer) Explain(c models.Candidate) []string {
	var fired []string
	for _, rule := range s.rules {
		if rule.Match(c) {
			fired = append(fired, rule.Name)
		}
	}
	return fired
}

func hasAnyClass(tokens []string) func(models.Candidate) bool {
	want := make([]string, 0, len(tokens))
	for _, t := range tokens {
		want = append(want, strings.ToLower(t))
	}
	return func(c models.Candidate) bool {
		for _, t := range want {
			if c.HasClass(t) {
				return true
			}
		}
		return false
	}
}

func sourceContains(markers []string) func(models.Candidate) bool {
	return func(c models.Candidate) bool {
		return containsAny(strings.ToLower(c.RawSource), markers)
	}
}

func altContains(markers []string) func(models.Candidate) bool {
	return func(c models.Candidate) bool {
		return containsAny(c.AltText, markers)
	}
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if m != "" && strings.Contains(s, strings.ToLower(m)) {
			return true
		}
	}
	return false
}
