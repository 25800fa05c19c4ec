package scraper

import (
	"testing"

	"product-image-scraper/internal/config"
	"product-image-scraper/internal/models"

	"github.com/stretchr/testify/assert"
)

func defaultScorer() *Scorer {
	return NewScorer(DefaultScoreRules(config.DefaultProductImageConfig()))
}

func TestScoreRulesInIsolation(t *testing.T) {
	rules := DefaultScoreRules(config.DefaultProductImageConfig())
	byName := make(map[string]ScoreRule, len(rules))
	for _, r := range rules {
		byName[r.Name] = r
	}

	tests := []struct {
		rule string
		hit  models.Candidate
		miss models.Candidate
	}{
		{"primary-class", models.Candidate{ClassTokens: []string{"main-image"}}, models.Candidate{ClassTokens: []string{"main-image-wrapper"}}},
		{"large-hint", models.Candidate{RawSource: "/p/shoe_LARGE.jpg"}, models.Candidate{RawSource: "/p/shoe.jpg"}},
		{"large-hint", models.Candidate{RawSource: "/p/shoe-1000x1000.jpg"}, models.Candidate{RawSource: "/p/shoe-100x100.jpg"}},
		{"medium-hint", models.Candidate{RawSource: "/p/medium/shoe.jpg"}, models.Candidate{RawSource: "/p/shoe.jpg"}},
		{"alt-positive", models.Candidate{AltText: "zoomed shoe"}, models.Candidate{AltText: "shoe"}},
		{"alt-positive", models.Candidate{AltText: "front view"}, models.Candidate{AltText: "back view"}},
		{"thumb-hint", models.Candidate{RawSource: "/thumbnails/shoe.jpg"}, models.Candidate{RawSource: "/full/shoe.jpg"}},
		{"thumb-path", models.Candidate{RawSource: "/p/shoe-220x220.jpg"}, models.Candidate{RawSource: "/p/shoe-1200x1200.jpg"}},
		{"alt-logo", models.Candidate{AltText: "brand logo"}, models.Candidate{AltText: "brand shoe"}},
	}
	for _, tt := range tests {
		t.Run(tt.rule, func(t *testing.T) {
			r, ok := byName[tt.rule]
			if !ok {
				t.Fatalf("rule %s missing", tt.rule)
			}
			assert.True(t, r.Match(tt.hit))
			assert.False(t, r.Match(tt.miss))
		})
	}
}

func TestScoreAddsIndependentRules(t *testing.T) {
	s := defaultScorer()

	assert.Equal(t, 30, s.Score(models.Candidate{RawSource: "/p/shoe.jpg", ClassTokens: []string{"wp-post-image"}}))
	assert.Equal(t, 20, s.Score(models.Candidate{RawSource: "/p/shoe-1000x1000.jpg"}))
	assert.Equal(t, 0, s.Score(models.Candidate{RawSource: "/p/shoe.jpg"}))

	// medium marker and the -300x thumbnail path both fire
	assert.Equal(t, -5, s.Score(models.Candidate{RawSource: "/uploads/shoe-300x300.jpg"}))
	// thumbnail marker and thumbnail path both fire
	assert.Equal(t, -25, s.Score(models.Candidate{RawSource: "/uploads/shoe-150x150.jpg"}))
	assert.Equal(t, 65, s.Score(models.Candidate{
		RawSource:   "/p/shoe-large.jpg",
		AltText:     "front of shoe",
		ClassTokens: []string{"product-image"},
	}))
}

func TestLogoPenaltyDominatesPrimaryClass(t *testing.T) {
	s := defaultScorer()

	primary := models.Candidate{RawSource: "/p/brand.png", ClassTokens: []string{"wp-post-image"}}
	primaryLogo := primary
	primaryLogo.AltText = "acme logo"

	assert.Less(t, s.Score(primaryLogo), s.Score(primary))
	assert.Negative(t, s.Score(primaryLogo))
	assert.Positive(t, s.Score(primary))

	// logo on an otherwise neutral image is the most punitive single signal
	logoOnly := models.Candidate{RawSource: "/p/brand.png", AltText: "logo"}
	thumbOnly := models.Candidate{RawSource: "/p/thumb-150x150.png"}
	assert.Less(t, s.Score(logoOnly), s.Score(thumbOnly))
}

func TestScoreIsDeterministic(t *testing.T) {
	s := defaultScorer()
	c := models.Candidate{RawSource: "/p/shoe-large.jpg", AltText: "zoom", ClassTokens: []string{"main-image"}}

	first := s.Score(c)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, s.Score(c))
	}
}

func TestExplainListsFiredRules(t *testing.T) {
	s := defaultScorer()
	fired := s.Explain(models.Candidate{RawSource: "/uploads/shoe-150x150.jpg", AltText: "logo"})
	assert.Equal(t, []string{"thumb-hint", "thumb-path", "alt-logo"}, fired)
	assert.Empty(t, s.Explain(models.Candidate{RawSource: "/p/shoe.jpg"}))
}

func TestCustomRuleRow(t *testing.T) {
	rules := append(DefaultScoreRules(config.DefaultProductImageConfig()), ScoreRule{
		Name:   "cdn-original",
		Weight: 5,
		Match:  sourceContains([]string{"/original/"}),
	})
	s := NewScorer(rules)
	assert.Equal(t, 5, s.Score(models.Candidate{RawSource: "https://cdn.example/original/shoe.jpg"}))
}
