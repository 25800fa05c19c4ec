package scraper

import (
	"fmt"
	"sort"

	"product-image-scraper/internal/models"
)

// RankCandidates keeps strictly positive scores, sorts them by score
// (highest first, extraction order on ties) and drops repeated URLs.
// The input slice is not modified.
func RankCandidates(scored []models.ScoredCandidate) []models.ScoredCandidate {
	positive := make([]models.ScoredCandidate, 0, len(scored))
	for _, c := range scored {
		if c.Score > 0 && c.ResolvedURL != "" {
			positive = append(positive, c)
		}
	}

	sort.SliceStable(positive, func(i, j int) bool {
		return positive[i].Score > positive[j].Score
	})

	seen := make(map[string]bool, len(positive))
	ranked := positive[:0]
	for _, c := range positive {
		if seen[c.ResolvedURL] {
			continue
		}
		seen[c.ResolvedURL] = true
		ranked = append(ranked, c)
	}
	return ranked
}

// SelectResult applies the output policy to a ranked list
func SelectResult(ranked []models.ScoredCandidate, policy models.OutputPolicy) (models.ProductImageResult, error) {
	if len(ranked) == 0 {
		return models.ProductImageResult{}, models.ErrNoQualifyingCandidate
	}

	switch policy {
	case models.PolicyBestOne:
		return models.ProductImageResult{ProductImage: ranked[0].ResolvedURL}, nil
	case models.PolicyFullRanked:
		out := make([]models.RankedCandidate, 0, len(ranked))
		for _, c := range ranked {
			out = append(out, models.RankedCandidate{Score: c.Score, URL: c.ResolvedURL})
		}
		return models.ProductImageResult{RankedCandidates: out}, nil
	}
	return models.ProductImageResult{}, fmt.Errorf("%w: unknown output policy %q", models.ErrMalformedInput, policy)
}
