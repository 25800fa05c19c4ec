package scraper

import (
	"testing"

	"product-image-scraper/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scored(url string, score int) models.ScoredCandidate {
	return models.ScoredCandidate{Candidate: models.Candidate{RawSource: url, ResolvedURL: url}, Score: score}
}

func TestRankCandidatesDropsDuplicateURLs(t *testing.T) {
	ranked := RankCandidates([]models.ScoredCandidate{
		scored("https://shop.example/a.jpg", 10),
		scored("https://shop.example/a.jpg", 30),
	})

	require.Len(t, ranked, 1)
	assert.Equal(t, 30, ranked[0].Score)
}

func TestRankCandidatesOrdersAndFilters(t *testing.T) {
	input := []models.ScoredCandidate{
		scored("https://shop.example/neg.jpg", -20),
		scored("https://shop.example/tie-first.jpg", 15),
		scored("https://shop.example/zero.jpg", 0),
		scored("https://shop.example/top.jpg", 45),
		scored("https://shop.example/tie-second.jpg", 15),
		scored("", 50),
	}
	ranked := RankCandidates(input)

	var urls []string
	for _, c := range ranked {
		urls = append(urls, c.ResolvedURL)
	}
	assert.Equal(t, []string{
		"https://shop.example/top.jpg",
		"https://shop.example/tie-first.jpg",
		"https://shop.example/tie-second.jpg",
	}, urls)

	// input untouched
	assert.Equal(t, "https://shop.example/neg.jpg", input[0].ResolvedURL)
	assert.Len(t, input, 6)
}

func TestRankCandidatesEmpty(t *testing.T) {
	assert.Empty(t, RankCandidates(nil))
	assert.Empty(t, RankCandidates([]models.ScoredCandidate{scored("https://shop.example/x.jpg", -1)}))
}

func TestSelectResultPolicies(t *testing.T) {
	ranked := []models.ScoredCandidate{
		scored("https://shop.example/best.jpg", 30),
		scored("https://shop.example/next.jpg", 10),
	}

	best, err := SelectResult(ranked, models.PolicyBestOne)
	require.NoError(t, err)
	assert.Equal(t, "https://shop.example/best.jpg", best.ProductImage)
	assert.Empty(t, best.RankedCandidates)

	full, err := SelectResult(ranked, models.PolicyFullRanked)
	require.NoError(t, err)
	assert.Empty(t, full.ProductImage)
	assert.Equal(t, []models.RankedCandidate{
		{Score: 30, URL: "https://shop.example/best.jpg"},
		{Score: 10, URL: "https://shop.example/next.jpg"},
	}, full.RankedCandidates)
}

func TestSelectResultFailsIdenticallyWhenEmpty(t *testing.T) {
	_, errBest := SelectResult(nil, models.PolicyBestOne)
	_, errFull := SelectResult(nil, models.PolicyFullRanked)
	assert.ErrorIs(t, errBest, models.ErrNoQualifyingCandidate)
	assert.ErrorIs(t, errFull, models.ErrNoQualifyingCandidate)
}

func TestSelectResultUnknownPolicy(t *testing.T) {
	_, err := SelectResult([]models.ScoredCandidate{scored("https://shop.example/a.jpg", 1)}, "most-blue")
	assert.ErrorIs(t, err, models.ErrMalformedInput)
}
