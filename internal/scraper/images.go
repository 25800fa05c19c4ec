package scraper

import (
	"fmt"
	"net/url"
	"strings"

	"product-image-scraper/internal/config"
	"product-image-scraper/internal/models"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
	"golang.org/x/net/html"
)

// ProductImageExtractor turns a rendered product page into ranked image
// candidates. It is immutable after construction and safe for concurrent use.
type ProductImageExtractor struct {
	candidates *CandidateExtractor
	resolver   *SourceResolver
	filter     *SourceFilter
	scorer     *Scorer
	text       *TextSanitizer
	logger     zerolog.Logger
}

func NewProductImageExtractor(cfg config.ProductImageConfig, logger zerolog.Logger) (*ProductImageExtractor, error) {
	if err := cfg.Weights.Validate(); err != nil {
		return nil, fmt.Errorf("invalid weights: %w", err)
	}
	candidates, err := NewCandidateExtractor(cfg.GallerySelectors)
	if err != nil {
		return nil, err
	}

	return &ProductImageExtractor{
		candidates: candidates,
		resolver:   NewSourceResolver(cfg.LazySources),
		filter:     NewSourceFilter(),
		scorer:     NewScorer(DefaultScoreRules(cfg)),
		text:       NewTextSanitizer(),
		logger:     logger.With().Str("component", "images").Logger(),
	}, nil
}

// FindProductImage runs the whole pipeline on page, resolving relative
// sources against baseURL. It fails with models.ErrNoCandidatesFound when the
// page has no images and models.ErrNoQualifyingCandidate when none score
// above zero.
func (pe *ProductImageExtractor) FindProductImage(page, baseURL string, policy models.OutputPolicy) (models.ProductImageResult, error) {
	base, err := ParseBaseURL(baseURL)
	if err != nil {
		return models.ProductImageResult{}, err
	}
	if strings.TrimSpace(page) == "" {
		return models.ProductImageResult{}, fmt.Errorf("%w: empty document", models.ErrMalformedInput)
	}
	if policy != models.PolicyBestOne && policy != models.PolicyFullRanked {
		return models.ProductImageResult{}, fmt.Errorf("%w: unknown output policy %q", models.ErrMalformedInput, policy)
	}

	root, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return models.ProductImageResult{}, fmt.Errorf("%w: parse document: %v", models.ErrMalformedInput, err)
	}

	elements, matched := pe.candidates.Extract(root)
	if matched.Expr != "" {
		pe.logger.Debug().Str("selector", matched.String()).Msg("found product gallery")
	} else {
		pe.logger.Debug().Msg("no product gallery found, using all images on page")
	}
	if len(elements) == 0 {
		return models.ProductImageResult{}, models.ErrNoCandidatesFound
	}

	ranked := RankCandidates(pe.ScoreCandidates(elements, base))
	result, err := SelectResult(ranked, policy)
	if err != nil {
		pe.logger.Debug().Int("images", len(elements)).Msg("no image met the scoring criteria")
		return models.ProductImageResult{}, err
	}

	pe.logger.Debug().
		Int("images", len(elements)).
		Int("ranked", len(ranked)).
		Int("bestScore", ranked[0].Score).
		Str("best", ranked[0].ResolvedURL).
		Msg("ranked product images")

	result.Metadata.URL = baseURL
	result.Metadata.Policy = policy
	result.Metadata.Title = pe.text.ExtractPageTitle(goquery.NewDocumentFromNode(root), page, base)
	return result, nil
}

// ScoreCandidates builds and scores a candidate per element, in extraction
// order. Elements without a usable source or with an excluded source are
// skipped.
func (pe *ProductImageExtractor) ScoreCandidates(elements []models.ImageElement, base *url.URL) []models.ScoredCandidate {
	scored := make([]models.ScoredCandidate, 0, len(elements))
	for _, el := range elements {
		c, ok := pe.BuildCandidate(el, base)
		if !ok {
			continue
		}
		score := pe.scorer.Score(c)
		if e := pe.logger.Trace(); e.Enabled() {
			e.Str("url", c.ResolvedURL).Int("score", score).Strs("rules", pe.scorer.Explain(c)).Msg("scored image")
		}
		scored = append(scored, models.ScoredCandidate{Candidate: c, Score: score})
	}
	return scored
}

// BuildCandidate resolves the element's source and normalizes its alt text
// and classes. ok is false when the element has no usable source or the
// source is filtered out.
func (pe *ProductImageExtractor) BuildCandidate(el models.ImageElement, base *url.URL) (models.Candidate, bool) {
	raw := pe.resolver.RawSource(el)
	if raw == "" {
		return models.Candidate{}, false
	}
	if reason, excluded := pe.filter.Excluded(raw); excluded {
		pe.logger.Trace().Str("src", truncate(raw, 80)).Str("reason", reason).Msg("skipping image")
		return models.Candidate{}, false
	}
	resolved, err := pe.resolver.Resolve(raw, base)
	if err != nil {
		pe.logger.Trace().Str("src", truncate(raw, 80)).Err(err).Msg("unresolvable image source")
		return models.Candidate{}, false
	}

	classes := make([]string, 0, len(el.Class))
	for _, c := range el.Class {
		classes = append(classes, strings.ToLower(c))
	}

	return models.Candidate{
		RawSource:   raw,
		ResolvedURL: resolved,
		AltText:     normalizeAlt(el.Alt),
		ClassTokens: classes,
	}, true
}

// normalizeAlt lowercases alt text and collapses its whitespace. The parser has
// already decoded the attribute, so any '<' in it is literal text.
func normalizeAlt(alt string) string {
	return strings.ToLower(strings.Join(strings.Fields(alt), SingleSpace))
}

// ParseBaseURL validates the page URL used to resolve relative sources
func ParseBaseURL(baseURL string) (*url.URL, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, fmt.Errorf("%w: missing page URL", models.ErrMalformedInput)
	}
	base, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid page URL: %v", models.ErrMalformedInput, err)
	}
	if !base.IsAbs() || base.Host == "" {
		return nil, fmt.Errorf("%w: page URL %q is not absolute", models.ErrMalformedInput, baseURL)
	}
	return base, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
