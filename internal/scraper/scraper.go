// Package scraper finds the primary product image of an e-commerce page.
// A headless browser renders the page; the rendered DOM is then searched for
// a product gallery, its images are scored by independent heuristics and the
// ranked result is returned.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"product-image-scraper/internal/config"
	"product-image-scraper/internal/models"

	"github.com/rs/zerolog"
)

// Renderer produces the rendered HTML of a page and the final URL after redirects
type Renderer interface {
	Render(ctx context.Context, targetURL string) (html string, finalURL string, err error)
}

// Scraper orchestrates rendering and product image extraction
type Scraper struct {
	renderer Renderer
	images   *ProductImageExtractor
	logger   zerolog.Logger
}

// NewScraper builds a Scraper rendering pages with headless Chrome
func NewScraper(sc config.ScrapeConfig, ic config.ProductImageConfig, logger zerolog.Logger) (*Scraper, error) {
	return NewScraperWithRenderer(NewBrowserClient(sc, logger), ic, logger)
}

// NewScraperWithRenderer builds a Scraper around any Renderer
func NewScraperWithRenderer(r Renderer, ic config.ProductImageConfig, logger zerolog.Logger) (*Scraper, error) {
	images, err := NewProductImageExtractor(ic, logger)
	if err != nil {
		return nil, err
	}
	return &Scraper{
		renderer: r,
		images:   images,
		logger:   logger.With().Str("component", "scraper").Logger(),
	}, nil
}

// calculateRemainingTime gets the time until context deadline
func calculateRemainingTime(ctx context.Context) time.Duration {
	if deadline, ok := ctx.Deadline(); ok {
		remaining := time.Until(deadline)
		if remaining > 0 {
			return remaining
		}
		return 0
	}
	// No deadline set, return a large value
	return DefaultRequestTimeout
}

// ClampTimeout bounds a caller supplied timeout to what the service allows
func ClampTimeout(d time.Duration) time.Duration {
	if d <= 0 {
		d = DefaultRequestTimeout
	}
	if d > MaxRequestTimeout {
		d = MaxRequestTimeout
	}
	if d < MinRequestTimeout {
		d = MinRequestTimeout
	}
	return d
}

// ScrapeProductImage renders targetURL and returns its product image(s)
// according to policy. Relative image sources are resolved against targetURL.
func (s *Scraper) ScrapeProductImage(ctx context.Context, targetURL string, policy models.OutputPolicy) (models.ProductImageResult, error) {
	targetURL = strings.TrimSpace(targetURL)
	base, err := ParseBaseURL(targetURL)
	if err != nil {
		return models.ProductImageResult{}, err
	}

	remaining := calculateRemainingTime(ctx)
	if remaining-CleanupBuffer < MinRequestTimeout {
		return models.ProductImageResult{}, &models.RenderError{
			URL: targetURL,
			Err: fmt.Errorf("insufficient time budget for rendering (remaining: %v)", remaining),
		}
	}
	renderCtx, cancel := context.WithTimeout(ctx, remaining-CleanupBuffer)
	defer cancel()

	s.logger.Info().Str("url", targetURL).Dur("budget", remaining).Msg("rendering page")
	start := time.Now()
	html, finalURL, err := s.renderer.Render(renderCtx, targetURL)
	if err != nil {
		if ctx.Err() != nil {
			return models.ProductImageResult{}, &models.RenderError{URL: targetURL, Err: fmt.Errorf("parent context expired: %w", ctx.Err())}
		}
		var cfErr *models.CloudflareBlockError
		if errors.As(err, &cfErr) {
			return models.ProductImageResult{}, err
		}
		// RenderError messages carry the URL, so classify on the cause
		cause := err
		var renderErr *models.RenderError
		if errors.As(err, &renderErr) {
			cause = renderErr.Err
		}
		if IsCloudflareBlock(cause) {
			s.logger.Warn().Str("url", targetURL).Err(err).Msg("render blocked by site protection")
			return models.ProductImageResult{}, &models.CloudflareBlockError{Domain: base.Hostname(), Err: err}
		}
		if renderErr != nil {
			return models.ProductImageResult{}, err
		}
		return models.ProductImageResult{}, &models.RenderError{URL: targetURL, Err: err}
	}
	s.logger.Debug().
		Str("finalURL", finalURL).
		Int("htmlBytes", len(html)).
		Dur("took", time.Since(start)).
		Msg("render complete")

	result, err := s.images.FindProductImage(html, targetURL, policy)
	if err != nil {
		if models.IsNotFound(err) {
			s.logger.Warn().Str("url", targetURL).Err(err).Msg("no product image")
		}
		return models.ProductImageResult{}, err
	}

	if result.ProductImage != "" {
		s.logger.Info().Str("url", targetURL).Str("image", result.ProductImage).Msg("best image found")
	} else {
		s.logger.Info().Str("url", targetURL).Int("candidates", len(result.RankedCandidates)).Msg("ranked images found")
	}
	return result, nil
}
