package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"product-image-scraper/internal/config"
	"product-image-scraper/internal/models"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog"
)

// BrowserClient renders pages in headless Chrome
type BrowserClient struct {
	config  config.ScrapeConfig
	regexes map[string]*regexp.Regexp
	logger  zerolog.Logger
}

func NewBrowserClient(cfg config.ScrapeConfig, logger zerolog.Logger) *BrowserClient {
	return &BrowserClient{
		config:  cfg,
		regexes: config.CompileRegexes(),
		logger:  logger.With().Str("component", "browser").Logger(),
	}
}

// Render navigates to targetURL, waits for the page to settle and returns
// the rendered HTML and the final URL after redirects. Each call runs its own
// browser instance.
func (b *BrowserClient) Render(ctx context.Context, targetURL string) (string, string, error) {
	ctx, cancel := context.WithTimeout(ctx, b.config.RenderTimeout)
	defer cancel()

	opts := DefaultBrowserOptions(b.config)
	allocCtx, cancel := chromedp.NewExecAllocator(ctx, BuildChromeOptions(opts)...)
	defer cancel()

	ctx, cancel = chromedp.NewContext(allocCtx, chromedp.WithErrorf(func(format string, args ...interface{}) {
		b.logger.Debug().Msgf(format, args...)
	}))
	defer cancel()

	err := chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		_, err := page.AddScriptToEvaluateOnNewDocument(GetRequestBlockingScript()).Do(ctx)
		return err
	}))
	if err != nil {
		return "", "", &models.RenderError{URL: targetURL, Err: fmt.Errorf("failed to set up request blocking: %w", err)}
	}

	start := time.Now()
	html, finalURL, err := b.navigateAndExtract(ctx, targetURL)
	if err != nil {
		return "", "", &models.RenderError{URL: targetURL, Err: err}
	}
	b.logger.Debug().
		Str("url", finalURL).
		Int("htmlBytes", len(html)).
		Dur("took", time.Since(start)).
		Msg("page rendered")

	if b.LooksLikeCFBlock(html) {
		domain := targetURL
		if u, perr := url.Parse(targetURL); perr == nil {
			domain = u.Hostname()
		}
		return "", "", &models.CloudflareBlockError{Domain: domain, Err: errors.New("CF_BLOCKED")}
	}

	return html, finalURL, nil
}

// settleTimes derives the initial sleep and the maximum DOM settle wait from
// the remaining time budget
func (b *BrowserClient) settleTimes(ctx context.Context) (time.Duration, time.Duration) {
	remaining := 60 * time.Second
	if deadline, ok := ctx.Deadline(); ok {
		remaining = time.Until(deadline)
		if remaining < 0 {
			remaining = 0
		}
	}

	initialSleep := b.config.SettleDelay
	maxWait := b.config.MaxChallengeWait
	if remaining < 25*time.Second {
		// Time-limited: aggressive wait
		initialSleep = min(initialSleep, time.Second)
		maxWait = min(maxWait, 8*time.Second)
	}

	// Keep a safety margin for reading the DOM
	if maxWait > remaining-initialSleep-2*time.Second {
		maxWait = remaining - initialSleep - 2*time.Second
		if maxWait < time.Second {
			maxWait = time.Second
		}
	}
	return initialSleep, maxWait
}

// navigateAndExtract navigates to a URL and extracts HTML content
func (b *BrowserClient) navigateAndExtract(ctx context.Context, targetURL string) (string, string, error) {
	var html string
	var finalURL string

	initialSleep, maxWait := b.settleTimes(ctx)

	err := chromedp.Run(ctx, chromedp.Tasks{
		chromedp.Navigate(targetURL),
		chromedp.WaitReady("body"),
		chromedp.Sleep(initialSleep),

		// Wait until a challenge page clears and the DOM stops changing
		chromedp.ActionFunc(func(ctx context.Context) error {
			waitCtx, cancel := context.WithTimeout(ctx, maxWait)
			defer cancel()

			var previous string
			for {
				var body string
				if err := chromedp.OuterHTML("body", &body).Do(waitCtx); err == nil {
					if !LooksLikeChallengePage(body) && body == previous {
						return nil
					}
					previous = body
				}
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-waitCtx.Done():
					// Proceed with whatever we have
					return nil
				case <-time.After(500 * time.Millisecond):
				}
			}
		}),

		chromedp.Location(&finalURL),
		chromedp.OuterHTML("html", &html),
	})
	if err != nil {
		return "", "", fmt.Errorf("navigation failed: %w", err)
	}

	return html, finalURL, nil
}

// LooksLikeCFBlock checks if HTML content indicates Cloudflare blocking
func (b *BrowserClient) LooksLikeCFBlock(html string) bool {
	return b.regexes["cfBlock"].MatchString(strings.ToLower(html))
}

// LooksLikeChallengePage checks if HTML content indicates a challenge page
func LooksLikeChallengePage(html string) bool {
	htmlLower := strings.ToLower(html)
	for _, pattern := range ChallengePatterns {
		if strings.Contains(htmlLower, pattern) {
			return true
		}
	}
	return false
}

// IsCloudflareBlock reports whether err indicates bot protection blocked the render
func IsCloudflareBlock(err error) bool {
	if err == nil {
		return false
	}
	var cfErr *models.CloudflareBlockError
	if errors.As(err, &cfErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, pattern := range CloudflarePatterns {
		if strings.Contains(msg, strings.ToLower(pattern)) {
			return true
		}
	}
	return false
}
