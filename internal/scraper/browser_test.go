package scraper

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"product-image-scraper/internal/config"
	"product-image-scraper/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestLooksLikeChallengePage(t *testing.T) {
	assert.True(t, LooksLikeChallengePage("<p>Checking your browser before accessing shop.example</p>"))
	assert.True(t, LooksLikeChallengePage("<h1>Verify you are human</h1>"))
	assert.False(t, LooksLikeChallengePage("<h1>Trail Runner 2</h1>"))
}

func TestLooksLikeCFBlock(t *testing.T) {
	b := NewBrowserClient(config.DefaultScrapeConfig(), zerolog.Nop())

	assert.True(t, b.LooksLikeCFBlock("<title>Attention Required! | Cloudflare</title>"))
	assert.True(t, b.LooksLikeCFBlock("<span>Cloudflare Ray ID: 7d1e</span>"))
	assert.False(t, b.LooksLikeCFBlock("<img src='https://cdn.cloudflare.example/shoe.jpg'>"))
}

func TestIsCloudflareBlock(t *testing.T) {
	assert.False(t, IsCloudflareBlock(nil))
	assert.True(t, IsCloudflareBlock(fmt.Errorf("scrape: %w", &models.CloudflareBlockError{Domain: "shop.example"})))
	assert.True(t, IsCloudflareBlock(errors.New("HTTP 403 from origin")))
	assert.False(t, IsCloudflareBlock(errors.New("net::ERR_NAME_NOT_RESOLVED")))
}

func TestRequestBlockingScriptListsBlockedDomains(t *testing.T) {
	script := GetRequestBlockingScript()
	for _, d := range BlockedDomains {
		assert.Contains(t, script, `"`+d+`"`)
	}
	assert.True(t, strings.Contains(script, "navigator, 'webdriver'"))
}

func TestBuildChromeOptions(t *testing.T) {
	opts := DefaultBrowserOptions(config.DefaultScrapeConfig())
	withUA := BuildChromeOptions(opts)

	opts.UserAgent = ""
	opts.BlockFonts = false
	bare := BuildChromeOptions(opts)

	assert.NotEmpty(t, bare)
	assert.Len(t, withUA, len(bare)+2)
}

func TestSettleTimesRespectBudget(t *testing.T) {
	b := NewBrowserClient(config.DefaultScrapeConfig(), zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	initial, maxWait := b.settleTimes(ctx)
	assert.LessOrEqual(t, initial, time.Second)
	assert.LessOrEqual(t, maxWait, 8*time.Second)

	initial, maxWait = b.settleTimes(context.Background())
	assert.Equal(t, 2*time.Second, initial)
	assert.Equal(t, 15*time.Second, maxWait)
}
