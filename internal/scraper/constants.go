package scraper

import "time"

// Timeout constants
const (
	DefaultRequestTimeout = 300 * time.Second // Cloud Run maximum
	MaxRequestTimeout     = 240 * time.Second
	MinRequestTimeout     = 1 * time.Second
	CleanupBuffer         = 5 * time.Second
)

// Meta tag properties
const (
	OGTitle      = "og:title"
	TwitterTitle = "twitter:title"
)

// Text processing constants
const (
	SingleSpace = " "
)

// Blocked domains for browser requests
var BlockedDomains = []string{
	"doubleclick",
	"googlesyndication",
	"google-analytics",
	"googletagmanager",
	"facebook.com/tr",
	"taboola",
	"outbrain",
	"scorecardresearch",
	"hotjar",
	"amazon-adsystem",
}

// Cloudflare detection patterns
var CloudflarePatterns = []string{
	"CF_BLOCKED",
	"cloudflare",
	"HTTP 403",
	"attention required",
	"cloudflare ray id",
	"why have i been blocked?",
	"performance & security by cloudflare",
}

// Challenge page patterns, checked while waiting for the page to settle
var ChallengePatterns = []string{
	"verifying you are human",
	"verify you are human",
	"checking your browser",
	"please wait while we verify",
	"this may take a few seconds",
}
