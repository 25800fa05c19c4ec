package scraper

import (
	"strconv"
	"strings"

	"product-image-scraper/internal/config"

	"github.com/chromedp/chromedp"
)

// BrowserOptions contains configuration for browser automation.
// Images are never blocked: lazy loaders only swap in the real src once the
// image request is issued.
type BrowserOptions struct {
	BlockFonts   bool
	WindowWidth  int
	WindowHeight int
	UserAgent    string
}

// DefaultBrowserOptions returns standard browser options for cfg
func DefaultBrowserOptions(cfg config.ScrapeConfig) BrowserOptions {
	return BrowserOptions{
		BlockFonts:   true,
		WindowWidth:  cfg.WindowWidth,
		WindowHeight: cfg.WindowHeight,
		UserAgent:    cfg.UserAgent,
	}
}

// chromeFlags are passed to every browser instance. The automation related
// switches keep bot protection from serving a challenge instead of the page.
var chromeFlags = []struct {
	name  string
	value interface{}
}{
	{"headless", "new"},
	{"no-sandbox", true},
	{"disable-dev-shm-usage", true},
	{"disable-gpu", true},
	{"disable-blink-features", "AutomationControlled"},
	{"exclude-switches", "enable-automation"},
	{"disable-infobars", true},
	{"disable-default-apps", true},
	{"disable-background-networking", true},
	{"disable-breakpad", true},
	{"disable-component-update", true},
	{"disable-popup-blocking", true},
	{"disable-sync", true},
	{"disable-translate", true},
	{"metrics-recording-only", true},
	{"password-store", "basic"},
	{"use-mock-keychain", true},
	{"disable-extensions", true},
}

// BuildChromeOptions turns opts into exec allocator options
func BuildChromeOptions(opts BrowserOptions) []chromedp.ExecAllocatorOption {
	chromeOpts := make([]chromedp.ExecAllocatorOption, 0, len(chromedp.DefaultExecAllocatorOptions)+len(chromeFlags)+3)
	chromeOpts = append(chromeOpts, chromedp.DefaultExecAllocatorOptions[:]...)
	for _, f := range chromeFlags {
		chromeOpts = append(chromeOpts, chromedp.Flag(f.name, f.value))
	}
	chromeOpts = append(chromeOpts, chromedp.WindowSize(opts.WindowWidth, opts.WindowHeight))

	if opts.UserAgent != "" {
		chromeOpts = append(chromeOpts, chromedp.UserAgent(opts.UserAgent))
	}
	if opts.BlockFonts {
		chromeOpts = append(chromeOpts, chromedp.Flag("disable-remote-fonts", true))
	}
	return chromeOpts
}

// GetRequestBlockingScript returns JavaScript, installed before any page
// script runs, that blocks tracker requests and hides automation markers
func GetRequestBlockingScript() string {
	quoted := make([]string, 0, len(BlockedDomains))
	for _, d := range BlockedDomains {
		quoted = append(quoted, strconv.Quote(d))
	}

	return `
		const blockedDomains = [` + strings.Join(quoted, ", ") + `];
		const isBlocked = (url) => typeof url === 'string' && blockedDomains.some(domain => url.includes(domain));

		const originalFetch = window.fetch;
		window.fetch = function(...args) {
			const target = args[0];
			const url = typeof target === 'string' ? target : (target && target.url);
			if (isBlocked(url)) {
				return Promise.reject(new Error('Blocked'));
			}
			return originalFetch.apply(this, args);
		};

		const originalOpen = XMLHttpRequest.prototype.open;
		XMLHttpRequest.prototype.open = function(method, url, ...args) {
			if (isBlocked(url)) {
				throw new Error('Blocked');
			}
			return originalOpen.apply(this, [method, url, ...args]);
		};

		Object.defineProperty(navigator, 'webdriver', {
			get: () => undefined,
			configurable: true
		});

		Object.defineProperty(navigator, 'languages', {
			get: () => ['en-US', 'en'],
			configurable: true
		});

		window.chrome = window.chrome || { runtime: {} };
	`
}
