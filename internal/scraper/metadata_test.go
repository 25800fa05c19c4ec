package scraper

import (
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func docFrom(t *testing.T, page string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	require.NoError(t, err)
	return doc
}

func TestTextSanitizerClean(t *testing.T) {
	ts := NewTextSanitizer()

	assert.Equal(t, "", ts.Clean(""))
	assert.Equal(t, "Acme Logo", ts.Clean("<span>Acme</span>\n\t Logo"))
	assert.Equal(t, "Salt & Pepper", ts.Clean("Salt & Pepper"))
	assert.Equal(t, "Front view", ts.Clean("Front <script>alert(1)</script>view"))
}

func TestFindMetaTag(t *testing.T) {
	doc := docFrom(t, `<head>
		<meta property="og:title" content="">
		<meta property="og:title" content=" Trail Runner ">
		<meta name="twitter:title" content="Twitter Title">
	</head>`)

	assert.Equal(t, "Trail Runner", FindMetaTag(doc, OGTitle, ""))
	assert.Equal(t, "Twitter Title", FindMetaTag(doc, "", TwitterTitle))
	assert.Equal(t, "", FindMetaTag(doc, "og:description", "description"))
}

func TestExtractPageTitlePrefersMetaTags(t *testing.T) {
	ts := NewTextSanitizer()
	base, _ := url.Parse("https://shop.example/item")

	page := `<html><head><title>Fallback</title><meta name="twitter:title" content="Card &amp; Title"></head><body><h1>Heading</h1></body></html>`
	assert.Equal(t, "Card & Title", ts.ExtractPageTitle(docFrom(t, page), page, base))

	page = `<html><head><meta property="og:title" content="OG Title"><meta name="twitter:title" content="Card"></head></html>`
	assert.Equal(t, "OG Title", ts.ExtractPageTitle(docFrom(t, page), page, base))
}

func TestExtractPageTitleWithoutMetaTags(t *testing.T) {
	ts := NewTextSanitizer()
	base, _ := url.Parse("https://shop.example/item")

	page := `<html><head><title>Trail Runner 2</title></head><body><h1>Trail Runner 2</h1><p>A shoe.</p></body></html>`
	assert.NotEmpty(t, ts.ExtractPageTitle(docFrom(t, page), page, base))
}
