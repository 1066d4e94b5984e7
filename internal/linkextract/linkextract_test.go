package linkextract

import (
	"regexp"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
)

func mustDoc(t *testing.T, body string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	assert.NoError(t, err)
	return doc
}

func TestExtractFindsAnchorHrefs(t *testing.T) {
	doc := mustDoc(t, `<html><body><a href="/a">A</a><a href="/b">B</a></body></html>`)
	result := Extract(doc, Config{})
	assert.ElementsMatch(t, []string{"/a", "/b"}, result.Links)
	assert.Equal(t, 2, result.ExtractionBreakdown["a"])
}

func TestExtractAppliesAllowFilter(t *testing.T) {
	doc := mustDoc(t, `<html><body><a href="/docs/x">X</a><a href="/blog/y">Y</a></body></html>`)
	result := Extract(doc, Config{Allow: []*regexp.Regexp{regexp.MustCompile(`^/docs/`)}})
	assert.Equal(t, []string{"/docs/x"}, result.Links)
}

func TestExtractAppliesDenyFilter(t *testing.T) {
	doc := mustDoc(t, `<html><body><a href="/docs/x">X</a><a href="/docs/internal/y">Y</a></body></html>`)
	result := Extract(doc, Config{Deny: []*regexp.Regexp{regexp.MustCompile(`/internal/`)}})
	assert.Equal(t, []string{"/docs/x"}, result.Links)
}

func TestExtractRestrictsToCSSRoot(t *testing.T) {
	doc := mustDoc(t, `<html><body><nav><a href="/nav">Nav</a></nav><main><a href="/main">Main</a></main></body></html>`)
	result := Extract(doc, Config{RestrictCSS: "main"})
	assert.Equal(t, []string{"/main"}, result.Links)
}

func TestExtractSkipsEmptyHref(t *testing.T) {
	doc := mustDoc(t, `<html><body><a href="">Empty</a><a href="/ok">OK</a></body></html>`)
	result := Extract(doc, Config{})
	assert.Equal(t, []string{"/ok"}, result.Links)
}

func TestResolveAndFilterDropsFragmentsAndNonHTTP(t *testing.T) {
	hrefs := []string{"/docs/a", "#section", "mailto:x@example.com", "javascript:void(0)", "https://other.com/b"}
	resolved := ResolveAndFilter(hrefs, "https", "example.com")
	assert.ElementsMatch(t, []string{"https://example.com/docs/a", "https://other.com/b"}, resolved)
}

func TestExtractFlagsNoFollowLinks(t *testing.T) {
	doc := mustDoc(t, `<html><body><a href="/a" rel="nofollow">A</a><a href="/b">B</a></body></html>`)
	result := Extract(doc, Config{})
	if _, ok := result.NoFollow["/a"]; !ok {
		t.Error("expected /a to be flagged nofollow")
	}
	if _, ok := result.NoFollow["/b"]; ok {
		t.Error("did not expect /b to be flagged nofollow")
	}
}

func TestResolveAndFilterDropsUnresolvable(t *testing.T) {
	resolved := ResolveAndFilter([]string{"http://[::1"}, "https", "example.com")
	assert.Empty(t, resolved)
}
