// Package linkextract implements the Link Extractor (C7): pulling outbound
// links from parsed HTML under an allow/deny filter, a CSS restriction
// root, and a tag allow-list.
package linkextract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// defaultTags is the set of elements inspected for outbound references when
// Config.Tags is empty.
var defaultTags = map[string]string{
	"a":    "href",
	"link": "href",
}

// Config controls how Extract walks the document.
type Config struct {
	// Allow, if non-empty, only lets through hrefs matching at least one
	// pattern.
	Allow []*regexp.Regexp
	// Deny drops hrefs matching any pattern, evaluated after Allow.
	Deny []*regexp.Regexp
	// RestrictCSS, if set, confines the search to elements under this CSS
	// selector (e.g. "main", "article.content").
	RestrictCSS string
	// Tags maps element name to the attribute holding its URL. A nil or
	// empty map falls back to defaultTags.
	Tags map[string]string
}

// Result is C7's output: the raw, unresolved hrefs plus extraction stats.
type Result struct {
	Links                  []string
	TotalElementsProcessed int
	ExtractionBreakdown    map[string]int
	// NoFollow holds the subset of Links whose anchor carried rel="nofollow".
	// Populated only for the "a" tag; other tags have no rel semantics.
	NoFollow map[string]struct{}
}

// Extract walks htmlBody (already-parsed via goquery.Document) and returns
// every outbound href surviving the allow/deny filters. Raw links are not
// resolved against the page URL here — that is the calling worker's job, so
// resolution failures and non-HTTP(S)/fragment-only anchors can be dropped
// at resolution time per C7's contract.
func Extract(doc *goquery.Document, cfg Config) Result {
	tags := cfg.Tags
	if len(tags) == 0 {
		tags = defaultTags
	}

	scope := doc.Selection
	if cfg.RestrictCSS != "" {
		restricted := doc.Find(cfg.RestrictCSS)
		if restricted.Length() > 0 {
			scope = restricted
		}
	}

	result := Result{
		Links:               make([]string, 0),
		ExtractionBreakdown: make(map[string]int),
		NoFollow:            make(map[string]struct{}),
	}

	for tag, attr := range tags {
		scope.Find(tag).Each(func(_ int, sel *goquery.Selection) {
			result.TotalElementsProcessed++
			href, ok := sel.Attr(attr)
			if !ok {
				return
			}
			href = strings.TrimSpace(href)
			if href == "" {
				return
			}
			if !passesFilters(href, cfg.Allow, cfg.Deny) {
				return
			}
			result.Links = append(result.Links, href)
			result.ExtractionBreakdown[tag]++
			if tag == "a" && isNoFollow(sel) {
				result.NoFollow[href] = struct{}{}
			}
		})
	}

	return result
}

func isNoFollow(sel *goquery.Selection) bool {
	rel, ok := sel.Attr("rel")
	if !ok {
		return false
	}
	for _, token := range strings.Fields(rel) {
		if strings.EqualFold(token, "nofollow") {
			return true
		}
	}
	return false
}

func passesFilters(href string, allow, deny []*regexp.Regexp) bool {
	if len(allow) > 0 {
		matched := false
		for _, re := range allow {
			if re.MatchString(href) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	for _, re := range deny {
		if re.MatchString(href) {
			return false
		}
	}
	return true
}
