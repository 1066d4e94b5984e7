package linkextract

import "github.com/rohmanhakim/spider/pkg/urlutil"

// ResolveAndFilter turns raw hrefs discovered on pageURL into absolute
// http(s) URLs, silently dropping anything that fails to resolve,
// fragment-only anchors, and non-HTTP(S) schemes.
func ResolveAndFilter(hrefs []string, pageScheme, pageHost string) []string {
	resolved := make([]string, 0, len(hrefs))
	for _, href := range hrefs {
		if href == "" || href[0] == '#' {
			continue
		}
		u, ok := urlutil.Resolve(href, pageScheme, pageHost)
		if !ok {
			continue
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			continue
		}
		resolved = append(resolved, u.String())
	}
	return resolved
}
