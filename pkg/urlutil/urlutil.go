package urlutil

import "net/url"

// Canonicalize applies a coarse, query-dropping normalization used for
// host/scope comparisons (robots origin keys, allowed-host checks). It is
// not the dedup-grade canonical form — see internal/urlnorm for the form
// that preserves and sorts query parameters for deduplication purposes.
//
// The normalization follows these rules:
//   - Scheme and host are lowercased
//   - Path is cleaned (trailing slashes removed, except for root "/")
//   - Fragments are removed
//   - Query parameters are removed
//   - Default ports are omitted (e.g., :80 for http, :443 for https)
//
// Properties:
//   - Pure: no state, no memory
//   - Deterministic: same input always produces same output
//   - Idempotent: Canonicalize(Canonicalize(url)) == Canonicalize(url)
//   - Context-free: does not depend on crawl history
func Canonicalize(sourceUrl url.URL) url.URL {
	// Create a copy to avoid mutating the original
	canonical := sourceUrl

	// Lowercase scheme and host
	canonical.Scheme = lowerASCII(canonical.Scheme)
	canonical.Host = lowerASCII(canonical.Host)

	// Remove default port if present
	if host, port := canonical.Hostname(), canonical.Port(); port != "" {
		if (canonical.Scheme == "http" && port == "80") ||
			(canonical.Scheme == "https" && port == "443") {
			canonical.Host = host
		}
	}

	// Clean the path: remove trailing slashes (except root)
	if len(canonical.Path) > 1 {
		canonical.Path = stripTrailingSlash(canonical.Path)
	}

	// Remove fragment (anchor)
	canonical.Fragment = ""
	canonical.RawFragment = ""

	// Remove query parameters
	canonical.RawQuery = ""
	canonical.ForceQuery = false

	return canonical
}

// Resolve turns a possibly-relative href discovered on a page into an
// absolute URL against the given base scheme and host. If href already
// carries its own host, it is parsed and returned as-is (apart from
// defaulting a missing scheme). Parse failures return ok=false.
func Resolve(href string, baseScheme string, baseHost string) (url.URL, bool) {
	ref, err := url.Parse(href)
	if err != nil {
		return url.URL{}, false
	}
	if ref.Host == "" {
		base := &url.URL{Scheme: baseScheme, Host: baseHost}
		ref = base.ResolveReference(ref)
	}
	if ref.Scheme == "" {
		ref.Scheme = baseScheme
	}
	return *ref, true
}

// FilterByHost returns the subset of urls whose host matches the given host,
// compared case-insensitively.
func FilterByHost(host string, urls []url.URL) []url.URL {
	wanted := lowerASCII(host)
	filtered := make([]url.URL, 0, len(urls))
	for _, u := range urls {
		if lowerASCII(u.Host) == wanted {
			filtered = append(filtered, u)
		}
	}
	return filtered
}

// lowerASCII converts ASCII characters to lowercase without allocating.
// This is faster than strings.ToLower for ASCII-only strings.
func lowerASCII(s string) string {
	var needsLower bool
	for i := 0; i < len(s); i++ {
		if s[i] >= 'A' && s[i] <= 'Z' {
			needsLower = true
			break
		}
	}
	if !needsLower {
		return s
	}
	b := make([]byte, len(s))
	copy(b, s)
	for i := 0; i < len(b); i++ {
		if b[i] >= 'A' && b[i] <= 'Z' {
			b[i] += 'a' - 'A'
		}
	}
	return string(b)
}

// stripTrailingSlash removes trailing slashes from a path.
func stripTrailingSlash(path string) string {
	for len(path) > 1 && path[len(path)-1] == '/' {
		path = path[:len(path)-1]
	}
	return path
}
