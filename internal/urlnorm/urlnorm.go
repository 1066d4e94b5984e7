// Package urlnorm implements the dedup-grade URL canonicalization rules: the
// normal form used to decide whether two differently-spelled URLs refer to
// the same crawl target.
package urlnorm

import (
	"net/url"
	"sort"
	"strings"
)

// Normalize reduces a URL string to its canonical form:
//   - scheme and host are lowercased
//   - fragment is dropped
//   - default ports (80/http, 443/https) are dropped
//   - consecutive slashes in the path collapse to one; trailing slash is
//     stripped unless the path is "/"
//   - query parameters are sorted lexicographically by key, preserving the
//     relative order of values sharing a key
//   - userinfo is preserved verbatim
//
// Normalize never mutates raw; it builds the canonical string from parsed
// components. If raw fails to parse, it is returned unchanged so that
// deduplication still functions, just less aggressively.
//
// Normalize is idempotent: Normalize(Normalize(u)) == Normalize(u).
func Normalize(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	normalized := *u
	normalized.Scheme = strings.ToLower(normalized.Scheme)
	normalized.Host = dropDefaultPort(strings.ToLower(normalized.Host), normalized.Scheme)
	normalized.Fragment = ""
	normalized.RawFragment = ""
	normalized.Path = collapseSlashes(normalized.Path)
	normalized.RawQuery = sortQuery(normalized.RawQuery)

	return normalized.String()
}

func dropDefaultPort(host, scheme string) string {
	switch scheme {
	case "http":
		return strings.TrimSuffix(host, ":80")
	case "https":
		return strings.TrimSuffix(host, ":443")
	default:
		return host
	}
}

func collapseSlashes(path string) string {
	if path == "" {
		return path
	}
	var b strings.Builder
	b.Grow(len(path))
	prevSlash := false
	for _, r := range path {
		if r == '/' {
			if prevSlash {
				continue
			}
			prevSlash = true
		} else {
			prevSlash = false
		}
		b.WriteRune(r)
	}
	collapsed := b.String()
	if len(collapsed) > 1 && strings.HasSuffix(collapsed, "/") {
		collapsed = strings.TrimSuffix(collapsed, "/")
	}
	if collapsed == "" {
		collapsed = "/"
	}
	return collapsed
}

// sortQuery sorts query parameters lexicographically by key while
// preserving the relative order of values that share a key.
func sortQuery(rawQuery string) string {
	if rawQuery == "" {
		return ""
	}
	pairs := strings.Split(rawQuery, "&")
	type kv struct {
		key   string
		value string
		hasEq bool
	}
	parsed := make([]kv, 0, len(pairs))
	for _, pair := range pairs {
		if pair == "" {
			continue
		}
		if idx := strings.IndexByte(pair, '='); idx >= 0 {
			parsed = append(parsed, kv{key: pair[:idx], value: pair[idx+1:], hasEq: true})
		} else {
			parsed = append(parsed, kv{key: pair})
		}
	}
	sort.SliceStable(parsed, func(i, j int) bool { return parsed[i].key < parsed[j].key })

	rebuilt := make([]string, 0, len(parsed))
	for _, p := range parsed {
		if p.hasEq {
			rebuilt = append(rebuilt, p.key+"="+p.value)
		} else {
			rebuilt = append(rebuilt, p.key)
		}
	}
	return strings.Join(rebuilt, "&")
}

// WwwHandling controls whether a "www." host prefix is treated as
// significant during seed-list deduplication.
type WwwHandling string

const (
	WwwIgnore   WwwHandling = "ignore"
	WwwPreserve WwwHandling = "preserve"
)

// ProtocolHandling controls whether http/https is treated as significant
// during seed-list deduplication.
type ProtocolHandling string

const (
	ProtocolPreferHTTPS ProtocolHandling = "prefer-https"
	ProtocolPreserve    ProtocolHandling = "preserve"
)

// TrailingSlashHandling controls whether a trailing "/" is treated as
// significant during seed-list deduplication.
type TrailingSlashHandling string

const (
	TrailingSlashIgnore   TrailingSlashHandling = "ignore"
	TrailingSlashPreserve TrailingSlashHandling = "preserve"
)

// QueryParamHandling controls whether query parameters survive seed-list
// deduplication comparisons.
type QueryParamHandling string

const (
	QueryParamPreserve QueryParamHandling = "preserve"
	QueryParamDrop     QueryParamHandling = "drop"
)

// FragmentHandling controls whether a fragment is treated as significant
// during seed-list deduplication.
type FragmentHandling string

const (
	FragmentIgnore   FragmentHandling = "ignore"
	FragmentPreserve FragmentHandling = "preserve"
)

// SeedPolicy bundles the five independently configurable seed-list
// deduplication policies.
type SeedPolicy struct {
	Www           WwwHandling
	Protocol      ProtocolHandling
	TrailingSlash TrailingSlashHandling
	QueryParam    QueryParamHandling
	Fragment      FragmentHandling
}

// DefaultSeedPolicy matches the most aggressive, most common dedup intent:
// ignore www, prefer https, ignore trailing slash, preserve query, ignore
// fragment.
func DefaultSeedPolicy() SeedPolicy {
	return SeedPolicy{
		Www:           WwwIgnore,
		Protocol:      ProtocolPreferHTTPS,
		TrailingSlash: TrailingSlashIgnore,
		QueryParam:    QueryParamPreserve,
		Fragment:      FragmentIgnore,
	}
}

// SkippedSeed records why a seed URL was dropped during SeedDedup.
type SkippedSeed struct {
	URL    string
	Reason string
}

// SeedDedupStats summarizes a SeedDedup pass.
type SeedDedupStats struct {
	Total      int
	Unique     int
	Duplicates int
}

// SeedDedupResult is the outcome of SeedDedup.
type SeedDedupResult struct {
	Deduplicated []string
	Skipped      []SkippedSeed
	Stats        SeedDedupStats
}

// SeedDedup deduplicates a seed URL list under the given policy, preserving
// the input order of the first occurrence of each equivalence class.
func SeedDedup(seeds []string, policy SeedPolicy) SeedDedupResult {
	seen := make(map[string]struct{}, len(seeds))
	result := SeedDedupResult{
		Deduplicated: make([]string, 0, len(seeds)),
		Skipped:      make([]SkippedSeed, 0),
		Stats:        SeedDedupStats{Total: len(seeds)},
	}

	for _, raw := range seeds {
		key, err := seedKey(raw, policy)
		if err != nil {
			result.Skipped = append(result.Skipped, SkippedSeed{URL: raw, Reason: "unparsable url"})
			continue
		}
		if _, dup := seen[key]; dup {
			result.Skipped = append(result.Skipped, SkippedSeed{URL: raw, Reason: "duplicate of an earlier seed"})
			result.Stats.Duplicates++
			continue
		}
		seen[key] = struct{}{}
		result.Deduplicated = append(result.Deduplicated, raw)
	}
	result.Stats.Unique = len(result.Deduplicated)
	return result
}

// seedKey builds the equivalence-class key for a seed URL under policy.
func seedKey(raw string, policy SeedPolicy) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}

	scheme := strings.ToLower(u.Scheme)
	if policy.Protocol == ProtocolPreferHTTPS {
		scheme = "https"
	}

	host := strings.ToLower(u.Host)
	if policy.Www == WwwIgnore {
		host = strings.TrimPrefix(host, "www.")
	}

	path := collapseSlashes(u.Path)
	if policy.TrailingSlash == TrailingSlashIgnore {
		path = strings.TrimSuffix(path, "/")
	}

	query := u.RawQuery
	if policy.QueryParam == QueryParamDrop {
		query = ""
	} else {
		query = sortQuery(query)
	}

	fragment := u.Fragment
	if policy.Fragment == FragmentIgnore {
		fragment = ""
	}

	key := scheme + "://" + host + path
	if query != "" {
		key += "?" + query
	}
	if fragment != "" {
		key += "#" + fragment
	}
	return key, nil
}
