package robots

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// disallowRule is one compiled Disallow pattern. Path matching builds a
// regex where '*' means "match anything" and every other regex
// metacharacter is escaped, anchored at the start of the path. If the
// pattern fails to compile, matching falls back to a plain prefix check
// (treating a trailing '*' as a wildcard suffix that is stripped first).
type disallowRule struct {
	raw    string
	re     *regexp.Regexp
	prefix string
}

func compileDisallowRule(pattern string) disallowRule {
	rule := disallowRule{raw: pattern}

	segments := strings.Split(pattern, "*")
	for i, seg := range segments {
		segments[i] = regexp.QuoteMeta(seg)
	}
	reSource := "^" + strings.Join(segments, ".*")

	if re, err := regexp.Compile(reSource); err == nil {
		rule.re = re
	} else {
		rule.prefix = strings.TrimSuffix(pattern, "*")
	}
	return rule
}

func (r disallowRule) matches(path string) bool {
	if r.re != nil {
		return r.re.MatchString(path)
	}
	return strings.HasPrefix(path, r.prefix)
}

// Rules is the immutable, cached disallow set for one origin and user
// agent.
type Rules struct {
	Origin     string
	disallows  []disallowRule
	CrawlDelay *time.Duration
	FetchedAt  time.Time
}

// Disallows reports whether path is blocked by any rule in the set. A URL
// is allowed iff no disallow rule matches.
func (r *Rules) Disallows(path string) bool {
	for _, rule := range r.disallows {
		if rule.matches(path) {
			return true
		}
	}
	return false
}

// parsedGroup is one User-agent section of a robots.txt file, prior to
// selecting the section applicable to our configured agent.
type parsedGroup struct {
	userAgents []string
	disallows  []string
	crawlDelay *time.Duration
}

// parseRobotsTxt is a line-oriented parser: '#'-prefixed and blank lines are
// ignored, each remaining line is split on the first ':', and
// User-agent/Disallow/Crawl-delay are recognized case-insensitively. Rules
// that precede any User-agent line belong to an implicit "*" section.
func parseRobotsTxt(content string) []parsedGroup {
	var groups []parsedGroup
	var current *parsedGroup

	ensureGroup := func() *parsedGroup {
		if current == nil {
			groups = append(groups, parsedGroup{})
			current = &groups[len(groups)-1]
		}
		return current
	}

	for _, line := range strings.Split(content, "\n") {
		if idx := strings.IndexByte(line, '#'); idx >= 0 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		colon := strings.IndexByte(line, ':')
		if colon < 0 {
			continue
		}
		field := strings.ToLower(strings.TrimSpace(line[:colon]))
		value := strings.TrimSpace(line[colon+1:])

		switch field {
		case "user-agent":
			if current != nil && (len(current.disallows) > 0 || current.crawlDelay != nil) {
				current = nil
			}
			g := ensureGroup()
			g.userAgents = append(g.userAgents, value)
		case "disallow":
			if value == "" {
				continue
			}
			g := ensureGroup()
			g.disallows = append(g.disallows, value)
		case "crawl-delay":
			if seconds, err := strconv.ParseFloat(value, 64); err == nil && seconds >= 0 {
				g := ensureGroup()
				delay := time.Duration(seconds * float64(time.Second))
				g.crawlDelay = &delay
			}
		}
	}
	for i := range groups {
		if len(groups[i].userAgents) == 0 {
			groups[i].userAgents = []string{"*"}
		}
	}
	return groups
}

// selectGroup finds the most specific group applicable to targetUserAgent:
// an exact (case-insensitive) match wins outright; otherwise the wildcard
// "*" section applies.
func selectGroup(groups []parsedGroup, targetUserAgent string) *parsedGroup {
	targetLower := strings.ToLower(targetUserAgent)
	var wildcard *parsedGroup

	for i := range groups {
		g := &groups[i]
		for _, ua := range g.userAgents {
			if strings.ToLower(ua) == targetLower {
				return g
			}
			if ua == "*" && wildcard == nil {
				wildcard = g
			}
		}
	}
	return wildcard
}

func newRules(origin string, groups []parsedGroup, targetUserAgent string, fetchedAt time.Time) *Rules {
	rules := &Rules{Origin: origin, FetchedAt: fetchedAt}

	group := selectGroup(groups, targetUserAgent)
	if group == nil {
		return rules
	}

	rules.disallows = make([]disallowRule, 0, len(group.disallows))
	for _, pattern := range group.disallows {
		rules.disallows = append(rules.disallows, compileDisallowRule(pattern))
	}
	rules.CrawlDelay = group.crawlDelay
	return rules
}
