package engine

import (
	"net/url"
	"strings"

	"github.com/rohmanhakim/spider/internal/config"
)

// shouldFollowURL applies the config-driven admission checks of §4.7.2.b:
// protocol allow-list, the seed's registered domain as a restriction
// anchor, explicit allowedDomains/blockedDomains, and customURLFilters.
func shouldFollowURL(rawURL string, cfg config.Config, seedHost string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return false
	}

	if _, ok := cfg.AllowedProtocols()[strings.ToLower(u.Scheme)]; !ok {
		return false
	}

	if !isHostAllowed(u.Host, cfg, seedHost) {
		return false
	}

	for _, deny := range cfg.CustomURLFilters() {
		if deny.MatchString(rawURL) {
			return false
		}
	}

	return true
}

func isHostAllowed(host string, cfg config.Config, seedHost string) bool {
	blocked := cfg.BlockedDomains()
	if _, ok := blocked[host]; ok {
		return false
	}

	allowed := cfg.AllowedDomains()
	if len(allowed) == 0 {
		return strings.EqualFold(host, seedHost)
	}
	_, ok := allowed[host]
	return ok
}
