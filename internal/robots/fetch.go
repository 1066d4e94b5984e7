package robots

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const maxRobotsTxtBytes = 500 * 1024

// httpFetch retrieves origin+"/robots.txt" and returns its parsed groups.
// Network failure and any non-2xx status are NOT modeled as RobotsError —
// both collapse to "no groups" (empty, allow-all rules), per C5's contract
// that robots.txt absence or unreachability never blocks a crawl.
func httpFetch(ctx context.Context, client *http.Client, userAgent, origin string) ([]parsedGroup, *RobotsError) {
	robotsURL := origin + "/robots.txt"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, &RobotsError{Message: err.Error(), Cause: ErrCausePreFetchFailure}
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/plain,text/html,*/*")

	resp, err := client.Do(req)
	if err != nil {
		return nil, nil // network failure -> empty rules, no RobotsError
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, nil // non-2xx -> empty rules
	}

	limited := io.LimitReader(resp.Body, maxRobotsTxtBytes+1)
	content, err := io.ReadAll(limited)
	if err != nil {
		return nil, &RobotsError{Message: fmt.Sprintf("reading %s: %v", robotsURL, err), Cause: ErrCauseParseError, Retryable: true}
	}
	if len(content) > maxRobotsTxtBytes {
		content = content[:maxRobotsTxtBytes]
	}

	return parseRobotsTxt(string(content)), nil
}

func defaultHTTPClient() *http.Client {
	return &http.Client{Timeout: 30 * time.Second}
}
