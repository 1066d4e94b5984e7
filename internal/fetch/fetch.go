// Package fetch implements the Scraper (C6): a bounded HTTP GET, content
// type gate, HTML parse, and metadata extraction pipeline producing a
// validated model.PageData.
package fetch

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rohmanhakim/spider/internal/model"
	"github.com/rohmanhakim/spider/internal/telemetry"
)

const (
	requestTimeout = 30 * time.Second
	bodyTimeout    = 10 * time.Second
)

var acceptedContentTypes = []string{"text/html", "application/xhtml", "text/"}

// Fetcher performs fetch_and_parse for one URL at a time. It holds no
// per-host state; host-level pacing is pkg/ratelimit's job, called by C8
// before invoking FetchAndParse.
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	sink       telemetry.Sink
}

// New returns a Fetcher identifying itself as userAgent.
func New(userAgent string, sink telemetry.Sink) *Fetcher {
	return &Fetcher{httpClient: &http.Client{}, userAgent: userAgent, sink: sink}
}

// NewWithClient is New with an injected *http.Client, for tests.
func NewWithClient(userAgent string, sink telemetry.Sink, client *http.Client) *Fetcher {
	return &Fetcher{httpClient: client, userAgent: userAgent, sink: sink}
}

// FetchAndParse performs one fetch_and_parse cycle for rawURL at the given
// crawl depth.
func (f *Fetcher) FetchAndParse(ctx context.Context, rawURL string, depth int) (model.PageData, *FetchError) {
	start := time.Now()

	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return model.PageData{}, &FetchError{URL: rawURL, Message: err.Error(), Cause: ErrCauseNetworkFailure, Retryable: true}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,*/*;q=0.8")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		if reqCtx.Err() != nil {
			return model.PageData{}, FetchAbort(rawURL, "request", time.Since(start))
		}
		return model.PageData{}, &FetchError{URL: rawURL, Message: err.Error(), Cause: ErrCauseNetworkFailure, Retryable: true}
	}
	defer resp.Body.Close()

	if fetchErr := classifyStatus(rawURL, resp.StatusCode); fetchErr != nil {
		return model.PageData{}, fetchErr
	}

	contentType := resp.Header.Get("Content-Type")
	if !isAcceptedContentType(contentType) {
		return model.PageData{}, ContentTypeError(rawURL, contentType, acceptedContentTypes)
	}

	body, fetchErr := readBodyWithTimeout(resp.Body, rawURL, start)
	if fetchErr != nil {
		return model.PageData{}, fetchErr
	}

	page, fetchErr := parsePage(rawURL, body, resp, depth, start)
	if fetchErr != nil {
		return model.PageData{}, fetchErr
	}

	if err := validate(page); err != nil {
		return model.PageData{}, &FetchError{URL: rawURL, Message: err.Error(), Cause: ErrCauseInvalidPageData, Retryable: false}
	}

	f.emitFetched(rawURL, page)
	return page, nil
}

func classifyStatus(rawURL string, statusCode int) *FetchError {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return nil
	case statusCode == 403:
		return &FetchError{URL: rawURL, Message: "request forbidden", Cause: ErrCauseRequestForbidden, Retryable: true}
	case statusCode == 429:
		return &FetchError{URL: rawURL, Message: "rate limited", Cause: ErrCauseRequestTooMany, Retryable: true}
	case statusCode >= 500:
		return &FetchError{URL: rawURL, Message: "server error", Cause: ErrCauseRequest5xx, Retryable: true}
	case statusCode >= 300 && statusCode < 400:
		return &FetchError{URL: rawURL, Message: "redirect limit exceeded", Cause: ErrCauseRedirectLimit, Retryable: true}
	case statusCode >= 400:
		return &FetchError{URL: rawURL, Message: "client error", Cause: ErrCauseNetworkFailure, Retryable: true}
	default:
		return &FetchError{URL: rawURL, Message: "unexpected status", Cause: ErrCauseNetworkFailure, Retryable: true}
	}
}

func isAcceptedContentType(contentType string) bool {
	if contentType == "" {
		return true
	}
	lower := strings.ToLower(contentType)
	for _, accepted := range acceptedContentTypes {
		if strings.Contains(lower, accepted) {
			return true
		}
	}
	return false
}

// readBodyWithTimeout reads the full body under the 10-second parse
// timeout, via a watchdog goroutine rather than a blocking read, so a slow
// or stalled server cannot hang the worker indefinitely.
func readBodyWithTimeout(body io.ReadCloser, rawURL string, start time.Time) ([]byte, *FetchError) {
	type readResult struct {
		data []byte
		err  error
	}
	done := make(chan readResult, 1)

	go func() {
		data, err := io.ReadAll(body)
		done <- readResult{data: data, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return nil, &FetchError{URL: rawURL, Message: r.err.Error(), Cause: ErrCauseNetworkFailure, Retryable: true}
		}
		return r.data, nil
	case <-time.After(bodyTimeout):
		body.Close()
		<-done
		return nil, FetchAbort(rawURL, "body read", time.Since(start))
	}
}

func parsePage(rawURL string, body []byte, resp *http.Response, depth int, start time.Time) (model.PageData, *FetchError) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return model.PageData{}, &FetchError{URL: rawURL, Message: err.Error(), Cause: ErrCauseInvalidPageData, Retryable: false}
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())

	metadata := make(map[string]string)
	doc.Find("meta").Each(func(_ int, sel *goquery.Selection) {
		key, ok := sel.Attr("name")
		if !ok {
			key, ok = sel.Attr("property")
		}
		if !ok {
			key, ok = sel.Attr("http-equiv")
		}
		if !ok {
			return
		}
		content, _ := sel.Attr("content")
		metadata[key] = content
	})

	common := model.CommonMetadata{
		Description: metadata["description"],
		Keywords:    metadata["keywords"],
		Author:      metadata["author"],
		Robots:      metadata["robots"],
	}

	headers := make(map[string]string, len(resp.Header))
	for k, v := range resp.Header {
		if len(v) > 0 {
			headers[k] = v[0]
		}
	}

	page := model.PageData{
		URL:              rawURL,
		HTML:             string(body),
		Title:            title,
		Metadata:         metadata,
		StatusCode:       resp.StatusCode,
		Headers:          headers,
		FetchedAt:        start,
		ScrapeDurationMs: time.Since(start).Milliseconds(),
		Depth:            depth,
	}
	if !common.IsEmpty() {
		page.CommonMetadata = &common
	}
	return page, nil
}

func (f *Fetcher) emitFetched(rawURL string, page model.PageData) {
	if f.sink == nil {
		return
	}
	f.sink.Emit(telemetry.Event{
		Time: time.Now(),
		Kind: telemetry.KindPageScraped,
		Fields: []telemetry.Attribute{
			telemetry.NewAttr(telemetry.AttrURL, rawURL),
			telemetry.NewAttr(telemetry.AttrHTTPStatus, strconv.Itoa(page.StatusCode)),
			telemetry.NewAttr(telemetry.AttrDepth, strconv.Itoa(page.Depth)),
		},
	})
}
