// Package model holds the data types that cross component boundaries:
// CrawlTask (frontier -> worker), PageData (scraper -> worker), and
// CrawlResult (worker -> sink).
package model

import "time"

// CrawlTask is one unit of work in a Domain Crawl Engine's queue. It is
// immutable after creation and destroyed once popped and processed.
type CrawlTask struct {
	URL         string
	Depth       int
	FromURL     string
	Metadata    map[string]string
	ExtractSpec map[string]ExtractField
}

// ExtractField is one entry of an extract_spec: either a bare CSS selector
// (Selector set, every other field zero) or the full object form.
type ExtractField struct {
	Selector  string
	Attribute string
	Multiple  bool
	Exists    bool
	Fields    map[string]ExtractField
}

// CommonMetadata is the convenience subset of a page's <meta> tags.
type CommonMetadata struct {
	Description string
	Keywords    string
	Author      string
	Robots      string
}

// IsEmpty reports whether every field of CommonMetadata is blank.
func (c CommonMetadata) IsEmpty() bool {
	return c.Description == "" && c.Keywords == "" && c.Author == "" && c.Robots == ""
}

// PageData is produced by the Scraper (C6), validated against its
// invariants, and handed exactly once to the sink via the engine's result
// channel.
type PageData struct {
	URL              string
	HTML             string
	Title            string
	Metadata         map[string]string
	CommonMetadata   *CommonMetadata
	StatusCode       int
	Headers          map[string]string
	FetchedAt        time.Time
	ScrapeDurationMs int64
	Depth            int
	ExtractedFields  map[string]any
}

// CrawlResult is the value type crossing the engine/sink boundary.
type CrawlResult struct {
	PageData  PageData
	Depth     int
	Timestamp time.Time
	Metadata  map[string]string
}
