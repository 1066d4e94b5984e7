package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/rohmanhakim/spider/internal/model"
)

// textResultSink prints one human-readable line per CrawlResult, in the
// spirit of the teacher's LocalSink writing one artifact per document.
type textResultSink struct {
	mu sync.Mutex
	w  io.Writer
}

func newTextResultSink(w io.Writer) *textResultSink {
	return &textResultSink{w: w}
}

func (s *textResultSink) Publish(result model.CrawlResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, "%s status=%d depth=%d\n", result.PageData.URL, result.PageData.StatusCode, result.Depth)
}

// jsonResultSink writes one JSON object per line, for downstream tools that
// want to consume crawl results programmatically.
type jsonResultSink struct {
	mu  sync.Mutex
	w   io.Writer
	enc *json.Encoder
}

func newJSONResultSink(w io.Writer) *jsonResultSink {
	return &jsonResultSink{w: w, enc: json.NewEncoder(w)}
}

func (s *jsonResultSink) Publish(result model.CrawlResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.enc.Encode(result)
}
