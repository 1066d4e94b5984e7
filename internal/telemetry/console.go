package telemetry

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// ConsoleSink writes one human-readable line per Event. Safe for concurrent
// Emit calls from multiple engine workers.
type ConsoleSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewConsoleSink returns a ConsoleSink writing to os.Stderr.
func NewConsoleSink() *ConsoleSink {
	return &ConsoleSink{w: os.Stderr}
}

// NewConsoleSinkTo returns a ConsoleSink writing to an arbitrary writer, for
// redirecting CLI output or testing.
func NewConsoleSinkTo(w io.Writer) *ConsoleSink {
	return &ConsoleSink{w: w}
}

func (s *ConsoleSink) Emit(event Event) {
	var b strings.Builder
	b.WriteString(event.Time.Format("15:04:05.000"))
	b.WriteByte(' ')
	b.WriteString(string(event.Kind))
	if event.Domain != "" {
		b.WriteString(" domain=")
		b.WriteString(event.Domain)
	}
	for _, f := range event.Fields {
		b.WriteByte(' ')
		b.WriteString(string(f.Key))
		b.WriteByte('=')
		b.WriteString(f.Value)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintln(s.w, b.String())
}
