package report

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// WriterSink is the dry-run DeliverySink: text goes to the writer, images are summarized
type WriterSink struct {
	mu sync.Mutex
	w  io.Writer

	Texts  int
	Images int
}

// NewWriterSink creates a dry-run sink
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

// SendText implements contracts.DeliverySink
func (s *WriterSink) SendText(ctx context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := fmt.Fprintln(s.w, text); err != nil {
		return err
	}
	s.Texts++
	return nil
}

// SendImage implements contracts.DeliverySink
func (s *WriterSink) SendImage(ctx context.Context, png []byte, caption string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := fmt.Fprintf(s.w, "[chart] %s (%d bytes)\n", caption, len(png)); err != nil {
		return err
	}
	s.Images++
	return nil
}
