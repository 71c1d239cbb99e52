package cli

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"
)

// syncBuffer is a bytes.Buffer safe for the spinner goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestSpinnerDraws(t *testing.T) {
	var w syncBuffer
	s := newSpinner(context.Background(), &w, printer{w: &w}, "Loading...")
	s.Start()
	time.Sleep(200 * time.Millisecond)
	s.Stop()

	if !bytes.Contains([]byte(w.String()), []byte("Loading...")) {
		t.Errorf("spinner output %q does not contain message", w.String())
	}
	if s.Cancelled() {
		t.Error("Stop should not count as cancellation")
	}
}

func TestSpinnerWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var w syncBuffer
	s := newSpinner(ctx, &w, printer{w: &w}, "Testing with context...")
	s.Start()
	cancel()
	time.Sleep(100 * time.Millisecond)

	if !s.Cancelled() {
		t.Error("spinner should be cancelled after context cancellation")
	}
	s.Stop()
}

func TestSpinnerStopIsIdempotent(t *testing.T) {
	var w syncBuffer
	s := newSpinner(context.Background(), &w, printer{w: &w}, "Testing idempotent stop...")
	s.Start()
	s.Stop()
	s.Stop()
	s.Stop()
}

func TestSpinnerStopWithStatus(t *testing.T) {
	var w, out syncBuffer
	s := newSpinner(context.Background(), &w, printer{w: &out}, "Working...")
	s.Start()
	s.StopWithSuccess("Loaded %d documents", 3)

	s = newSpinner(context.Background(), &w, printer{w: &out}, "Working...")
	s.Start()
	s.StopWithError("Failed")

	got := out.String()
	for _, want := range []string{iconSuccess + " Loaded 3 documents", iconError + " Failed"} {
		if !bytes.Contains([]byte(got), []byte(want)) {
			t.Errorf("output %q missing %q", got, want)
		}
	}
}
