//go:build unix

package bearer

import (
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/leofalp/stagekit/core/stage"
)

// TestWrap_AbandonedMidFetch verifies that a future abandoned while its file
// read is still blocked never calls the inner service, even after the read
// completes. A FIFO keeps the read blocked until the test writes to it.
func TestWrap_AbandonedMidFetch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.fifo")
	if err := syscall.Mkfifo(path, 0o600); err != nil {
		t.Skipf("mkfifo unavailable: %v", err)
	}

	inner := newInner()
	fut := Wrap[[]byte, string](FromFile(path), inner).Call(newRequest(t))

	w := stage.NewWaker()
	if !fut.Poll(w).IsPending() {
		t.Fatal("expected the fetch to be pending on the blocked read")
	}

	// Abandon: unblock the reader and never poll again.
	writer, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		t.Fatalf("open fifo for writing: %v", err)
	}
	if _, err := writer.WriteString("late-token"); err != nil {
		t.Fatalf("write fifo: %v", err)
	}
	writer.Close()

	select {
	case <-w.C():
	case <-time.After(5 * time.Second):
		t.Fatal("expected the finished read to wake the waker")
	}

	time.Sleep(10 * time.Millisecond)
	if inner.Calls() != 0 {
		t.Errorf("inner calls = %d, want 0 after abandonment", inner.Calls())
	}
}
