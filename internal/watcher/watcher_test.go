package watcher

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"xtags/internal/logging"
)

func testLogger() *logging.Logger {
	return logging.NewLogger(logging.Config{Level: logging.ErrorLevel, Output: io.Discard})
}

func waitForBatch(t *testing.T, ch <-chan []string, timeout time.Duration) []string {
	t.Helper()
	select {
	case batch := <-ch:
		return batch
	case <-time.After(timeout):
		t.Fatal("timed out waiting for a change batch")
		return nil
	}
}

func noBatch(t *testing.T, ch <-chan []string, wait time.Duration) {
	t.Helper()
	select {
	case batch := <-ch:
		t.Fatalf("unexpected batch: %v", batch)
	case <-time.After(wait):
	}
}

func startWatcher(t *testing.T, root string, config Config) (*Watcher, chan []string) {
	t.Helper()
	batches := make(chan []string, 10)
	w, err := New(root, config, testLogger(), func(paths []string) {
		batches <- paths
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() { _ = w.Stop() })

	// Give the watch registrations time to settle.
	time.Sleep(100 * time.Millisecond)
	return w, batches
}

func TestBatchDebouncerBatchesBurst(t *testing.T) {
	emitted := make(chan []Event, 1)
	b := NewBatchDebouncer(50*time.Millisecond, func(events []Event) {
		emitted <- events
	})

	b.Add(Event{Path: "a"})
	b.Add(Event{Path: "b"})
	b.Add(Event{Path: "c"})

	select {
	case events := <-emitted:
		if len(events) != 3 {
			t.Errorf("emitted %d events, want 3", len(events))
		}
	case <-time.After(2 * time.Second):
		t.Fatal("debouncer never emitted")
	}

	if n := b.EventCount(); n != 0 {
		t.Errorf("EventCount() after emit = %d, want 0", n)
	}
}

func TestBatchDebouncerFlush(t *testing.T) {
	emitted := make(chan []Event, 1)
	b := NewBatchDebouncer(time.Hour, func(events []Event) {
		emitted <- events
	})

	b.Add(Event{Path: "a"})
	b.Flush()

	select {
	case events := <-emitted:
		if len(events) != 1 || events[0].Path != "a" {
			t.Errorf("emitted %v, want single event a", events)
		}
	case <-time.After(time.Second):
		t.Fatal("Flush() did not emit")
	}
}

func TestBatchDebouncerCancel(t *testing.T) {
	emitted := make(chan []Event, 1)
	b := NewBatchDebouncer(20*time.Millisecond, func(events []Event) {
		emitted <- events
	})

	b.Add(Event{Path: "a"})
	b.Cancel()

	select {
	case events := <-emitted:
		t.Fatalf("cancelled debouncer emitted %v", events)
	case <-time.After(150 * time.Millisecond):
	}
	if n := b.EventCount(); n != 0 {
		t.Errorf("EventCount() after Cancel() = %d, want 0", n)
	}
}

func TestWatcherDetectsWrite(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "a.c")
	if err := os.WriteFile(file, []byte("int x;\n"), 0644); err != nil {
		t.Fatal(err)
	}

	_, batches := startWatcher(t, root, Config{DebounceMs: 50})

	if err := os.WriteFile(file, []byte("int y;\n"), 0644); err != nil {
		t.Fatal(err)
	}

	batch := waitForBatch(t, batches, 3*time.Second)
	found := false
	for _, p := range batch {
		if p == "a.c" {
			found = true
		}
	}
	if !found {
		t.Errorf("batch = %v, want it to contain a.c", batch)
	}
}

func TestWatcherDeduplicatesWithinBatch(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "a.c")

	_, batches := startWatcher(t, root, Config{DebounceMs: 150})

	for i := 0; i < 3; i++ {
		if err := os.WriteFile(file, []byte("int x;\n"), 0644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	batch := waitForBatch(t, batches, 3*time.Second)
	count := 0
	for _, p := range batch {
		if p == "a.c" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("a.c appears %d times in batch %v, want 1", count, batch)
	}
}

func TestWatcherIgnoresConfiguredDirs(t *testing.T) {
	root := t.TempDir()
	gitDir := filepath.Join(root, ".git")
	if err := os.MkdirAll(gitDir, 0755); err != nil {
		t.Fatal(err)
	}

	_, batches := startWatcher(t, root, Config{
		DebounceMs: 50,
		IgnoreDirs: []string{".git", ".xtags"},
	})

	if err := os.WriteFile(filepath.Join(gitDir, "HEAD"), []byte("ref\n"), 0644); err != nil {
		t.Fatal(err)
	}
	noBatch(t, batches, 400*time.Millisecond)

	if err := os.WriteFile(filepath.Join(root, "main.c"), []byte("int main;\n"), 0644); err != nil {
		t.Fatal(err)
	}
	batch := waitForBatch(t, batches, 3*time.Second)
	for _, p := range batch {
		if p != "main.c" {
			t.Errorf("batch contains %q, want only main.c", p)
		}
	}
}

func TestWatcherSeesNewDirectories(t *testing.T) {
	root := t.TempDir()
	_, batches := startWatcher(t, root, Config{DebounceMs: 50})

	sub := filepath.Join(root, "sub")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatal(err)
	}
	// Let the create event register the new directory first.
	time.Sleep(300 * time.Millisecond)

	if err := os.WriteFile(filepath.Join(sub, "new.c"), []byte("int n;\n"), 0644); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(3 * time.Second)
	want := filepath.Join("sub", "new.c")
	for {
		select {
		case batch := <-batches:
			for _, p := range batch {
				if p == want {
					return
				}
			}
		case <-deadline:
			t.Fatalf("no batch contained %s", want)
		}
	}
}

func TestWatcherFlush(t *testing.T) {
	root := t.TempDir()
	w, batches := startWatcher(t, root, Config{DebounceMs: 60000})

	if err := os.WriteFile(filepath.Join(root, "slow.c"), []byte("int s;\n"), 0644); err != nil {
		t.Fatal(err)
	}
	// Let the event reach the pending batch before forcing it out.
	time.Sleep(500 * time.Millisecond)

	w.Flush()

	batch := waitForBatch(t, batches, time.Second)
	if len(batch) == 0 {
		t.Error("flushed batch is empty")
	}
}

func TestWatcherStopIsIdempotent(t *testing.T) {
	root := t.TempDir()
	w, batches := startWatcher(t, root, Config{DebounceMs: 50})

	if err := w.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	if err := os.WriteFile(filepath.Join(root, "late.c"), []byte("int l;\n"), 0644); err != nil {
		t.Fatal(err)
	}
	noBatch(t, batches, 300*time.Millisecond)

	if err := w.Stop(); err != nil {
		t.Errorf("second Stop() error = %v", err)
	}
}
