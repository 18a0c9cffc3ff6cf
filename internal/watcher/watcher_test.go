package watcher

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/starford/folio/internal/storage"
)

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) record(kind, name string) {
	r.mu.Lock()
	r.events = append(r.events, kind+":"+name)
	r.mu.Unlock()
}

func (r *recorder) has(event string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Contains(r.events, event)
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.events)
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func startWatcher(t *testing.T, dir string) *recorder {
	t.Helper()
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	ctx, cancel := context.WithCancel(context.Background())
	rec := &recorder{}
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := Watch(ctx, dir, ".json", logger, rec.record); err != nil {
			t.Errorf("Watch: %v", err)
		}
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	time.Sleep(100 * time.Millisecond)
	return rec
}

func TestWatcher_CreateUpdateDelete(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewFS(dir, ".json")
	if err != nil {
		t.Fatal(err)
	}
	rec := startWatcher(t, dir)

	if err := store.Write("a.json", []byte(`{"id":"a","date":"2018-01-01"}`)); err != nil {
		t.Fatal(err)
	}
	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return rec.has("created:a.json")
	}, "create not reported")

	if err := store.Write("a.json", []byte(`{"id":"a","date":"2018-01-02"}`)); err != nil {
		t.Fatal(err)
	}
	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return rec.has("updated:a.json")
	}, "atomic rewrite not reported as update")

	if err := store.Delete("a.json"); err != nil {
		t.Fatal(err)
	}
	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return rec.has("deleted:a.json")
	}, "delete not reported")
}

func TestWatcher_PreexistingFileIsUpdate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "old.json")
	if err := os.WriteFile(path, []byte(`{}`), 0o644); err != nil {
		t.Fatal(err)
	}
	rec := startWatcher(t, dir)

	if err := os.WriteFile(path, []byte(`{"x":1}`), 0o644); err != nil {
		t.Fatal(err)
	}
	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return rec.has("updated:old.json")
	}, "write to existing file not reported as update")
	if rec.has("created:old.json") {
		t.Error("existing file reported as created")
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	rec := startWatcher(t, dir)

	_ = os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644)
	_ = os.WriteFile(filepath.Join(dir, ".hidden.json"), []byte("{}"), 0o644)
	_ = os.Mkdir(filepath.Join(dir, "sub.json"), 0o755)
	_ = os.WriteFile(filepath.Join(dir, "real.json"), []byte("{}"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return rec.has("created:real.json")
	}, "suffix file not reported")
	for _, e := range rec.snapshot() {
		if e != "created:real.json" && e != "updated:real.json" {
			t.Errorf("unexpected event %q", e)
		}
	}
}

func TestWatcher_MissingDir(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	err := Watch(context.Background(), filepath.Join(t.TempDir(), "nope"), ".json", logger, nil)
	if err == nil {
		t.Fatal("expected error for missing directory")
	}
}
