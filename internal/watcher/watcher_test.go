package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu    sync.Mutex
	paths []string
}

func (r *recorder) record(path string) {
	r.mu.Lock()
	r.paths = append(r.paths, path)
	r.mu.Unlock()
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

// waitFor polls until every suffix has been imported or the deadline passes.
func (r *recorder) waitFor(t *testing.T, suffixes ...string) []string {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for {
		got := r.snapshot()
		if containsAll(got, suffixes) {
			return got
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected imports of %v, got %v", suffixes, got)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func containsAll(paths, suffixes []string) bool {
	for _, s := range suffixes {
		found := false
		for _, p := range paths {
			if strings.HasSuffix(p, s) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func TestWatcher_DebounceAndExtensionFilter(t *testing.T) {
	dir := t.TempDir()
	var rec recorder
	w := New([]string{dir}, []string{".tmx"}, true, rec.record, WithDebounce(200*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := writeFile(filepath.Join(dir, "ignore.po"), "x"); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "fr.tmx")
	for i := 0; i < 3; i++ {
		if err := writeFile(path, strings.Repeat("<tmx/>", i+1)); err != nil {
			t.Fatal(err)
		}
	}

	rec.waitFor(t, "fr.tmx")
	// let any straggling timer fire
	time.Sleep(400 * time.Millisecond)
	got := rec.snapshot()
	count := 0
	for _, p := range got {
		if strings.HasSuffix(p, "ignore.po") {
			t.Errorf("ignore.po should not be imported")
		}
		if p == path {
			count++
		}
	}
	if count != 1 {
		t.Errorf("rapid writes should collapse into one import, got %d: %v", count, got)
	}
}

func TestMatchExtension(t *testing.T) {
	tests := []struct {
		path       string
		extensions []string
		want       bool
	}{
		{"/a/b.tmx", []string{".tmx"}, true},
		{"/a/b.TMX", []string{".tmx"}, true},
		{"/a/b.tmx", []string{"tmx"}, true},
		{"/a/b.po", []string{".tmx"}, false},
		{"/a/b", nil, true},
		{"/a/b", []string{}, true},
	}
	for _, tt := range tests {
		got := matchExtension(tt.path, tt.extensions)
		if got != tt.want {
			t.Errorf("matchExtension(%q, %v) = %v, want %v", tt.path, tt.extensions, got, tt.want)
		}
	}
}

func TestInDir(t *testing.T) {
	tests := []struct {
		dir  string
		path string
		want bool
	}{
		{"/tmp/a", "/tmp/a", true},
		{"/tmp/a", "/tmp/a/b.tmx", true},
		{"/tmp/a", "/tmp/b", false},
		{"/tmp/a", "/tmp/a/../b", false},
		{"/tmp/a", "/tmp/ab", false},
	}
	for _, tt := range tests {
		got := inDir(tt.dir, tt.path)
		if got != tt.want {
			t.Errorf("inDir(%q, %q) = %v, want %v", tt.dir, tt.path, got, tt.want)
		}
	}
}

func TestWatcher_SyncExisting(t *testing.T) {
	dir := t.TempDir()
	if err := writeFile(filepath.Join(dir, "a.tmx"), "<tmx/>"); err != nil {
		t.Fatal(err)
	}
	if err := writeFile(filepath.Join(dir, "ignore.xyz"), "x"); err != nil {
		t.Fatal(err)
	}
	sub := filepath.Join(dir, "sub")
	if err := mkdirAll(sub); err != nil {
		t.Fatal(err)
	}
	if err := writeFile(filepath.Join(sub, "b.tmx"), "<tmx/>"); err != nil {
		t.Fatal(err)
	}

	t.Run("recursive", func(t *testing.T) {
		var rec recorder
		w := New([]string{dir}, []string{".tmx"}, true, rec.record)
		w.SyncExisting()
		got := rec.snapshot()
		if len(got) != 2 || !containsAll(got, []string{"a.tmx", "b.tmx"}) {
			t.Errorf("expected a.tmx and b.tmx, got %v", got)
		}
	})
	t.Run("flat", func(t *testing.T) {
		var rec recorder
		w := New([]string{dir}, []string{".tmx"}, false, rec.record)
		w.SyncExisting()
		got := rec.snapshot()
		if len(got) != 1 || !strings.HasSuffix(got[0], "a.tmx") {
			t.Errorf("expected only a.tmx, got %v", got)
		}
	})
}

func TestWatcher_Start_createsMissingRootDirectory(t *testing.T) {
	base := t.TempDir()
	root := filepath.Join(base, "watch", "me")

	w := New([]string{root}, []string{".tmx"}, true, func(string) {})
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if _, err := os.Stat(root); err != nil {
		t.Errorf("root directory should exist after Start: %v", err)
	}
	if dirs := w.Directories(); len(dirs) != 1 || dirs[0] != root {
		t.Errorf("Directories() = %v", dirs)
	}
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	w := New([]string{t.TempDir()}, nil, false, func(string) {})
	w.Stop()
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	w.Stop()
	w.Stop()
}

func TestWatcher_ContextCancelStops(t *testing.T) {
	w := New([]string{t.TempDir()}, nil, false, func(string) {})
	ctx, cancel := context.WithCancel(context.Background())
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	cancel()

	deadline := time.Now().Add(2 * time.Second)
	for {
		w.mu.Lock()
		stopped := w.fsw == nil
		w.mu.Unlock()
		if stopped {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("watcher did not stop after context cancel")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestWatcher_HandleNewDirectory(t *testing.T) {
	dir := t.TempDir()
	var rec recorder
	w := New([]string{dir}, []string{".tmx"}, true, rec.record, WithDebounce(50*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	nested := filepath.Join(dir, "level1", "level2")
	if err := mkdirAll(nested); err != nil {
		t.Fatal(err)
	}
	if err := writeFile(filepath.Join(nested, "deep.tmx"), "<tmx/>"); err != nil {
		t.Fatal(err)
	}
	if err := writeFile(filepath.Join(nested, "ignore.xyz"), "skip"); err != nil {
		t.Fatal(err)
	}

	got := rec.waitFor(t, "deep.tmx")
	for _, p := range got {
		if strings.HasSuffix(p, "ignore.xyz") {
			t.Errorf("ignore.xyz should not be imported")
		}
	}
}

func mkdirAll(path string) error {
	return os.MkdirAll(path, 0755)
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0600)
}
