package index

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/pagetree/internal/testutil"
)

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

func startWatch(t *testing.T, s *Syncer, root string) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = Watch(ctx, s, root, 20*time.Millisecond)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	time.Sleep(100 * time.Millisecond)
}

func TestWatcher_NewPageIndexed(t *testing.T) {
	root, s, log := testSyncer(t, siteFiles())
	if _, err := s.Sync(context.Background()); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	startWatch(t, s, root)

	testutil.WriteFiles(t, root, map[string]string{"news/_page.yaml": "title: News"})

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		_, err := s.DB.GetPage("news")
		return err == nil
	}, "new page not indexed by watcher")
	eventually(t, 2*time.Second, 50*time.Millisecond, func() bool {
		return log.has("created:/news/")
	}, "expected created:/news/ callback")
}

func TestWatcher_NestedDirWatched(t *testing.T) {
	root, s, _ := testSyncer(t, siteFiles())
	if _, err := s.Sync(context.Background()); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	startWatch(t, s, root)

	if err := os.MkdirAll(filepath.Join(root, "guide", "deep"), 0o755); err != nil {
		t.Fatal(err)
	}
	time.Sleep(100 * time.Millisecond)
	testutil.WriteFiles(t, root, map[string]string{"guide/deep/_page.yaml": "title: Deep"})

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		r, err := s.DB.GetPage("guide/deep")
		return err == nil && r.Parent == "guide"
	}, "page in new subdir not indexed by watcher")
}

func TestWatcher_DeleteRemovesFromIndex(t *testing.T) {
	root, s, log := testSyncer(t, siteFiles())
	if _, err := s.Sync(context.Background()); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	startWatch(t, s, root)

	if err := os.RemoveAll(filepath.Join(root, "blog")); err != nil {
		t.Fatal(err)
	}

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return log.has("deleted:/blog/")
	}, "removed page not deleted from index")
}

func TestHidden(t *testing.T) {
	cases := map[string]bool{
		"/site/.git/config": true,
		"/site/a/.swp":      true,
		"/site/a/b.md":      false,
		"/site":             false,
	}
	for name, want := range cases {
		if got := hidden("/site", name); got != want {
			t.Errorf("hidden(%q) = %v, want %v", name, got, want)
		}
	}
}
