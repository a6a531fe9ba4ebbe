package index

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/starford/pagetree/internal/checksum"
	"github.com/starford/pagetree/internal/metrics"
	"github.com/starford/pagetree/internal/page"
	"github.com/starford/pagetree/internal/storage"
)

// EventCallback is called after each index mutation made by a sync.
// kind is one of "created", "updated", "deleted"; url is the page URL.
type EventCallback func(kind string, url string)

// SyncStats summarises one sync pass.
type SyncStats struct {
	Pages   int
	Created int
	Updated int
	Deleted int
}

// Syncer brings the index in line with the page tree on disk.
type Syncer struct {
	DB       *DB
	Loader   *page.Loader
	Logger   *slog.Logger
	Recorder metrics.Recorder
	OnChange EventCallback
}

// Sync walks the page tree in a single scope:
//   - new or changed pages are upserted
//   - pages no longer reachable from the root are deleted
//
// Unreadable pages abort the pass so that the index is never pruned from a
// partial view of the tree.
func (s *Syncer) Sync(ctx context.Context) (SyncStats, error) {
	start := time.Now()
	defer func() {
		if s.Recorder != nil {
			s.Recorder.ObserveSyncDuration(time.Since(start))
		}
	}()

	var stats SyncStats
	stored, err := s.DB.AllChecksums()
	if err != nil {
		return stats, err
	}

	scope := s.Loader.NewScope()
	root, err := scope.Page(ctx, storage.RootPath)
	if err != nil {
		return stats, fmt.Errorf("index: sync: %w", err)
	}

	seen := make(map[string]struct{})
	positions := make(map[string]int)
	if root.IsPage() {
		err = page.Walk(ctx, root, func(p, parent *page.Page, depth int) error {
			// A nested subPageOrder token can reach a page twice. The first
			// visit in pre-order owns the row; later visits and their subtrees
			// are skipped so parent and position stay stable between passes.
			if _, dup := seen[p.SourcePath()]; dup {
				return page.SkipChildren
			}
			row := PageRow{Path: p.SourcePath(), URL: p.URL(), Title: p.Title(), Depth: depth}
			if parent != nil {
				row.Parent = parent.SourcePath()
				row.Position = positions[row.Parent]
				positions[row.Parent]++
			}
			seen[row.Path] = struct{}{}
			stats.Pages++

			body, err := s.body(ctx, p)
			if err != nil {
				return err
			}
			row.Checksum = rowChecksum(row, body)
			old, exists := stored[row.Path]
			if exists && old == row.Checksum {
				return nil
			}
			if err := s.DB.UpsertPage(row, body); err != nil {
				return err
			}
			kind := "updated"
			if exists {
				stats.Updated++
			} else {
				kind = "created"
				stats.Created++
			}
			s.logger().Debug("sync: indexed", slog.String("path", row.Path), slog.String("op", kind))
			s.emit(kind, row.URL)
			return nil
		})
		if err != nil {
			return stats, fmt.Errorf("index: sync: %w", err)
		}
	}

	// Remove stale entries.
	for p := range stored {
		if _, ok := seen[p]; ok {
			continue
		}
		if err := s.DB.DeletePage(p); err != nil {
			s.logger().Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			continue
		}
		stats.Deleted++
		s.logger().Debug("sync: removed stale", slog.String("path", p))
		s.emit("deleted", storage.URLFromPath(p))
	}

	return stats, nil
}

// body concatenates the text of the page's content files for search.
func (s *Syncer) body(ctx context.Context, p *page.Page) (string, error) {
	files, err := p.ContentFiles(ctx)
	if err != nil {
		return "", err
	}
	parts := make([]string, 0, len(files))
	for _, f := range files {
		text, err := s.Loader.Store().ReadText(f)
		if err != nil {
			return "", err
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, "\n"), nil
}

func (s *Syncer) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

func (s *Syncer) emit(kind, url string) {
	if s.OnChange != nil {
		s.OnChange(kind, url)
	}
}

func rowChecksum(r PageRow, body string) string {
	return checksum.Fields(r.URL, r.Title, r.Parent, strconv.Itoa(r.Position), strconv.Itoa(r.Depth), body)
}
