package page

import (
	"slices"
	"strings"

	"github.com/starford/pagetree/internal/storage"
)

// subPagePaths resolves the ordered child page directories of dir.
//
// Tokens before the ellipsis keep their position at the head, tokens after it
// are pinned to the end, and every undeclared page directory is appended to
// the head in name order. Without an ellipsis the tail stays empty.
func (l *Loader) subPagePaths(dir string, order []string) ([]string, error) {
	head := make([]string, 0, len(order))
	var tail []string
	current := &head
	seen := make(map[string]struct{}, len(order))

	for _, token := range order {
		if token == l.settings.EllipsisToken {
			current = &tail
			continue
		}
		child := storage.Join(dir, token)
		if _, dup := seen[child]; dup || !isBelow(dir, child) {
			continue
		}
		if l.store.IsDir(child) && l.IsPage(child) {
			*current = append(*current, child)
			seen[child] = struct{}{}
		}
	}

	entries, err := l.listSorted(dir)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if !e.IsDir {
			continue
		}
		child := storage.Join(dir, e.Name)
		if _, ok := seen[child]; ok {
			continue
		}
		if l.IsPage(child) {
			head = append(head, child)
		}
	}

	return append(head, tail...), nil
}

// contentFilePaths resolves the ordered content files of dir: existing files
// named in order first, then every other file in name order whose name does
// not start with the ignore prefix.
func (l *Loader) contentFilePaths(dir string, order []string) ([]string, error) {
	out := make([]string, 0, len(order))
	seen := make(map[string]struct{}, len(order))

	for _, token := range order {
		file := storage.Join(dir, token)
		if _, dup := seen[file]; dup {
			continue
		}
		if l.store.Exists(file) {
			out = append(out, file)
			seen[file] = struct{}{}
		}
	}

	entries, err := l.listSorted(dir)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.IsDir || strings.HasPrefix(e.Name, l.settings.IgnorePrefix) {
			continue
		}
		file := storage.Join(dir, e.Name)
		if _, ok := seen[file]; !ok {
			out = append(out, file)
		}
	}

	return out, nil
}

// listSorted lists dir in name order regardless of the provider's ordering.
func (l *Loader) listSorted(dir string) ([]storage.Entry, error) {
	entries, err := l.store.ListEntries(dir)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(entries, func(a, b storage.Entry) int {
		return strings.Compare(a.Name, b.Name)
	})
	return entries, nil
}

// isBelow reports whether child lies strictly inside dir. Tokens pointing at
// the page itself or outside it would make the tree cyclic.
func isBelow(dir, child string) bool {
	if child == dir || child == ".." || strings.HasPrefix(child, "../") {
		return false
	}
	if dir == storage.RootPath {
		return true
	}
	return strings.HasPrefix(child, dir+"/")
}
