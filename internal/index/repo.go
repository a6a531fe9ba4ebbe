package index

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/starford/pagetree/internal/apperr"
)

// PageRow is one indexed page. Parent is the source path of the parent page
// and empty for the root; Position is the index among its siblings.
type PageRow struct {
	Path      string    `json:"path"`
	URL       string    `json:"url"`
	Title     string    `json:"title"`
	Parent    string    `json:"parent,omitempty"`
	Position  int       `json:"position"`
	Depth     int       `json:"depth"`
	Checksum  string    `json:"-"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SearchResult represents one search hit.
type SearchResult struct {
	Path    string `json:"path"`
	URL     string `json:"url"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

const pageColumns = `path, url, title, parent, position, depth, checksum, updated_at`

// UpsertPage inserts or replaces a page and its FTS entry within a transaction.
func (db *DB) UpsertPage(r PageRow, body string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if r.UpdatedAt.IsZero() {
		r.UpdatedAt = time.Now().UTC()
	}
	_, err = tx.Exec(`
		INSERT INTO pages (path, url, title, parent, position, depth, checksum, body, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			url        = excluded.url,
			title      = excluded.title,
			parent     = excluded.parent,
			position   = excluded.position,
			depth      = excluded.depth,
			checksum   = excluded.checksum,
			body       = excluded.body,
			updated_at = excluded.updated_at
	`, r.Path, r.URL, r.Title, r.Parent, r.Position, r.Depth, r.Checksum, body, r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert page: %w", err)
	}

	// No-op when the FTS5 tag is absent.
	if err := ftsUpsert(tx, r.Path, r.Title, body); err != nil {
		return err
	}
	return tx.Commit()
}

// DeletePage removes a page and its FTS entry.
func (db *DB) DeletePage(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, path)
	if _, err := tx.Exec(`DELETE FROM pages WHERE path = ?`, path); err != nil {
		return fmt.Errorf("index: delete page: %w", err)
	}
	return tx.Commit()
}

// GetPage returns the row stored for path.
func (db *DB) GetPage(path string) (*PageRow, error) {
	return db.getOne(`SELECT `+pageColumns+` FROM pages WHERE path = ?`, path)
}

// GetPageByURL returns the row stored for a canonical URL.
func (db *DB) GetPageByURL(url string) (*PageRow, error) {
	return db.getOne(`SELECT `+pageColumns+` FROM pages WHERE url = ?`, url)
}

func (db *DB) getOne(query string, arg string) (*PageRow, error) {
	var r PageRow
	err := db.conn.QueryRow(query, arg).Scan(
		&r.Path, &r.URL, &r.Title, &r.Parent, &r.Position, &r.Depth, &r.Checksum, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("index: page %s: %w", arg, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("index: get page: %w", err)
	}
	return &r, nil
}

// Children returns the pages directly below parent in sibling order.
func (db *DB) Children(parent string) ([]PageRow, error) {
	rows, err := db.conn.Query(`SELECT `+pageColumns+` FROM pages WHERE parent = ? ORDER BY position`, parent)
	if err != nil {
		return nil, fmt.Errorf("index: children: %w", err)
	}
	defer rows.Close()

	var out []PageRow
	for rows.Next() {
		var r PageRow
		if err := rows.Scan(&r.Path, &r.URL, &r.Title, &r.Parent, &r.Position, &r.Depth, &r.Checksum, &r.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// AllChecksums returns path -> checksum for every indexed page.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM pages`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// Count returns the number of indexed pages.
func (db *DB) Count() (int, error) {
	var n int
	if err := db.conn.QueryRow(`SELECT count(*) FROM pages`).Scan(&n); err != nil {
		return 0, fmt.Errorf("index: count: %w", err)
	}
	return n, nil
}
