package index

// PageIndex is the read/write surface of the page index. HTTP and MCP
// handlers depend on it rather than on *DB.
type PageIndex interface {
	UpsertPage(r PageRow, body string) error
	DeletePage(path string) error
	GetPage(path string) (*PageRow, error)
	GetPageByURL(url string) (*PageRow, error)
	Children(parent string) ([]PageRow, error)
	AllChecksums() (map[string]string, error)
	Count() (int, error)
	Search(query string, limit int) ([]SearchResult, error)
	Close() error
}

var _ PageIndex = (*DB)(nil)
