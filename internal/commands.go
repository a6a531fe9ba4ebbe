package internal

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/starford/pagetree/internal/mcpserver"
	"github.com/starford/pagetree/internal/pageservice"
)

// RunTree prints the page tree below url to w, one page per line, indented
// by depth. maxDepth of zero or less prints the whole tree.
func RunTree(ctx context.Context, w io.Writer, url string, maxDepth int, opts ...Option) error {
	s, err := newApplication(opts).build(false)
	if err != nil {
		return err
	}
	defer s.Close()

	root, err := s.svc.Tree(ctx, url, maxDepth)
	if err != nil {
		return fmt.Errorf("tree %s: %w", url, err)
	}
	return printTree(w, root, 0)
}

func printTree(w io.Writer, n *pageservice.TreeNode, depth int) error {
	title := n.Title
	if title == "" {
		title = "(untitled)"
	}
	line := fmt.Sprintf("%s%s  %s", strings.Repeat("  ", depth), title, n.URL)
	if n.ResolvedURL != n.URL {
		line += " -> " + n.ResolvedURL
	}
	if _, err := fmt.Fprintln(w, line); err != nil {
		return err
	}
	for _, c := range n.Children {
		if err := printTree(w, c, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// RunMCP serves the MCP tools over stdio. The index is synced once at
// startup so search_pages can use it; stdout carries the protocol, so
// callers should pass WithLogOutput(os.Stderr).
func RunMCP(ctx context.Context, opts ...Option) error {
	s, err := newApplication(opts).build(true)
	if err != nil {
		return err
	}
	defer s.Close()

	s.initialSync(ctx)
	return mcpserver.New(s.svc).ServeStdio()
}
