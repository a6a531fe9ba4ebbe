// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the page tree to LLM clients via stdio transport.
package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/pagetree/internal/apperr"
	"github.com/starford/pagetree/internal/pageservice"
)

// Version is reported to MCP clients.
const Version = "1.0.0"

// SearchArgs are the arguments of the search_pages tool.
type SearchArgs struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

// TreeArgs are the arguments of the get_tree tool.
type TreeArgs struct {
	URL   string `json:"url"`
	Depth int    `json:"depth"`
}

// Server wraps the MCP server with the page tools.
type Server struct {
	mcp *server.MCPServer
	svc *pageservice.Service
}

// New creates a new MCP server with all page tools registered.
func New(svc *pageservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"pagetree",
		Version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("get_page",
		mcp.WithDescription("Get a page by URL: properties, layout, extra data, ordered sub-pages and content files."),
		mcp.WithString("url", mcp.Required(), mcp.Description("Page URL, e.g. /docs/intro/ (the site root is /)")),
	), s.getPage)

	s.mcp.AddTool(mcp.NewTool("list_subpages",
		mcp.WithDescription("List the ordered sub-pages of a page."),
		mcp.WithString("url", mcp.Required(), mcp.Description("Page URL")),
	), s.listSubPages)

	s.mcp.AddTool(mcp.NewTool("render_page",
		mcp.WithDescription("Render the content files of a page to HTML, without the surrounding layout."),
		mcp.WithString("url", mcp.Required(), mcp.Description("Page URL")),
	), s.renderPage)

	s.mcp.AddTool(mcp.NewTool("search_pages",
		mcp.WithDescription("Search pages by title and content."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 20)")),
	), mcp.NewTypedToolHandler(s.searchPages))

	s.mcp.AddTool(mcp.NewTool("get_tree",
		mcp.WithDescription("Get the page tree below a URL as nested JSON."),
		mcp.WithString("url", mcp.Description("Start page URL (default /)")),
		mcp.WithNumber("depth", mcp.Description("Levels below the start page to include (0 = all)")),
	), mcp.NewTypedToolHandler(s.getTree))

	s.mcp.AddTool(mcp.NewTool("get_conventions",
		mcp.WithDescription("Describe how directories, marker files and ordering lists form the page tree."),
	), s.getConventions)

	s.mcp.AddResource(
		mcp.NewResource(ConventionsURI, "Page Tree Conventions",
			mcp.WithResourceDescription("Directory and marker file conventions of this site."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readConventionsResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) getPage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url, err := req.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	detail, err := s.svc.Detail(ctx, url)
	if err != nil {
		return lookupError(url, err), nil
	}
	return jsonResult(detail)
}

func (s *Server) listSubPages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url, err := req.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	subs, err := s.svc.SubPages(ctx, url)
	if err != nil {
		return lookupError(url, err), nil
	}
	return jsonResult(subs)
}

func (s *Server) renderPage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url, err := req.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var buf bytes.Buffer
	if err := s.svc.RenderContent(ctx, &buf, url); err != nil {
		return lookupError(url, err), nil
	}
	return mcp.NewToolResultText(buf.String()), nil
}

func (s *Server) searchPages(ctx context.Context, _ mcp.CallToolRequest, args SearchArgs) (*mcp.CallToolResult, error) {
	if args.Query == "" {
		return mcp.NewToolResultError("query is required"), nil
	}
	results, err := s.svc.Search(ctx, args.Query, args.Limit)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(results)
}

func (s *Server) getTree(ctx context.Context, _ mcp.CallToolRequest, args TreeArgs) (*mcp.CallToolResult, error) {
	url := args.URL
	if url == "" {
		url = "/"
	}
	tree, err := s.svc.Tree(ctx, url, args.Depth)
	if err != nil {
		return lookupError(url, err), nil
	}
	return jsonResult(tree)
}

func (s *Server) getConventions(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(Conventions(s.svc.Loader().Settings())), nil
}

func (s *Server) readConventionsResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      ConventionsURI,
			MIMEType: "text/markdown",
			Text:     Conventions(s.svc.Loader().Settings()),
		},
	}, nil
}

func lookupError(url string, err error) *mcp.CallToolResult {
	if errors.Is(err, apperr.ErrNotAPage) {
		return mcp.NewToolResultError(fmt.Sprintf("not a page: %s", url))
	}
	return mcp.NewToolResultError(err.Error())
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}
