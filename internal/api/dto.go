package api

import (
	"github.com/starford/pagetree/internal/index"
	"github.com/starford/pagetree/internal/pageservice"
)

// PageDetail is the response of GET /api/pages/{url}.
type PageDetail = pageservice.PageDetail

// TreeNode is one node of the GET /api/tree response.
type TreeNode = pageservice.TreeNode

// SearchResponse wraps search results.
type SearchResponse struct {
	Query   string               `json:"query"`
	Results []index.SearchResult `json:"results"`
}
