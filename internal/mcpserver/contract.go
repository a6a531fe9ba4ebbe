package mcpserver

import (
	"fmt"
	"strings"

	"github.com/starford/pagetree/internal/api"
	"github.com/starford/pagetree/internal/page"
)

// ConventionsURI is the resource URI of the site conventions document.
const ConventionsURI = "pagetree://conventions"

// Conventions describes how directories become pages under s, for LLM
// consumers that browse or author a site.
func Conventions(s page.Settings) string {
	return fmt.Sprintf(`# Page Tree Conventions

A directory is a **page** when it directly contains %[1]q. Directories
without it are not pages, and neither are their descendants reachable as
sub-pages of it.

## Documents

| File | Purpose |
|------|---------|
| %[1]s | Required. title, redirectUrl, subPageOrder, contentOrder |
| %[2]s | Optional. template, stylesheets, scripts, hideSubPageNav |
| %[3]s | Optional. Free-form YAML map available to templates |

Unknown keys are ignored. An empty document means all defaults.

## Sub-page order

subPageOrder lists child directory names. Names before %[4]q keep their
position at the top; names after it are pinned to the end; every other child
page is inserted where %[4]q stands, sorted by name. Without %[4]q the
remaining pages follow the listed ones.

## Content order

contentOrder lists files rendered first, in order. All other files of the
directory follow sorted by name, except files starting with %[5]q.

## URLs

The URL of a page is its directory path with a trailing slash; the site root
is "/". A non-empty redirectUrl replaces the URL in navigation and redirects
visitors.

## Reserved paths

The HTTP server answers %[6]q and everything below it with the JSON API and
event stream. A page directory named %[7]q at the site root is still indexed
and reachable here, but browsers cannot open it; rename it instead.
`, s.PropertiesFile, s.LayoutFile, s.ExtraFile, s.EllipsisToken, s.IgnorePrefix, api.Prefix+"/", strings.TrimPrefix(api.Prefix, "/"))
}
