package storage

import (
	"path"
	"strings"
)

// RootPath is the relative path of the site root.
const RootPath = "."

// Join joins a relative directory and a name, cleaning the result.
func Join(dir, name string) string {
	return path.Join(dir, name)
}

// Base returns the last element of a relative path.
func Base(p string) string {
	return path.Base(p)
}

// URLFromPath converts a relative directory path to its slash-terminated URL.
func URLFromPath(p string) string {
	p = path.Clean(strings.TrimPrefix(p, "/"))
	if p == RootPath || p == "/" {
		return "/"
	}
	return "/" + p + "/"
}

// PathFromURL converts a site URL to a relative directory path. Leading ".."
// segments are dropped, so the result never leaves the root.
func PathFromURL(u string) string {
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	p := strings.TrimPrefix(path.Clean("/"+u), "/")
	if p == "" {
		return RootPath
	}
	return p
}
