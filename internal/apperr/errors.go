// Package apperr holds the sentinel errors shared across pagetree packages.
package apperr

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrNotAPage        = errors.New("not a page")
	ErrParse           = errors.New("malformed document")
	ErrTypeMismatch    = errors.New("type mismatch")
	ErrPathEscapesRoot = errors.New("path escapes site root")
)
