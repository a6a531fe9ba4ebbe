package page

import (
	"context"
	"errors"
)

// SkipChildren may be returned by a WalkFunc to skip the sub-pages of the
// page it was called for.
var SkipChildren = errors.New("page: skip children")

// WalkFunc is called for every page in pre-order. parent is nil for the root.
type WalkFunc func(p, parent *Page, depth int) error

// Walk visits root and its descendants depth-first in resolved order.
func Walk(ctx context.Context, root *Page, fn WalkFunc) error {
	return walk(ctx, root, nil, 0, fn)
}

func walk(ctx context.Context, p, parent *Page, depth int, fn WalkFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := fn(p, parent, depth); err != nil {
		if errors.Is(err, SkipChildren) {
			return nil
		}
		return err
	}
	children, err := p.SubPages(ctx)
	if err != nil {
		return err
	}
	for _, c := range children {
		if err := walk(ctx, c, p, depth+1, fn); err != nil {
			return err
		}
	}
	return nil
}
