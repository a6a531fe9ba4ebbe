package document

import (
	"fmt"

	"github.com/starford/pagetree/internal/apperr"
)

// Extra is the free-form key/value configuration of a page. Values are what
// yaml.v3 produces: string, int, float64, bool, map[string]any, []any or nil.
type Extra map[string]any

// TypeError reports a key whose value has a different type than requested.
type TypeError struct {
	Key  string
	Want string
	Got  any
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("document: extra key %q: want %s, got %T", e.Key, e.Want, e.Got)
}

func (e *TypeError) Unwrap() error {
	return apperr.ErrTypeMismatch
}

// Lookup returns the raw value stored under key.
func (e Extra) Lookup(key string) (any, bool) {
	v, ok := e[key]
	return v, ok
}

// String returns the string stored under key.
func (e Extra) String(key string) (string, error) {
	return lookupAs[string](e, key, "string")
}

// Int returns the integer stored under key.
func (e Extra) Int(key string) (int, error) {
	return lookupAs[int](e, key, "int")
}

// Float returns the number stored under key. Integers are widened.
func (e Extra) Float(key string) (float64, error) {
	v, ok := e[key]
	if !ok {
		return 0, missing(key)
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	}
	return 0, &TypeError{Key: key, Want: "number", Got: v}
}

// Bool returns the boolean stored under key.
func (e Extra) Bool(key string) (bool, error) {
	return lookupAs[bool](e, key, "bool")
}

// Map returns the nested mapping stored under key.
func (e Extra) Map(key string) (Extra, error) {
	m, err := lookupAs[map[string]any](e, key, "mapping")
	if err != nil {
		return nil, err
	}
	return Extra(m), nil
}

// Slice returns the sequence stored under key.
func (e Extra) Slice(key string) ([]any, error) {
	return lookupAs[[]any](e, key, "sequence")
}

func lookupAs[T any](e Extra, key, want string) (T, error) {
	var zero T
	v, ok := e[key]
	if !ok {
		return zero, missing(key)
	}
	t, ok := v.(T)
	if !ok {
		return zero, &TypeError{Key: key, Want: want, Got: v}
	}
	return t, nil
}

func missing(key string) error {
	return fmt.Errorf("document: extra key %q: %w", key, apperr.ErrNotFound)
}
