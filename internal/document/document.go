// Package document decodes the YAML marker documents that configure a page.
package document

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/starford/pagetree/internal/apperr"
)

// ParseError reports a malformed document.
type ParseError struct {
	Name string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("document: parse %s: %v", e.Name, e.Err)
}

// Unwrap exposes both apperr.ErrParse and the underlying yaml error.
func (e *ParseError) Unwrap() []error {
	return []error{apperr.ErrParse, e.Err}
}

// Decode unmarshals text into a T. Unknown fields are ignored. An empty or
// null document yields the zero T without error.
func Decode[T any](name, text string) (T, error) {
	var out T
	if err := DecodeInto(name, text, &out); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// DecodeInto unmarshals text over the value out points to, so fields absent
// from the document keep their current values.
func DecodeInto(name, text string, out any) error {
	if err := yaml.Unmarshal([]byte(text), out); err != nil {
		return &ParseError{Name: name, Err: err}
	}
	return nil
}

// DecodeExtra unmarshals a free-form mapping. An empty or null document yields
// an empty, non-nil Extra.
func DecodeExtra(name, text string) (Extra, error) {
	m, err := Decode[map[string]any](name, text)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return Extra{}, nil
	}
	return Extra(m), nil
}
