package render

import (
	"bytes"

	"gopkg.in/yaml.v3"
)

var fmDelim = []byte("---")

// stripFrontMatter drops a leading YAML mapping fenced by "---" lines from a
// markdown source, for sites whose markdown was written for generators that
// consume front matter. Anything that is not a closed, non-empty mapping
// is left alone: a leading "---" may just be a thematic break.
func stripFrontMatter(src []byte) []byte {
	rest, ok := cutDelimLine(bytes.TrimLeft(src, "\r\n"))
	if !ok {
		return src
	}
	end := bytes.Index(rest, append([]byte("\n"), fmDelim...))
	if end < 0 {
		return src
	}
	body, ok := cutDelimLine(rest[end+1:])
	if !ok {
		return src
	}

	var meta map[string]any
	if err := yaml.Unmarshal(rest[:end], &meta); err != nil || len(meta) == 0 {
		return src
	}
	return body
}

// cutDelimLine returns what follows b when b starts with a line holding only
// the delimiter.
func cutDelimLine(b []byte) ([]byte, bool) {
	if !bytes.HasPrefix(b, fmDelim) {
		return nil, false
	}
	line, after, found := bytes.Cut(b[len(fmDelim):], []byte("\n"))
	if len(bytes.TrimSpace(line)) != 0 {
		return nil, false
	}
	if !found {
		return nil, true
	}
	return after, true
}
