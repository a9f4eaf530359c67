package mustach

import (
	"os"
	"path"
	"strings"
)

// FilePartials resolves partials from files on disk. When a partial named
// "NAME" is requested, each of Paths is searched in order for a file
// named NAME followed by any of Extensions. The zero value searches the
// current working directory for a bare file name or one of the default
// extensions.
type FilePartials struct {
	Paths      []string
	Extensions []string
	// Unsafe allows partial names to escape Paths after cleaning (e.g.
	// begin with "." or "..").
	Unsafe bool
}

// Partial implements Partialer.
func (fp *FilePartials) Partial(name string) (Value, error) {
	cleaned := name
	if !fp.Unsafe {
		cleaned = path.Clean(name)
		if strings.HasPrefix(cleaned, ".") {
			return Value{}, newError(ErrPartialNotFound)
		}
	}

	paths := fp.Paths
	if paths == nil {
		paths = []string{""}
	}
	exts := fp.Extensions
	if exts == nil {
		exts = []string{"", ".mustache", ".stache"}
	}

	for _, dir := range paths {
		for _, ext := range exts {
			data, err := os.ReadFile(path.Join(dir, cleaned+ext))
			if err == nil {
				return Value{Text: string(data)}, nil
			}
		}
	}
	return Value{}, newError(ErrPartialNotFound)
}

var _ Partialer = (*FilePartials)(nil)

// StaticPartials resolves partials from an in-memory map of name to
// template text.
type StaticPartials struct {
	Templates map[string]string
}

// Partial implements Partialer.
func (sp *StaticPartials) Partial(name string) (Value, error) {
	if sp.Templates != nil {
		if data, ok := sp.Templates[name]; ok {
			return Value{Text: data}, nil
		}
	}
	return Value{}, newError(ErrPartialNotFound)
}

var _ Partialer = (*StaticPartials)(nil)

// ErrorAs reports whether err is a *Error with the given Code, so callers
// (and tests) can branch on the closed taxonomy without type-asserting
// directly.
func ErrorAs(err error, code Code) bool {
	e, ok := err.(*Error)
	return ok && e.Code == code
}
