package service

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Source supplies one statement document. Open is called once, when the document is parsed.
type Source struct {
	Name string
	Open func() (io.ReadCloser, error)
}

// FileSource reads the document at path.
func FileSource(path string) Source {
	return Source{
		Name: filepath.Base(path),
		Open: func() (io.ReadCloser, error) { return os.Open(path) },
	}
}

// BytesSource serves an in-memory document.
func BytesSource(name string, data []byte) Source {
	return Source{
		Name: name,
		Open: func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(data)), nil },
	}
}

// IsStatementFile reports whether name has a statement document extension (.pdf or .txt).
func IsStatementFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".pdf" || ext == ".txt"
}

// FileSources lists the statement documents directly inside dir, ordered by name.
func FileSources(dir string) ([]Source, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading statements directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && IsStatementFile(e.Name()) {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)

	sources := make([]Source, 0, len(names))
	for _, name := range names {
		sources = append(sources, FileSource(filepath.Join(dir, name)))
	}
	return sources, nil
}
