// Package locate resolves input documents across a prioritized list of
// candidate data roots.
package locate

import (
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
)

// DefaultRoots are the directories searched for input documents, in
// priority order.
var DefaultRoots = []string{".", "./data", "/mnt/data"}

// FallbackRoot is the fixed absolute path convention tried when a file
// is absent from every candidate root.
const FallbackRoot = "/mnt/data"

// Finder resolves file names against candidate roots.
type Finder struct {
	roots []string
}

// NewFinder creates a Finder over the given roots, or DefaultRoots when
// none are supplied.
func NewFinder(roots []string) *Finder {
	if len(roots) == 0 {
		roots = DefaultRoots
	}
	return &Finder{roots: roots}
}

// Find returns the first existing path for name under the candidate
// roots. When the file exists nowhere, it returns name itself so the
// caller's open reports the underlying error.
func (f *Finder) Find(name string) string {
	for _, root := range f.roots {
		cand := filepath.Join(root, name)
		if _, err := os.Stat(cand); err == nil {
			return cand
		}
	}
	return name
}

// Open opens name from the candidate roots, retrying the fixed fallback
// root when the primary resolution does not exist. Failure after the
// fallback is the caller's to treat as fatal.
func (f *Finder) Open(name string) (*os.File, error) {
	file, err := os.Open(f.Find(name))
	if err == nil {
		return file, nil
	}
	if !os.IsNotExist(err) {
		return nil, eris.Wrapf(err, "locate: open %s", name)
	}
	file, err = os.Open(filepath.Join(FallbackRoot, name))
	if err != nil {
		return nil, eris.Wrapf(err, "locate: %s not found in roots or fallback", name)
	}
	return file, nil
}
