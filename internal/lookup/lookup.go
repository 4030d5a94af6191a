// Package lookup maps organization mail domains to canonical EINs and
// resolves each record's identifier with explicit-over-inferred
// precedence.
package lookup

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/benefits-etl/internal/locate"
	"github.com/sells-group/benefits-etl/internal/normalize"
)

// DefaultFile is the reference document name searched via the data roots.
const DefaultFile = "company_lookup.json"

// Table is the immutable domain-to-EIN reference, loaded once per run.
// Keys are lower-cased and trimmed; values are normalized at load time
// so lookups never miss on formatting drift.
type Table struct {
	byDomain map[string]string
}

// Load reads the reference document via the finder.
func Load(finder *locate.Finder) (*Table, error) {
	file, err := finder.Open(DefaultFile)
	if err != nil {
		return nil, eris.Wrap(err, "lookup: open reference")
	}
	defer file.Close()
	return Read(file)
}

// Read parses a flat domain-to-raw-identifier mapping.
func Read(r io.Reader) (*Table, error) {
	var raw map[string]string
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, eris.Wrap(err, "lookup: decode reference")
	}

	t := &Table{byDomain: make(map[string]string, len(raw))}
	for domain, ein := range raw {
		t.byDomain[strings.ToLower(strings.TrimSpace(domain))] = normalize.EIN(ein)
	}
	return t, nil
}

// NewTable builds a table directly from a mapping. Used by tests and by
// callers that source the reference elsewhere.
func NewTable(entries map[string]string) *Table {
	t := &Table{byDomain: make(map[string]string, len(entries))}
	for domain, ein := range entries {
		t.byDomain[strings.ToLower(strings.TrimSpace(domain))] = normalize.EIN(ein)
	}
	return t
}

// EIN returns the normalized identifier for a domain, if present.
func (t *Table) EIN(domain string) (string, bool) {
	ein, ok := t.byDomain[domain]
	return ein, ok
}

// Len returns the number of reference entries.
func (t *Table) Len() int {
	return len(t.byDomain)
}

// Resolve derives a record's canonical EIN. A non-empty explicit value
// always wins and is returned normalized; the table is never consulted
// when one exists. Otherwise the email's domain is looked up. Returns
// "" when neither path yields an identifier. Explicit and inferred
// values are never merged.
func (t *Table) Resolve(email, explicit string) string {
	if ein := normalize.EIN(explicit); ein != "" {
		return ein
	}
	domain := normalize.Domain(email)
	if domain == "" {
		return ""
	}
	if ein, ok := t.byDomain[domain]; ok {
		return ein
	}
	return ""
}
