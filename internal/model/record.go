// Package model defines the core data types shared across the feed pipeline.
package model

import (
	"sort"
	"time"
)

// Provenance column names added to every output row.
const (
	SourceColumn = "__source__"
	RowIDColumn  = "__rowid__"
)

// Semantic feed columns recognized by the pipeline.
const (
	EmailColumn  = "email"
	EINColumn    = "company_ein"
	DomainColumn = "company_domain"
)

// EnrichPrefix prefixes every enrichment column in the clean dataset.
const EnrichPrefix = "enrich_"

// RawRow is one feed row plus its stable identifier: the string form of
// the row's position in the source file. The identifier is assigned at
// read time and survives incremental filtering, so validation errors
// always reference the original feed position.
type RawRow struct {
	ID     string
	Fields map[string]string
}

// RawBatch is one source's rows as read from the feed, before any
// pipeline stage has touched them. Columns preserves file order.
type RawBatch struct {
	Source  string
	Columns []string
	Rows    []RawRow
}

// HasColumn reports whether the feed carried the named column.
func (b *RawBatch) HasColumn(name string) bool {
	for _, c := range b.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Record is one admitted row after normalization, resolution, and
// enrichment. Email, EIN, and Domain are the typed semantic fields; an
// empty string means missing or invalid. Extra carries the feed's
// remaining columns verbatim, and Enrichment carries the template-keyed
// metadata attached by the enricher.
type Record struct {
	Source     string
	RowID      string
	Email      string
	EIN        string
	Domain     string
	Enrichment map[string]string
	Extra      map[string]string
}

// Value returns the record's value for an output column name, covering
// semantic, provenance, enrichment, and passthrough columns uniformly.
func (r *Record) Value(column string) string {
	switch column {
	case SourceColumn:
		return r.Source
	case RowIDColumn:
		return r.RowID
	case EmailColumn:
		return r.Email
	case EINColumn:
		return r.EIN
	case DomainColumn:
		return r.Domain
	}
	if v, ok := r.Enrichment[trimEnrichPrefix(column)]; ok && isEnrichColumn(column) {
		return v
	}
	return r.Extra[column]
}

func isEnrichColumn(column string) bool {
	return len(column) > len(EnrichPrefix) && column[:len(EnrichPrefix)] == EnrichPrefix
}

func trimEnrichPrefix(column string) string {
	if isEnrichColumn(column) {
		return column[len(EnrichPrefix):]
	}
	return column
}

// EnrichmentKeys returns the record's enrichment keys in sorted order.
func (r *Record) EnrichmentKeys() []string {
	keys := make([]string, 0, len(r.Enrichment))
	for k := range r.Enrichment {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ValidationError is one recorded (row, field, reason) triple. The
// collection is append-only; rows may contribute any number of errors.
type ValidationError struct {
	RowID  string `csv:"row_id"`
	Field  string `csv:"field"`
	Reason string `csv:"error_reason"`
}

// Validation error reasons.
const (
	ReasonInvalidOrMissingEmail = "invalid_or_missing_email"
	ReasonEINInferFailed        = "missing_ein_infer_failed"
)

// SourceSummary reports one source's run outcome, for observability only.
type SourceSummary struct {
	Source        string     `json:"source"`
	InputRows     int        `json:"input_rows"`
	ProcessedRows int        `json:"processed_rows"`
	ValidRows     int        `json:"valid_rows"`
	DateColumn    string     `json:"date_col,omitempty"`
	NewHighWater  *time.Time `json:"new_high_water,omitempty"`
}

// RunReport is the full outcome of one pipeline run.
type RunReport struct {
	RunID      string          `json:"run_id"`
	Sources    []SourceSummary `json:"sources"`
	ValidRows  int             `json:"valid_rows"`
	ErrorRows  int             `json:"error_rows"`
	CleanPath  string          `json:"clean_path"`
	ReportPath string          `json:"report_path"`
	StatePath  string          `json:"state_path"`
}
