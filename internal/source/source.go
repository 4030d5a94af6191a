// Package source defines the feed registry and reads raw feed batches.
package source

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/benefits-etl/internal/locate"
	"github.com/sells-group/benefits-etl/internal/model"
)

// Spec describes one feed: its name, its file, and the prioritized
// date-column hints used for incremental filtering.
type Spec struct {
	Name      string
	File      string
	DateHints []string
}

// Registry returns the known feeds in their fixed enumeration order.
// Sources are always processed, and their outputs merged, in this order.
func Registry() []Spec {
	return []Spec{
		{
			Name:      "employees",
			File:      "employees_raw.csv",
			DateHints: []string{"last_updated", "updated_at", "created_at", "hire_date", "start_date"},
		},
		{
			Name:      "plans",
			File:      "plans_raw.csv",
			DateHints: []string{"last_updated", "updated_at", "start_date", "end_date"},
		},
		{
			Name:      "claims",
			File:      "claims_raw.csv",
			DateHints: []string{"last_updated", "updated_at", "service_date", "claim_date", "posted_date"},
		},
	}
}

// Reader loads feed files into raw batches.
type Reader struct {
	finder *locate.Finder
}

// NewReader creates a Reader resolving files via the finder.
func NewReader(finder *locate.Finder) *Reader {
	return &Reader{finder: finder}
}

// Read loads one feed. A feed missing from every candidate root and the
// fallback location is an error; the orchestrator treats it as fatal,
// since silently omitting a whole source would corrupt the merged
// output without record.
func (r *Reader) Read(ctx context.Context, spec Spec) (*model.RawBatch, error) {
	file, err := r.finder.Open(spec.File)
	if err != nil {
		return nil, eris.Wrapf(err, "source: %s", spec.Name)
	}
	defer file.Close()

	batch, err := ReadCSV(ctx, spec.Name, file)
	if err != nil {
		return nil, eris.Wrapf(err, "source: %s", spec.Name)
	}

	zap.L().Debug("source: read feed",
		zap.String("source", spec.Name),
		zap.Int("rows", len(batch.Rows)),
		zap.Int("columns", len(batch.Columns)),
	)
	return batch, nil
}

// ReadCSV parses a headered CSV stream into a raw batch. Short rows are
// padded with empty values; long rows keep only the headered columns.
// Each row gets its stable identifier here, from its file position.
func ReadCSV(ctx context.Context, source string, rd io.Reader) (*model.RawBatch, error) {
	reader := csv.NewReader(rd)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return &model.RawBatch{Source: source}, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "csv: read header")
	}

	batch := &model.RawBatch{Source: source, Columns: header}
	for {
		if ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "csv: cancelled")
		}
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "csv: read row %d", len(batch.Rows)+1)
		}

		fields := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(record) {
				fields[col] = record[i]
			} else {
				fields[col] = ""
			}
		}
		batch.Rows = append(batch.Rows, model.RawRow{
			ID:     strconv.Itoa(len(batch.Rows)),
			Fields: fields,
		})
	}
	return batch, nil
}
