// Package sink writes the pipeline's tabular outputs: the merged clean
// dataset and the validation error report.
package sink

import (
	"encoding/csv"
	"os"
	"path/filepath"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/benefits-etl/internal/model"
)

// Default output file names under the output directory.
const (
	CleanFile  = "clean_data.csv"
	ReportFile = "validation_errors.csv"
)

// Writer persists run outputs under one directory.
type Writer struct {
	dir string
}

// NewWriter creates a Writer rooted at dir, creating it if needed.
func NewWriter(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "sink: create output dir %s", dir)
	}
	return &Writer{dir: dir}, nil
}

// CleanPath returns the clean dataset location.
func (w *Writer) CleanPath() string {
	return filepath.Join(w.dir, CleanFile)
}

// ReportPath returns the validation report location.
func (w *Writer) ReportPath() string {
	return filepath.Join(w.dir, ReportFile)
}

// WriteReport writes the validation error report. The header row is
// written even when there are no errors.
func (w *Writer) WriteReport(errors []model.ValidationError) error {
	file, err := os.Create(w.ReportPath())
	if err != nil {
		return eris.Wrap(err, "sink: create validation report")
	}
	defer file.Close()

	cw := csv.NewWriter(file)
	enc := csvutil.NewEncoder(cw)
	if err := enc.EncodeHeader(model.ValidationError{}); err != nil {
		return eris.Wrap(err, "sink: encode report header")
	}
	for _, verr := range errors {
		if err := enc.Encode(verr); err != nil {
			return eris.Wrap(err, "sink: encode validation error")
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return eris.Wrap(err, "sink: flush validation report")
	}

	zap.L().Info("sink: wrote validation report",
		zap.String("path", w.ReportPath()),
		zap.Int("errors", len(errors)),
	)
	return nil
}

// WriteClean writes the merged, deduplicated dataset with the given
// column order. Written even when empty; with no columns at all the
// file is created empty.
func (w *Writer) WriteClean(columns []string, records []model.Record) error {
	file, err := os.Create(w.CleanPath())
	if err != nil {
		return eris.Wrap(err, "sink: create clean dataset")
	}
	defer file.Close()

	cw := csv.NewWriter(file)
	if len(columns) > 0 {
		if err := cw.Write(columns); err != nil {
			return eris.Wrap(err, "sink: write clean header")
		}
	}

	row := make([]string, len(columns))
	for i := range records {
		for j, col := range columns {
			row[j] = records[i].Value(col)
		}
		if err := cw.Write(row); err != nil {
			return eris.Wrap(err, "sink: write clean row")
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return eris.Wrap(err, "sink: flush clean dataset")
	}

	zap.L().Info("sink: wrote clean dataset",
		zap.String("path", w.CleanPath()),
		zap.Int("rows", len(records)),
		zap.Int("columns", len(columns)),
	)
	return nil
}
