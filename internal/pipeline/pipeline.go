// Package pipeline orchestrates the incremental feed run: per-source
// filtering, normalization, identifier resolution, enrichment, and
// validation, followed by one merged, deduplicated output and a single
// state commit.
package pipeline

import (
	"context"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/benefits-etl/internal/config"
	"github.com/sells-group/benefits-etl/internal/enrich"
	"github.com/sells-group/benefits-etl/internal/incremental"
	"github.com/sells-group/benefits-etl/internal/lookup"
	"github.com/sells-group/benefits-etl/internal/model"
	"github.com/sells-group/benefits-etl/internal/normalize"
	"github.com/sells-group/benefits-etl/internal/runlog"
	"github.com/sells-group/benefits-etl/internal/sink"
	"github.com/sells-group/benefits-etl/internal/source"
	"github.com/sells-group/benefits-etl/internal/state"
	"github.com/sells-group/benefits-etl/internal/validate"
)

// Pipeline wires the run's collaborators. The enrichment cache and the
// loaded state live exactly one run; construct a fresh Pipeline per run.
type Pipeline struct {
	cfg      *config.Config
	reader   *source.Reader
	table    *lookup.Table
	enricher *enrich.Enricher
	states   *state.Store
	writer   *sink.Writer
	runLog   *runlog.Log // nil disables run history
	specs    []source.Spec
}

// New creates a Pipeline over the given collaborators.
func New(
	cfg *config.Config,
	reader *source.Reader,
	table *lookup.Table,
	enricher *enrich.Enricher,
	states *state.Store,
	writer *sink.Writer,
	runLog *runlog.Log,
	specs []source.Spec,
) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		reader:   reader,
		table:    table,
		enricher: enricher,
		states:   states,
		writer:   writer,
		runLog:   runLog,
		specs:    specs,
	}
}

// sourceResult is one source's processed output, merged after all
// sources finish.
type sourceResult struct {
	summary model.SourceSummary
	columns []string
	records []model.Record
	errors  *validate.Accumulator
}

// Run executes one full pass: every source is processed, outputs are
// written, and only then is state persisted. A failed run writes
// neither outputs nor state, so the next run re-attempts the same
// incremental window.
func (p *Pipeline) Run(ctx context.Context) (*model.RunReport, error) {
	runID := uuid.New().String()
	log := zap.L().With(zap.String("run_id", runID))

	st, status := p.states.Load()
	log.Info("pipeline: state loaded", zap.String("status", status.String()))

	if p.runLog != nil {
		if err := p.runLog.Start(ctx, runID); err != nil {
			log.Warn("pipeline: run history unavailable", zap.Error(err))
		}
	}

	results := make([]sourceResult, len(p.specs))
	g, gctx := errgroup.WithContext(ctx)
	limit := p.cfg.Pipeline.MaxConcurrentSources
	if limit <= 0 {
		limit = 1
	}
	g.SetLimit(limit)

	for i, spec := range p.specs {
		i, spec := i, spec
		g.Go(func() error {
			res, err := p.processSource(gctx, spec, st)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		p.recordFailure(ctx, runID, err)
		return nil, err
	}

	// Merge in source enumeration order: columns, valid rows, and
	// validation errors all keep that order deterministically.
	var columns []string
	seen := make(map[string]bool)
	var merged []model.Record
	errors := validate.New()
	report := &model.RunReport{RunID: runID}

	for _, res := range results {
		for _, col := range res.columns {
			if !seen[col] {
				seen[col] = true
				columns = append(columns, col)
			}
		}
		merged = append(merged, res.records...)
		errors.Merge(res.errors)
		report.Sources = append(report.Sources, res.summary)
	}
	report.ValidRows = len(merged)
	report.ErrorRows = errors.Len()
	report.CleanPath = p.writer.CleanPath()
	report.ReportPath = p.writer.ReportPath()
	report.StatePath = p.states.Path()

	if err := p.writer.WriteReport(errors.Report()); err != nil {
		p.recordFailure(ctx, runID, err)
		return nil, err
	}
	if err := p.writer.WriteClean(columns, merged); err != nil {
		p.recordFailure(ctx, runID, err)
		return nil, err
	}

	// Watermarks advance only after outputs are durably written, and
	// the whole document is committed once.
	for _, res := range results {
		if res.summary.NewHighWater != nil {
			st.Advance(res.summary.Source, *res.summary.NewHighWater)
		}
	}
	if err := p.states.Save(st); err != nil {
		p.recordFailure(ctx, runID, err)
		return nil, err
	}

	if p.runLog != nil {
		if err := p.runLog.Complete(ctx, runID, report); err != nil {
			log.Warn("pipeline: run history not updated", zap.Error(err))
		}
	}

	log.Info("pipeline: run complete",
		zap.Int("valid_rows", report.ValidRows),
		zap.Int("error_rows", report.ErrorRows),
	)
	return report, nil
}

func (p *Pipeline) recordFailure(ctx context.Context, runID string, err error) {
	if p.runLog == nil {
		return
	}
	if logErr := p.runLog.Fail(ctx, runID, err.Error()); logErr != nil {
		zap.L().Warn("pipeline: run history not updated", zap.Error(logErr))
	}
}

// processSource runs one source through the full stage chain. A feed
// that cannot be read is fatal for the run; per-row failures surface
// only as validation errors.
func (p *Pipeline) processSource(ctx context.Context, spec source.Spec, st *state.State) (sourceResult, error) {
	log := zap.L().With(zap.String("source", spec.Name))

	raw, err := p.reader.Read(ctx, spec)
	if err != nil {
		return sourceResult{}, eris.Wrapf(err, "pipeline: fetch %s", spec.Name)
	}

	dateColumn := incremental.SelectDateColumn(raw, spec.DateHints)
	admitted, newMax := incremental.Filter(raw, highWaterOf(st, spec.Name), dateColumn)

	errors := validate.New()
	hasEmail := raw.HasColumn(model.EmailColumn)

	var valid []model.Record
	for _, row := range admitted.Rows {
		rec := p.buildRecord(ctx, spec.Name, row, raw.Columns, hasEmail)

		if hasEmail && rec.Email == "" {
			errors.Add(rec.RowID, model.EmailColumn, model.ReasonInvalidOrMissingEmail)
		}
		if rec.EIN == "" {
			errors.Add(rec.RowID, model.EINColumn, model.ReasonEINInferFailed)
		}

		if (!hasEmail || rec.Email != "") && rec.EIN != "" {
			valid = append(valid, rec)
		}
	}

	deduped := dedupe(valid)

	summary := model.SourceSummary{
		Source:        spec.Name,
		InputRows:     len(raw.Rows),
		ProcessedRows: len(admitted.Rows),
		ValidRows:     len(deduped),
		DateColumn:    dateColumn,
		NewHighWater:  newMax,
	}

	log.Info("pipeline: source processed",
		zap.Int("input_rows", summary.InputRows),
		zap.Int("processed_rows", summary.ProcessedRows),
		zap.Int("valid_rows", summary.ValidRows),
		zap.String("date_column", dateColumn),
	)

	return sourceResult{
		summary: summary,
		columns: p.outputColumns(raw.Columns),
		records: deduped,
		errors:  errors,
	}, nil
}

// buildRecord normalizes one admitted row into a Record: email and EIN
// canonicalized, identifier resolved with explicit precedence, domain
// derived, and enrichment attached. The remaining feed columns pass
// through untouched.
func (p *Pipeline) buildRecord(ctx context.Context, sourceName string, row model.RawRow, columns []string, hasEmail bool) model.Record {
	rec := model.Record{
		Source: sourceName,
		RowID:  row.ID,
		Extra:  make(map[string]string, len(row.Fields)),
	}

	if hasEmail {
		rec.Email = normalize.Email(row.Fields[model.EmailColumn])
	}
	rec.EIN = p.table.Resolve(rec.Email, row.Fields[model.EINColumn])
	rec.Domain = normalize.Domain(rec.Email)
	rec.Enrichment = p.enricher.Enrich(ctx, rec.Domain).Fields

	for _, col := range columns {
		if col == model.EmailColumn || col == model.EINColumn {
			continue
		}
		rec.Extra[col] = row.Fields[col]
	}
	return rec
}

// outputColumns is one source's contribution to the clean dataset
// header: the feed's columns in file order (with company_ein appended
// when the feed lacked it), then provenance, domain, and enrichment
// columns.
func (p *Pipeline) outputColumns(feedColumns []string) []string {
	columns := make([]string, 0, len(feedColumns)+4+len(p.enricher.Template().Keys()))
	columns = append(columns, feedColumns...)

	hasEIN := false
	for _, col := range feedColumns {
		if col == model.EINColumn {
			hasEIN = true
			break
		}
	}
	if !hasEIN {
		columns = append(columns, model.EINColumn)
	}

	columns = append(columns, model.SourceColumn, model.RowIDColumn, model.DomainColumn)
	for _, key := range p.enricher.Template().Keys() {
		columns = append(columns, model.EnrichPrefix+key)
	}
	return columns
}
