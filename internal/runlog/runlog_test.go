package runlog

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/benefits-etl/internal/model"
)

func openLog(t *testing.T) *Log {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	require.NoError(t, l.Migrate(context.Background()))
	return l
}

func TestStartComplete(t *testing.T) {
	l := openLog(t)
	ctx := context.Background()
	runID := uuid.New().String()

	require.NoError(t, l.Start(ctx, runID))
	report := &model.RunReport{
		RunID:     runID,
		ValidRows: 4,
		ErrorRows: 2,
		Sources:   []model.SourceSummary{{Source: "employees", InputRows: 5}},
	}
	require.NoError(t, l.Complete(ctx, runID, report))

	entries, err := l.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, runID, entries[0].ID)
	assert.Equal(t, StatusComplete, entries[0].Status)
	assert.Equal(t, 4, entries[0].ValidRows)
	assert.NotNil(t, entries[0].CompletedAt)
	require.NotNil(t, entries[0].Summary)
	assert.Equal(t, "employees", entries[0].Summary.Sources[0].Source)
}

func TestFail(t *testing.T) {
	l := openLog(t)
	ctx := context.Background()
	runID := uuid.New().String()

	require.NoError(t, l.Start(ctx, runID))
	require.NoError(t, l.Fail(ctx, runID, "source employees missing"))

	entries, err := l.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, StatusFailed, entries[0].Status)
	assert.Equal(t, "source employees missing", entries[0].Error)
}

func TestList_Empty(t *testing.T) {
	l := openLog(t)
	entries, err := l.List(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
