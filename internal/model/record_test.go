package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_Value(t *testing.T) {
	rec := Record{
		Source:     "employees",
		RowID:      "3",
		Email:      "a@x.com",
		EIN:        "12-3456789",
		Domain:     "x.com",
		Enrichment: map[string]string{"industry": "Retail", "revenue": "25M"},
		Extra:      map[string]string{"hire_date": "2024-01-01"},
	}

	assert.Equal(t, "employees", rec.Value(SourceColumn))
	assert.Equal(t, "3", rec.Value(RowIDColumn))
	assert.Equal(t, "a@x.com", rec.Value(EmailColumn))
	assert.Equal(t, "12-3456789", rec.Value(EINColumn))
	assert.Equal(t, "x.com", rec.Value(DomainColumn))
	assert.Equal(t, "Retail", rec.Value("enrich_industry"))
	assert.Equal(t, "2024-01-01", rec.Value("hire_date"))
	assert.Equal(t, "", rec.Value("no_such_column"))
}

func TestRecord_EnrichmentKeys(t *testing.T) {
	rec := Record{Enrichment: map[string]string{"revenue": "", "industry": "X", "headcount": "9"}}
	assert.Equal(t, []string{"headcount", "industry", "revenue"}, rec.EnrichmentKeys())
}

func TestRawBatch_HasColumn(t *testing.T) {
	b := RawBatch{Columns: []string{"email", "hire_date"}}
	assert.True(t, b.HasColumn("email"))
	assert.False(t, b.HasColumn("company_ein"))
}

func ts(t *testing.T, v string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, v)
	require.NoError(t, err)
	return parsed.UTC()
}

func TestParseTime_Layouts(t *testing.T) {
	cases := map[string]time.Time{
		"2024-01-02":                ts(t, "2024-01-02T00:00:00Z"),
		"2024-01-02T15:04:05Z":      ts(t, "2024-01-02T15:04:05Z"),
		"2024-01-02 15:04:05":       ts(t, "2024-01-02T15:04:05Z"),
		"01/15/2024":                ts(t, "2024-01-15T00:00:00Z"),
		"2024-01-02T10:00:00+02:00": ts(t, "2024-01-02T08:00:00Z"),
	}
	for raw, want := range cases {
		got, ok := ParseTime(raw)
		require.True(t, ok, raw)
		assert.Equal(t, want, got, raw)
	}
}

func TestParseTime_Invalid(t *testing.T) {
	for _, raw := range []string{"", "  ", "garbage", "2024-13-99"} {
		_, ok := ParseTime(raw)
		assert.False(t, ok, raw)
	}
}

func TestFormatTime(t *testing.T) {
	loc := time.FixedZone("X", 3600)
	assert.Equal(t, "2024-01-01T23:00:00Z", FormatTime(time.Date(2024, 1, 2, 0, 0, 0, 0, loc)))
}
