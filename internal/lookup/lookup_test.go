package lookup

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRead_NormalizesKeysAndValues(t *testing.T) {
	doc := `{" Acme.COM ": "123456789", "globex.net": "98-7654321"}`
	table, err := Read(strings.NewReader(doc))
	require.NoError(t, err)

	ein, ok := table.EIN("acme.com")
	require.True(t, ok)
	assert.Equal(t, "12-3456789", ein)

	ein, ok = table.EIN("globex.net")
	require.True(t, ok)
	assert.Equal(t, "98-7654321", ein)
}

func TestRead_Malformed(t *testing.T) {
	_, err := Read(strings.NewReader("{broken"))
	assert.Error(t, err)
}

func TestResolve_ExplicitWins(t *testing.T) {
	table := NewTable(map[string]string{"acme.com": "111111111"})

	// Explicit identifier beats a conflicting lookup hit; never merged.
	got := table.Resolve("jane@acme.com", "222222222")
	assert.Equal(t, "22-2222222", got)
}

func TestResolve_InferredFromDomain(t *testing.T) {
	table := NewTable(map[string]string{"acme.com": "111111111"})
	assert.Equal(t, "11-1111111", table.Resolve("jane@acme.com", ""))
}

func TestResolve_UnknownDomain(t *testing.T) {
	table := NewTable(map[string]string{"acme.com": "111111111"})
	assert.Equal(t, "", table.Resolve("jane@globex.net", ""))
}

func TestResolve_NoEmailNoExplicit(t *testing.T) {
	table := NewTable(map[string]string{"acme.com": "111111111"})
	assert.Equal(t, "", table.Resolve("", ""))
	assert.Equal(t, "", table.Resolve("not-an-email", ""))
}

func TestResolve_ExplicitPassthroughShape(t *testing.T) {
	// A non-nine-digit explicit value still wins, passed through verbatim.
	table := NewTable(map[string]string{"acme.com": "111111111"})
	assert.Equal(t, "ABC-01", table.Resolve("jane@acme.com", " ABC-01 "))
}
