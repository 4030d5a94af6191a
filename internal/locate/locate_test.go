package locate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFind_FirstRootWins(t *testing.T) {
	rootA := t.TempDir()
	rootB := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(rootA, "feed.csv"), []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(rootB, "feed.csv"), []byte("b"), 0o644))

	f := NewFinder([]string{rootA, rootB})
	assert.Equal(t, filepath.Join(rootA, "feed.csv"), f.Find("feed.csv"))
}

func TestFind_SecondRoot(t *testing.T) {
	rootA := t.TempDir()
	rootB := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(rootB, "feed.csv"), []byte("b"), 0o644))

	f := NewFinder([]string{rootA, rootB})
	assert.Equal(t, filepath.Join(rootB, "feed.csv"), f.Find("feed.csv"))
}

func TestFind_Missing(t *testing.T) {
	f := NewFinder([]string{t.TempDir()})
	assert.Equal(t, "ghost.csv", f.Find("ghost.csv"))
}

func TestOpen_Found(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "feed.csv"), []byte("x"), 0o644))

	f := NewFinder([]string{root})
	file, err := f.Open("feed.csv")
	require.NoError(t, err)
	defer file.Close()
}

func TestOpen_MissingEverywhere(t *testing.T) {
	f := NewFinder([]string{t.TempDir()})
	_, err := f.Open("nope-really-not-here.csv")
	assert.Error(t, err)
}

func TestNewFinder_Defaults(t *testing.T) {
	f := NewFinder(nil)
	assert.Equal(t, DefaultRoots, f.roots)
}
