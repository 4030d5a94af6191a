// Package state persists per-source high-water marks between runs.
package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/benefits-etl/internal/model"
)

// DefaultFile is the state document name under the output directory.
const DefaultFile = "state.json"

// LoadStatus reports which path Load took, so callers and tests can
// distinguish a clean load from a silently recovered one.
type LoadStatus int

const (
	// StatusLoaded means the state document was read and parsed.
	StatusLoaded LoadStatus = iota
	// StatusMissing means no state document existed (first run).
	StatusMissing
	// StatusCorrupt means the document existed but could not be parsed
	// and was treated as empty. Non-fatal: an empty state only widens
	// the next scan, it never loses output data.
	StatusCorrupt
)

func (s LoadStatus) String() string {
	switch s {
	case StatusLoaded:
		return "loaded"
	case StatusMissing:
		return "missing"
	case StatusCorrupt:
		return "corrupt"
	default:
		return "unknown"
	}
}

// State is the watermark map for all sources. A source's watermark only
// ever moves forward across runs.
type State struct {
	highWater map[string]time.Time
}

// NewState returns an empty watermark state.
func NewState() *State {
	return &State{highWater: make(map[string]time.Time)}
}

// HighWater returns the stored watermark for a source, if any.
func (s *State) HighWater(source string) (time.Time, bool) {
	t, ok := s.highWater[source]
	return t, ok
}

// Advance moves a source's watermark forward. A value at or below the
// current watermark is ignored, preserving monotonicity.
func (s *State) Advance(source string, t time.Time) {
	cur, ok := s.highWater[source]
	if ok && !t.After(cur) {
		return
	}
	s.highWater[source] = t.UTC()
}

// Sources returns the set of sources with a stored watermark.
func (s *State) Sources() []string {
	out := make([]string, 0, len(s.highWater))
	for src := range s.highWater {
		out = append(out, src)
	}
	return out
}

// document is the on-disk shape of the state file.
type document struct {
	HighWater map[string]string `json:"high_water"`
}

// Store reads and writes the persisted state document.
type Store struct {
	path string
}

// NewStore creates a Store over the given state file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the state file location.
func (st *Store) Path() string {
	return st.path
}

// Load reads the persisted state. Missing and malformed documents both
// yield an empty state; the returned status says which path ran.
// Entries whose timestamp cannot be parsed are dropped, which treats
// the affected source as a first run.
func (st *Store) Load() (*State, LoadStatus) {
	raw, err := os.ReadFile(st.path)
	if err != nil {
		if !os.IsNotExist(err) {
			zap.L().Warn("state: unreadable state file, starting empty",
				zap.String("path", st.path), zap.Error(err))
			return NewState(), StatusCorrupt
		}
		return NewState(), StatusMissing
	}

	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		zap.L().Warn("state: malformed state file, starting empty",
			zap.String("path", st.path), zap.Error(err))
		return NewState(), StatusCorrupt
	}

	s := NewState()
	for source, value := range doc.HighWater {
		t, ok := model.ParseTime(value)
		if !ok {
			zap.L().Warn("state: dropping unparseable watermark",
				zap.String("source", source), zap.String("value", value))
			continue
		}
		s.highWater[source] = t
	}
	return s, StatusLoaded
}

// Save writes the full watermark map as one document, atomically via a
// temp file and rename. Called exactly once, after outputs are durably
// written, so a mid-run failure never advances the persisted watermark.
func (st *Store) Save(s *State) error {
	doc := document{HighWater: make(map[string]string, len(s.highWater))}
	for source, t := range s.highWater {
		doc.HighWater[source] = model.FormatTime(t)
	}

	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return eris.Wrap(err, "state: marshal")
	}

	if err := os.MkdirAll(filepath.Dir(st.path), 0o755); err != nil {
		return eris.Wrap(err, "state: ensure output dir")
	}

	tmp := st.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return eris.Wrap(err, "state: write temp file")
	}
	if err := os.Rename(tmp, st.path); err != nil {
		return eris.Wrap(err, "state: rename into place")
	}
	return nil
}
