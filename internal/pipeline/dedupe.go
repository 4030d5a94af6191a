package pipeline

import (
	"io"
	"sort"
	"time"

	"github.com/spaolacci/murmur3"

	"github.com/sells-group/benefits-etl/internal/model"
	"github.com/sells-group/benefits-etl/internal/state"
)

// highWaterOf adapts the state map to the filter's optional watermark.
func highWaterOf(st *state.State, sourceName string) *time.Time {
	if t, ok := st.HighWater(sourceName); ok {
		return &t
	}
	return nil
}

// dedupe collapses records with identical content, keeping the first
// occurrence. Row identifiers are provenance, not content, so two rows
// that differ only in position collapse. Fingerprints bucket candidates;
// exact field equality decides.
func dedupe(records []model.Record) []model.Record {
	buckets := make(map[uint64][]int)
	out := make([]model.Record, 0, len(records))

	for i := range records {
		fp := fingerprint(&records[i])
		dup := false
		for _, j := range buckets[fp] {
			if sameContent(&out[j], &records[i]) {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		buckets[fp] = append(buckets[fp], len(out))
		out = append(out, records[i])
	}
	return out
}

// fingerprint hashes a record's content (excluding the row identifier)
// with a stable field ordering.
func fingerprint(rec *model.Record) uint64 {
	h := murmur3.New64()
	writeField(h, rec.Source)
	writeField(h, rec.Email)
	writeField(h, rec.EIN)
	writeField(h, rec.Domain)
	writePairs(h, rec.Enrichment)
	writePairs(h, rec.Extra)
	return h.Sum64()
}

func writeField(w io.Writer, v string) {
	io.WriteString(w, v)
	w.Write([]byte{0})
}

func writePairs(w io.Writer, m map[string]string) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		writeField(w, k)
		writeField(w, m[k])
	}
	w.Write([]byte{1})
}

func sameContent(a, b *model.Record) bool {
	if a.Source != b.Source || a.Email != b.Email || a.EIN != b.EIN || a.Domain != b.Domain {
		return false
	}
	return samePairs(a.Enrichment, b.Enrichment) && samePairs(a.Extra, b.Extra)
}

func samePairs(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if bv, ok := b[k]; !ok || bv != v {
			return false
		}
	}
	return true
}
