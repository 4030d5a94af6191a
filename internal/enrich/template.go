package enrich

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/sells-group/benefits-etl/internal/locate"
)

// DefaultTemplateFile is the enrichment schema document name.
const DefaultTemplateFile = "api_mock.json"

// Template is the fixed enrichment key set with default values. Every
// enrichment result carries at least these keys, even on failure. Key
// order follows the reference document so output columns stay stable.
type Template struct {
	keys     []string
	defaults map[string]string
}

// DefaultTemplate returns the built-in schema used when the reference
// document carries no sample_response object.
func DefaultTemplate() *Template {
	return &Template{
		keys: []string{"industry", "revenue", "headcount"},
		defaults: map[string]string{
			"industry":  "Unknown",
			"revenue":   "",
			"headcount": "",
		},
	}
}

// LoadTemplate reads the enrichment schema document via the finder.
// A missing document is fatal: the schema defines the output columns.
func LoadTemplate(finder *locate.Finder) (*Template, error) {
	file, err := finder.Open(DefaultTemplateFile)
	if err != nil {
		return nil, eris.Wrap(err, "enrich: open template")
	}
	defer file.Close()
	return ReadTemplate(file)
}

// ReadTemplate parses a document containing a sample_response object
// whose keys and values define the enrichment schema.
func ReadTemplate(r io.Reader) (*Template, error) {
	var doc map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, eris.Wrap(err, "enrich: decode template document")
	}

	raw, ok := doc["sample_response"]
	if !ok {
		return DefaultTemplate(), nil
	}

	t := &Template{defaults: make(map[string]string)}
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil || tok != json.Delim('{') {
		return nil, eris.New("enrich: sample_response is not an object")
	}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, eris.Wrap(err, "enrich: read template key")
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, eris.New("enrich: non-string template key")
		}
		var val any
		if err := dec.Decode(&val); err != nil {
			return nil, eris.Wrapf(err, "enrich: read template value for %q", key)
		}
		t.keys = append(t.keys, key)
		t.defaults[key] = stringify(val)
	}

	if len(t.keys) == 0 {
		return DefaultTemplate(), nil
	}
	return t, nil
}

// Keys returns the template's key set in document order.
func (t *Template) Keys() []string {
	out := make([]string, len(t.keys))
	copy(out, t.keys)
	return out
}

// Defaults returns a fresh copy of the template's default values.
func (t *Template) Defaults() map[string]string {
	out := make(map[string]string, len(t.defaults))
	for k, v := range t.defaults {
		out[k] = v
	}
	return out
}

// stringify flattens a scalar template value; null becomes the empty
// string, matching the tabular output convention.
func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}
