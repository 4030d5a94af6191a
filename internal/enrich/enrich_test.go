package enrich

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/benefits-etl/internal/resilience"
)

func fastRetry() resilience.RetryConfig {
	return resilience.RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
	}
}

func TestReadTemplate_SampleResponse(t *testing.T) {
	doc := `{"sample_response": {"industry": "Unknown", "revenue": null, "headcount": null, "hq_state": "TX"}}`
	tpl, err := ReadTemplate(strings.NewReader(doc))
	require.NoError(t, err)

	assert.Equal(t, []string{"industry", "revenue", "headcount", "hq_state"}, tpl.Keys())
	defaults := tpl.Defaults()
	assert.Equal(t, "Unknown", defaults["industry"])
	assert.Equal(t, "", defaults["revenue"])
	assert.Equal(t, "TX", defaults["hq_state"])
}

func TestReadTemplate_MissingSampleResponse(t *testing.T) {
	tpl, err := ReadTemplate(strings.NewReader(`{}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"industry", "revenue", "headcount"}, tpl.Keys())
	assert.Equal(t, "Unknown", tpl.Defaults()["industry"])
}

func TestReadTemplate_Malformed(t *testing.T) {
	_, err := ReadTemplate(strings.NewReader(`{broken`))
	assert.Error(t, err)
}

func TestPayload_Deterministic(t *testing.T) {
	tpl := DefaultTemplate()
	a, err := Payload("acme.com", tpl)
	require.NoError(t, err)
	b, err := Payload("acme.com", tpl)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	// "acme.com" sums to seed 771: 771%5=1, 771%7=1, 50+771%950=821.
	assert.Equal(t, "Healthcare", a["industry"])
	assert.Equal(t, "25M", a["revenue"])
	assert.Equal(t, "821", a["headcount"])
}

func TestEnrich_EmptyDomainUncached(t *testing.T) {
	e := NewEnricher(DefaultTemplate())
	res := e.Enrich(context.Background(), "")
	assert.Equal(t, OutcomeDefault, res.Outcome)
	assert.Equal(t, "Unknown", res.Fields["industry"])
	assert.Equal(t, 0, e.CacheSize())
}

func TestEnrich_CacheCoherence(t *testing.T) {
	e := NewEnricher(DefaultTemplate())

	first := e.Enrich(context.Background(), "acme.com")
	assert.Equal(t, OutcomeComputed, first.Outcome)

	second := e.Enrich(context.Background(), "acme.com")
	assert.Equal(t, OutcomeCached, second.Outcome)
	assert.Equal(t, first.Fields, second.Fields)
	assert.Equal(t, 1, e.CacheSize())
}

func TestEnrich_CallerCopyDoesNotPoisonCache(t *testing.T) {
	e := NewEnricher(DefaultTemplate())

	res := e.Enrich(context.Background(), "acme.com")
	res.Fields["industry"] = "mutated"

	again := e.Enrich(context.Background(), "acme.com")
	assert.NotEqual(t, "mutated", again.Fields["industry"])
}

func TestEnrich_FallbackNotCached(t *testing.T) {
	calls := 0
	e := NewEnricher(DefaultTemplate(),
		WithRetry(fastRetry()),
		WithCompute(func(domain string, tpl *Template) (map[string]string, error) {
			calls++
			return nil, eris.New("upstream down")
		}),
	)

	res := e.Enrich(context.Background(), "acme.com")
	assert.Equal(t, OutcomeFallback, res.Outcome)
	assert.Equal(t, "Unknown", res.Fields["industry"])
	assert.Equal(t, 3, calls)
	assert.Equal(t, 0, e.CacheSize())

	// A later call for the same domain retries from scratch.
	res = e.Enrich(context.Background(), "acme.com")
	assert.Equal(t, OutcomeFallback, res.Outcome)
	assert.Equal(t, 6, calls)
}

func TestEnrich_RetryThenSuccessCached(t *testing.T) {
	calls := 0
	e := NewEnricher(DefaultTemplate(),
		WithRetry(fastRetry()),
		WithCompute(func(domain string, tpl *Template) (map[string]string, error) {
			calls++
			if calls < 2 {
				return nil, eris.New("flaky")
			}
			return Payload(domain, tpl)
		}),
	)

	res := e.Enrich(context.Background(), "acme.com")
	assert.Equal(t, OutcomeComputed, res.Outcome)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 1, e.CacheSize())
}

func TestEnrich_ConcurrentSingleComputation(t *testing.T) {
	var computes int
	var mu sync.Mutex
	e := NewEnricher(DefaultTemplate(),
		WithCompute(func(domain string, tpl *Template) (map[string]string, error) {
			mu.Lock()
			computes++
			mu.Unlock()
			time.Sleep(5 * time.Millisecond)
			return Payload(domain, tpl)
		}),
	)

	var wg sync.WaitGroup
	results := make([]Result, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = e.Enrich(context.Background(), "acme.com")
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, computes)
	for _, res := range results {
		assert.Equal(t, results[0].Fields, res.Fields)
	}
}
