// Package enrich attaches deterministic organization metadata to mail
// domains, with per-run caching and bounded retry.
package enrich

import (
	"context"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/sells-group/benefits-etl/internal/resilience"
)

// Outcome says which path produced an enrichment result.
type Outcome int

const (
	// OutcomeComputed means a fresh payload was computed and cached.
	OutcomeComputed Outcome = iota
	// OutcomeCached means a prior result for the domain was reused.
	OutcomeCached
	// OutcomeDefault means no domain was available; the template was
	// returned without caching.
	OutcomeDefault
	// OutcomeFallback means computation failed after all retries; the
	// template was returned and the failure was NOT cached, so a later
	// call for the same domain retries from scratch.
	OutcomeFallback
)

func (o Outcome) String() string {
	switch o {
	case OutcomeComputed:
		return "computed"
	case OutcomeCached:
		return "cached"
	case OutcomeDefault:
		return "default"
	case OutcomeFallback:
		return "fallback"
	default:
		return "unknown"
	}
}

// Result is one enrichment lookup's outcome. Fields always contains at
// least the template's keys.
type Result struct {
	Fields  map[string]string
	Outcome Outcome
}

var industries = []string{"Technology", "Healthcare", "Finance", "Manufacturing", "Retail"}

var revenueBands = []string{"10M", "25M", "50M", "100M", "250M", "500M", "1B+"}

// ComputeFunc produces an enrichment payload for a domain. Overridable
// for tests that exercise the retry and fallback paths.
type ComputeFunc func(domain string, template *Template) (map[string]string, error)

// Enricher caches per-domain metadata for the lifetime of one run. It
// is safe for concurrent use: concurrent calls for the same domain
// collapse into a single computation, and only successes are cached.
type Enricher struct {
	template *Template
	retry    resilience.RetryConfig
	limiter  *rate.Limiter
	compute  ComputeFunc

	mu     sync.Mutex
	cache  map[string]map[string]string
	flight singleflight.Group
}

// Option configures an Enricher.
type Option func(*Enricher)

// WithRetry overrides the retry policy.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(e *Enricher) { e.retry = cfg }
}

// WithLimiter throttles upstream computations.
func WithLimiter(l *rate.Limiter) Option {
	return func(e *Enricher) { e.limiter = l }
}

// WithCompute overrides the payload computation.
func WithCompute(fn ComputeFunc) Option {
	return func(e *Enricher) { e.compute = fn }
}

// NewEnricher creates an enricher over the given schema template.
func NewEnricher(template *Template, opts ...Option) *Enricher {
	e := &Enricher{
		template: template,
		retry:    resilience.DefaultRetryConfig(),
		limiter:  rate.NewLimiter(rate.Inf, 0),
		compute:  Payload,
		cache:    make(map[string]map[string]string),
	}
	e.retry.OnRetry = resilience.RetryLogger("enrich", "compute payload")
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Template returns the enricher's schema.
func (e *Enricher) Template() *Template {
	return e.template
}

// Enrich returns metadata for a domain. Empty domains get a template
// copy without caching. Known domains get the cached value. Fresh
// domains are computed with bounded retry; on exhaustion the template
// is returned and nothing is cached.
func (e *Enricher) Enrich(ctx context.Context, domain string) Result {
	if domain == "" {
		return Result{Fields: e.template.Defaults(), Outcome: OutcomeDefault}
	}

	if fields, ok := e.cached(domain); ok {
		return Result{Fields: fields, Outcome: OutcomeCached}
	}

	v, _, shared := e.flight.Do(domain, func() (any, error) {
		// A concurrent winner may have populated the cache while this
		// call waited on the flight.
		if fields, ok := e.cached(domain); ok {
			return Result{Fields: fields, Outcome: OutcomeCached}, nil
		}

		fields, err := resilience.DoVal(ctx, e.retry, func(ctx context.Context) (map[string]string, error) {
			if err := e.limiter.Wait(ctx); err != nil {
				return nil, err
			}
			return e.compute(domain, e.template)
		})
		if err != nil {
			return Result{Fields: e.template.Defaults(), Outcome: OutcomeFallback}, nil
		}

		e.mu.Lock()
		e.cache[domain] = fields
		e.mu.Unlock()
		return Result{Fields: copyFields(fields), Outcome: OutcomeComputed}, nil
	})

	res := v.(Result)
	if shared {
		res.Fields = copyFields(res.Fields)
	}
	return res
}

// cached returns a copy of the stored result for a domain, if any.
func (e *Enricher) cached(domain string) (map[string]string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fields, ok := e.cache[domain]
	if !ok {
		return nil, false
	}
	return copyFields(fields), true
}

// CacheSize returns the number of cached domains.
func (e *Enricher) CacheSize() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.cache)
}

// Payload derives the deterministic metadata for a domain: a stable
// seed over its characters selects the industry and revenue band and
// derives the headcount, merged over the template defaults.
func Payload(domain string, template *Template) (map[string]string, error) {
	seed := 0
	for _, r := range domain {
		seed += int(r)
	}

	out := template.Defaults()
	out["industry"] = industries[seed%len(industries)]
	out["revenue"] = revenueBands[seed%len(revenueBands)]
	out["headcount"] = strconv.Itoa(50 + seed%950)
	return out, nil
}

func copyFields(fields map[string]string) map[string]string {
	out := make(map[string]string, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}
