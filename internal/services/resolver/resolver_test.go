package resolver

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CBDesk/internal/domain/errs"
	"CBDesk/internal/domain/models"
	"CBDesk/internal/domain/repository"
	quotecache "CBDesk/internal/service/cache"
	pkgcache "CBDesk/pkg/cache"
)

type stubSpot struct {
	name  string
	calls int
	fn    func(ctx context.Context, id string) (*models.SpotQuote, error)
}

func (s *stubSpot) Name() string { return s.name }

func (s *stubSpot) FetchSpot(ctx context.Context, id string) (*models.SpotQuote, error) {
	s.calls++
	return s.fn(ctx, id)
}

type stubTerms struct {
	name  string
	calls int
	fn    func(ctx context.Context, id string) (*models.TermsQuote, error)
}

func (s *stubTerms) Name() string { return s.name }

func (s *stubTerms) FetchTerms(ctx context.Context, id string) (*models.TermsQuote, error) {
	s.calls++
	return s.fn(ctx, id)
}

func failing(err error) func(context.Context, string) (*models.SpotQuote, error) {
	return func(context.Context, string) (*models.SpotQuote, error) { return nil, err }
}

func priced(source string, price float64) func(context.Context, string) (*models.SpotQuote, error) {
	return func(_ context.Context, id string) (*models.SpotQuote, error) {
		return &models.SpotQuote{InstrumentID: id, Price: price, Source: source, Timestamp: time.Unix(1714627800, 0).UTC()}, nil
	}
}

type recordingMetrics struct {
	mu       sync.Mutex
	attempts map[string]int
	resolves map[string]int
	hits     int
	misses   int
	last     map[string]float64
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{attempts: map[string]int{}, resolves: map[string]int{}, last: map[string]float64{}}
}

func (m *recordingMetrics) RecordProviderAttempt(provider, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts[provider+"/"+outcome]++
}

func (m *recordingMetrics) RecordProviderLatency(string, float64) {}

func (m *recordingMetrics) RecordCacheHit(string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hits++
}

func (m *recordingMetrics) RecordCacheMiss(string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.misses++
}

func (m *recordingMetrics) RecordResolve(chain, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resolves[chain+"/"+outcome]++
}

func (m *recordingMetrics) RecordLastSpot(id string, price float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last[id] = price
}

func newCache(t *testing.T) *quotecache.QuoteCache {
	t.Helper()
	mem := pkgcache.NewMemoryCache()
	t.Cleanup(func() { _ = mem.Close() })
	return quotecache.NewQuoteCache(mem)
}

func TestResolveQuote_FallsThroughToThirdProvider(t *testing.T) {
	p1 := &stubSpot{name: "p1", fn: failing(errs.Unavailable("p1", "", errors.New("connection refused")))}
	p2 := &stubSpot{name: "p2", fn: failing(errs.Ambiguous("p2", "", "two prices"))}
	p3 := &stubSpot{name: "p3", fn: priced("p3", 812)}
	p4 := &stubSpot{name: "p4", fn: priced("p4", 1)}
	m := newRecordingMetrics()

	r := New(spotChain(p1, p2, p3, p4), nil, nil, WithMetrics(m))
	q, err := r.ResolveQuote(context.Background(), "2330")
	require.NoError(t, err)
	assert.Equal(t, 812.0, q.Price)
	assert.Equal(t, "p3", q.Source)
	assert.Equal(t, []int{1, 1, 1, 0}, []int{p1.calls, p2.calls, p3.calls, p4.calls})

	assert.Equal(t, 1, m.attempts["p1/unavailable"])
	assert.Equal(t, 1, m.attempts["p2/parse_ambiguous"])
	assert.Equal(t, 1, m.attempts["p3/success"])
	assert.Equal(t, 1, m.resolves["spot/success"])
	assert.Equal(t, 812.0, m.last["2330"])
}

func TestResolveQuote_ExhaustedListsEveryProvider(t *testing.T) {
	p1 := &stubSpot{name: "yahoo", fn: failing(errs.Unavailable("yahoo", ".TW", errors.New("timeout")))}
	p2 := &stubSpot{name: "twse_mis", fn: failing(errs.NoData("twse_mis", "otc", "empty msgArray"))}
	p3 := &stubSpot{name: "goodinfo", fn: failing(errs.Ambiguous("goodinfo", "", "812, 815"))}

	r := New(spotChain(p1, p2, p3), nil, nil)
	q, err := r.ResolveQuote(context.Background(), "2330")
	assert.Nil(t, q)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrNoDataFound)

	var ex *errs.ExhaustedError
	require.ErrorAs(t, err, &ex)
	assert.Equal(t, ChainSpot, ex.Chain)
	assert.Equal(t, "2330", ex.ID)
	assert.Equal(t, []string{"yahoo", "twse_mis", "goodinfo"}, ex.AttemptedSources())
	assert.Equal(t, []errs.AttemptKind{errs.KindUnavailable, errs.KindNoData, errs.KindParseAmbiguous},
		[]errs.AttemptKind{ex.Attempts[0].Kind, ex.Attempts[1].Kind, ex.Attempts[2].Kind})
	assert.Contains(t, ex.Attempts[2].Reason, "812, 815")
	assert.Empty(t, ex.Reason)
	assert.Contains(t, err.Error(), "yahoo, twse_mis, goodinfo")
}

func TestResolveQuote_CachesSuccessOnly(t *testing.T) {
	qc := newCache(t)
	fail := true
	p := &stubSpot{name: "p", fn: func(ctx context.Context, id string) (*models.SpotQuote, error) {
		if fail {
			return nil, errs.Unavailable("p", "", errors.New("503"))
		}
		return priced("p", 100)(ctx, id)
	}}
	m := newRecordingMetrics()
	r := New(spotChain(p), nil, nil, WithCache(qc), WithMetrics(m), WithCacheTTL(time.Minute))
	ctx := context.Background()

	_, err := r.ResolveQuote(ctx, "2330")
	require.Error(t, err)
	_, ok, err := qc.GetSpot(ctx, quotecache.SpotKey("2330"))
	require.NoError(t, err)
	assert.False(t, ok, "failures must not be cached")

	fail = false
	q, err := r.ResolveQuote(ctx, "2330")
	require.NoError(t, err)
	assert.Equal(t, 100.0, q.Price)

	q, err = r.ResolveQuote(ctx, "2330")
	require.NoError(t, err)
	assert.Equal(t, "p", q.Source)
	assert.Equal(t, 2, p.calls)
	assert.Equal(t, 1, m.hits)
	assert.Equal(t, 2, m.misses)
	assert.Equal(t, 1, m.resolves["spot/cache_hit"])

	// NoCache forces a refetch and refreshes the entry
	_, err = r.ResolveQuote(NoCache(ctx), "2330")
	require.NoError(t, err)
	assert.Equal(t, 3, p.calls)
}

func TestResolveQuote_RecoversProviderPanic(t *testing.T) {
	p1 := &stubSpot{name: "broken", fn: func(context.Context, string) (*models.SpotQuote, error) {
		panic("index out of range")
	}}
	p2 := &stubSpot{name: "ok", fn: priced("ok", 50)}

	q, err := New(spotChain(p1, p2), nil, nil).ResolveQuote(context.Background(), "2330")
	require.NoError(t, err)
	assert.Equal(t, "ok", q.Source)
}

func TestResolveQuote_NonPositivePriceIsNoData(t *testing.T) {
	p1 := &stubSpot{name: "zero", fn: priced("zero", 0)}
	_, err := New(spotChain(p1), nil, nil).ResolveQuote(context.Background(), "2330")

	var ex *errs.ExhaustedError
	require.ErrorAs(t, err, &ex)
	assert.Equal(t, errs.KindNoData, ex.Attempts[0].Kind)
}

func TestResolveQuote_NaNAndInfPricesAreNotCached(t *testing.T) {
	qc := newCache(t)
	for _, price := range []float64{math.NaN(), math.Inf(1)} {
		p := &stubSpot{name: "bad", fn: priced("bad", price)}
		_, err := New(spotChain(p), nil, nil, WithCache(qc)).ResolveQuote(context.Background(), "2330")

		var ex *errs.ExhaustedError
		require.ErrorAs(t, err, &ex, "price %v", price)
		assert.Equal(t, errs.KindNoData, ex.Attempts[0].Kind)
	}
	_, ok, err := qc.GetSpot(context.Background(), quotecache.SpotKey("2330"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestResolve_StampsProviderNameWhenSourceMissing(t *testing.T) {
	qc := newCache(t)
	spot := &stubSpot{name: "twse_mis", fn: priced("", 812)}
	terms := &stubTerms{name: "tpex_cb", fn: func(_ context.Context, id string) (*models.TermsQuote, error) {
		return &models.TermsQuote{
			InstrumentID: id,
			Bonds:        []models.BondTerm{{BondCode: "23301", ConversionPrice: 500}},
		}, nil
	}}
	r := New(spotChain(spot), termsChain(terms), nil, WithCache(qc))
	ctx := context.Background()

	q, err := r.ResolveQuote(ctx, "2330")
	require.NoError(t, err)
	assert.Equal(t, "twse_mis", q.Source)

	tq, err := r.ResolveTerms(ctx, "2330")
	require.NoError(t, err)
	assert.Equal(t, "tpex_cb", tq.Source)
	assert.Equal(t, "tpex_cb", tq.Bonds[0].Source)

	cached, ok, err := qc.GetSpot(ctx, quotecache.SpotKey("2330"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "twse_mis", cached.Source)
}

func TestResolveQuote_PerProviderTimeout(t *testing.T) {
	slow := &stubSpot{name: "slow", fn: func(ctx context.Context, _ string) (*models.SpotQuote, error) {
		<-ctx.Done()
		return nil, errs.Unavailable("slow", "", ctx.Err())
	}}
	fast := &stubSpot{name: "fast", fn: priced("fast", 10)}

	start := time.Now()
	q, err := New(spotChain(slow, fast), nil, nil, WithTimeout(30*time.Millisecond)).ResolveQuote(context.Background(), "2330")
	require.NoError(t, err)
	assert.Equal(t, "fast", q.Source)
	assert.Less(t, time.Since(start), time.Second)
}

func TestResolveQuote_CanceledContextStopsChain(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p1 := &stubSpot{name: "p1", fn: func(ctx context.Context, _ string) (*models.SpotQuote, error) {
		cancel()
		return nil, errs.Unavailable("p1", "", ctx.Err())
	}}
	p2 := &stubSpot{name: "p2", fn: priced("p2", 10)}

	_, err := New(spotChain(p1, p2), nil, nil).ResolveQuote(ctx, "2330")
	var ex *errs.ExhaustedError
	require.ErrorAs(t, err, &ex)
	assert.Equal(t, 0, p2.calls)
	require.Len(t, ex.Attempts, 1)
	assert.Equal(t, errs.KindCanceled, ex.Attempts[0].Kind)
	assert.Contains(t, ex.Reason, "canceled")
}

func TestResolveQuote_InvalidInstrument(t *testing.T) {
	p := &stubSpot{name: "p", fn: priced("p", 10)}
	r := New(spotChain(p), nil, nil)
	for _, id := range []string{"", "23", "2330.TW", "abcd", "1234567"} {
		_, err := r.ResolveQuote(context.Background(), id)
		assert.ErrorIs(t, err, errs.ErrInvalidInstrument, id)
	}
	assert.Equal(t, 0, p.calls)
}

func TestResolveTerms(t *testing.T) {
	qc := newCache(t)
	empty := &stubTerms{name: "tpex_cb", fn: func(context.Context, string) (*models.TermsQuote, error) {
		return &models.TermsQuote{InstrumentID: "2330"}, nil
	}}
	table := &stubTerms{name: "cb_table", fn: func(_ context.Context, id string) (*models.TermsQuote, error) {
		return &models.TermsQuote{
			InstrumentID: id,
			Source:       "cb_table",
			Bonds:        []models.BondTerm{{BondCode: "23301", BondName: "台積一", ConversionPrice: 500, Source: "cb_table"}},
		}, nil
	}}

	r := New(nil, termsChain(empty, table), nil, WithCache(qc))
	ctx := context.Background()
	q, err := r.ResolveTerms(ctx, "2330")
	require.NoError(t, err)
	assert.Equal(t, "cb_table", q.Source)
	require.Len(t, q.Bonds, 1)

	cached, ok, err := qc.GetTerms(ctx, quotecache.TermsKey("2330"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, q.Bonds, cached.Bonds)

	_, err = r.ResolveTerms(ctx, "2330")
	require.NoError(t, err)
	assert.Equal(t, 1, empty.calls)
	assert.Equal(t, 1, table.calls)
}

func TestResolveTerms_Exhausted(t *testing.T) {
	p := &stubTerms{name: "tpex_cb", fn: func(context.Context, string) (*models.TermsQuote, error) {
		return nil, errs.NoData("tpex_cb", "", "no convertible bond table")
	}}
	_, err := New(nil, termsChain(p), nil).ResolveTerms(context.Background(), "1101")

	var ex *errs.ExhaustedError
	require.ErrorAs(t, err, &ex)
	assert.Equal(t, ChainTerms, ex.Chain)
	assert.Equal(t, []string{"tpex_cb"}, ex.AttemptedSources())
}

func spotChain(ps ...*stubSpot) []repository.SpotProvider {
	out := make([]repository.SpotProvider, len(ps))
	for i, p := range ps {
		out[i] = p
	}
	return out
}

func termsChain(ps ...*stubTerms) []repository.TermsProvider {
	out := make([]repository.TermsProvider, len(ps))
	for i, p := range ps {
		out[i] = p
	}
	return out
}
