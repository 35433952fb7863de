package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CBDesk/internal/domain/models"
	pkgcache "CBDesk/pkg/cache"
)

func TestQuoteCache_RoundTrip(t *testing.T) {
	mem := pkgcache.NewMemoryCache()
	defer mem.Close()
	qc := NewQuoteCache(mem)
	ctx := context.Background()

	assert.Equal(t, "quote:spot:2330", SpotKey("2330"))
	assert.Equal(t, "quote:terms:2330", TermsKey("2330"))

	_, ok, err := qc.GetSpot(ctx, SpotKey("2330"))
	require.NoError(t, err)
	assert.False(t, ok)

	ts := time.Date(2024, 5, 1, 1, 30, 0, 0, time.UTC)
	require.NoError(t, qc.SetSpot(ctx, SpotKey("2330"), &models.SpotQuote{
		InstrumentID: "2330", Price: 812, Source: "twse_mis", Venue: models.VenueTWSE, Timestamp: ts,
	}, 20*time.Minute))

	spot, ok, err := qc.GetSpot(ctx, SpotKey("2330"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "twse_mis", spot.Source)
	assert.True(t, ts.Equal(spot.Timestamp))

	require.NoError(t, qc.SetTerms(ctx, TermsKey("2330"), &models.TermsQuote{
		InstrumentID: "2330",
		Source:       "tpex_cb",
		Bonds:        []models.BondTerm{{BondCode: "23301", BondName: "台積一", ConversionPrice: 500, Source: "tpex_cb"}},
	}, 20*time.Minute))

	terms, ok, err := qc.GetTerms(ctx, TermsKey("2330"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, terms.Bonds, 1)
	assert.Equal(t, 500.0, terms.Bonds[0].ConversionPrice)
}
