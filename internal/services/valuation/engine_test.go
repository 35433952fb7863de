package valuation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CBDesk/internal/domain/errs"
)

func TestComputeParity(t *testing.T) {
	tests := []struct {
		name    string
		spot    float64
		k       float64
		want    float64
		wantErr bool
	}{
		{"at conversion", 100, 100, 100, false},
		{"above conversion", 250, 200, 125, false},
		{"zero spot", 0, 200, 0, false},
		{"zero conversion", 100, 0, 0, true},
		{"negative conversion", 100, -1, 0, true},
		{"negative spot", -5, 100, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeParity(tt.spot, tt.k)
			if tt.wantErr {
				assert.ErrorIs(t, err, errs.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestComputePremium(t *testing.T) {
	parity, err := ComputeParity(250, 246.6)
	require.NoError(t, err)
	assert.InDelta(t, 101.38, parity, 0.01)

	premium, err := ComputePremium(250, 246.6, 150)
	require.NoError(t, err)
	assert.InDelta(t, 47.96, premium, 0.01)
	assert.Equal(t, Overheated, ClassifyPremium(premium))

	_, err = ComputePremium(0, 246.6, 150)
	assert.ErrorIs(t, err, errs.ErrInvalidInput)

	_, err = ComputePremium(250, 0, 150)
	assert.ErrorIs(t, err, errs.ErrInvalidInput)

	below, err := ComputePremium(120, 100, 110)
	require.NoError(t, err)
	assert.InDelta(t, -8.333, below, 0.001)
}

func TestClassifyPremiumBoundaries(t *testing.T) {
	tests := []struct {
		premium float64
		want    PremiumBand
	}{
		{-12, NearParity},
		{0, NearParity},
		{4.999999, NearParity},
		{5, Cheap},
		{9.999999, Cheap},
		{10, Neutral},
		{19.999999, Neutral},
		{20, Overheated},
		{47.9, Overheated},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyPremium(tt.premium), "premium %v", tt.premium)
	}
}

func TestImpliedTargetPrice(t *testing.T) {
	got, err := ImpliedTargetPrice(120, 200)
	require.NoError(t, err)
	assert.InDelta(t, 240, got, 1e-9)

	_, err = ImpliedTargetPrice(120, 0)
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
}

func TestImpliedSpotForPremiumValidation(t *testing.T) {
	_, err := ImpliedSpotForPremium(0, 120, 0.1)
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
	_, err = ImpliedSpotForPremium(100, -1, 0.1)
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
	_, err = ImpliedSpotForPremium(100, 120, -1)
	assert.ErrorIs(t, err, errs.ErrInvalidInput)

	got, err := ImpliedSpotForPremium(100, 120, 0)
	require.NoError(t, err)
	assert.InDelta(t, 120, got, 1e-9)
}

func TestReverseAuctionTable(t *testing.T) {
	rows, err := ReverseAuctionTable(246.6, 121.8, []float64{0.10, 0.15, 0.20, 0.25})
	require.NoError(t, err)
	require.Len(t, rows, 4)

	for i := 1; i < len(rows); i++ {
		assert.Less(t, rows[i].ImpliedSpot, rows[i-1].ImpliedSpot)
	}
	assert.Equal(t, 0.20, rows[2].Rate)
	assert.InDelta(t, 250.3, rows[2].ImpliedSpot, 0.01)

	t.Run("input order preserved", func(t *testing.T) {
		rows, err := ReverseAuctionTable(246.6, 121.8, []float64{0.25, 0.10})
		require.NoError(t, err)
		assert.Equal(t, 0.25, rows[0].Rate)
		assert.Equal(t, 0.10, rows[1].Rate)
	})

	t.Run("nil rates use conventional set", func(t *testing.T) {
		rows, err := ReverseAuctionTable(246.6, 121.8, nil)
		require.NoError(t, err)
		assert.Len(t, rows, len(ConventionalRates))
	})

	t.Run("near spot marker", func(t *testing.T) {
		rows, err := DefaultPolicy().ReverseAuctionTable(246.6, 121.8, 250, nil)
		require.NoError(t, err)
		for _, r := range rows {
			assert.Equal(t, r.Rate == 0.20, r.NearSpot, "rate %v", r.Rate)
		}
	})

	t.Run("bad rate", func(t *testing.T) {
		_, err := ReverseAuctionTable(246.6, 121.8, []float64{0.1, -1.5})
		assert.ErrorIs(t, err, errs.ErrInvalidInput)
	})
}

func TestRequiredPremiumToHold(t *testing.T) {
	got, err := RequiredPremiumToHold(100, 100, 120)
	require.NoError(t, err)
	assert.InDelta(t, 20, got, 1e-9)

	_, err = RequiredPremiumToHold(0, 100, 120)
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
}

func TestClassifyAuctionStrength(t *testing.T) {
	// K=100, floor=120: weak line 100, strong line 109.0909...
	tests := []struct {
		spot float64
		want AuctionStrength
	}{
		{80, AuctionWeak},
		{99.99, AuctionWeak},
		{100.01, AuctionNeutral},
		{105, AuctionNeutral},
		{109.09, AuctionNeutral},
		{109.1, AuctionStrong},
		{130, AuctionStrong},
	}
	for _, tt := range tests {
		got, err := ClassifyAuctionStrength(tt.spot, 100, 120)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "spot %v", tt.spot)
	}

	_, err := ClassifyAuctionStrength(100, 0, 120)
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
}

func TestClassifyParityCharacter(t *testing.T) {
	assert.Equal(t, BondLike, ClassifyParityCharacter(89.9))
	assert.Equal(t, Balanced, ClassifyParityCharacter(90))
	assert.Equal(t, Balanced, ClassifyParityCharacter(130))
	assert.Equal(t, EquityLike, ClassifyParityCharacter(130.1))
}

func TestFairValueBand(t *testing.T) {
	band, err := FairValueBand(100, 100)
	require.NoError(t, err)
	assert.InDelta(t, 105, band.Low, 1e-9)
	assert.InDelta(t, 120, band.High, 1e-9)

	_, err = FairValueBand(0, 100)
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
}

func TestBandsMarshalAsText(t *testing.T) {
	b, err := json.Marshal(struct {
		P PremiumBand     `json:"p"`
		A AuctionStrength `json:"a"`
		C ParityCharacter `json:"c"`
	}{Overheated, AuctionWeak, EquityLike})
	require.NoError(t, err)
	assert.JSONEq(t, `{"p":"overheated","a":"weak","c":"equity_like"}`, string(b))

	var band PremiumBand
	require.NoError(t, band.UnmarshalText([]byte("cheap")))
	assert.Equal(t, Cheap, band)
	assert.Error(t, band.UnmarshalText([]byte("hot")))
}

func TestPolicyValidate(t *testing.T) {
	require.NoError(t, DefaultPolicy().Validate())

	p := DefaultPolicy()
	p.NeutralCut = 25
	assert.ErrorIs(t, p.Validate(), errs.ErrInvalidInput)

	p = DefaultPolicy()
	p.StrongRate, p.WeakRate = 0.2, 0.1
	assert.ErrorIs(t, p.Validate(), errs.ErrInvalidInput)

	p = DefaultPolicy()
	p.ReferenceCost = 0
	assert.ErrorIs(t, p.Validate(), errs.ErrInvalidInput)
}

func TestCustomPolicyThresholds(t *testing.T) {
	p := DefaultPolicy()
	p.CheapCut, p.NeutralCut, p.OverheatedCut = 3, 8, 15
	assert.Equal(t, Overheated, p.ClassifyPremium(15))
	assert.Equal(t, Neutral, p.ClassifyPremium(14.9))
	assert.Equal(t, Neutral, ClassifyPremium(15))
}
