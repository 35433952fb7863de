package valuation

import (
	"fmt"

	"CBDesk/internal/domain/errs"
)

// Policy is the classification threshold table used by the engine.
// Premium cuts are in percent, auction rates are fractions.
type Policy struct {
	CheapCut      float64
	NeutralCut    float64
	OverheatedCut float64

	StrongRate float64
	WeakRate   float64

	ReverseRates  []float64
	NearTolerance float64

	BondLikeParity   float64
	EquityLikeParity float64

	// ReferenceCost is the breakeven baseline used when no auction floor is supplied.
	ReferenceCost float64
}

// ConventionalRates are the candidate premiums of the reverse auction table.
var ConventionalRates = []float64{0.10, 0.15, 0.20, 0.25}

func DefaultPolicy() Policy {
	return Policy{
		CheapCut:         5,
		NeutralCut:       10,
		OverheatedCut:    20,
		StrongRate:       0.10,
		WeakRate:         0.20,
		ReverseRates:     append([]float64(nil), ConventionalRates...),
		NearTolerance:    5,
		BondLikeParity:   90,
		EquityLikeParity: 130,
		ReferenceCost:    100,
	}
}

// Validate checks the table is ordered and usable.
func (p Policy) Validate() error {
	if !(p.CheapCut < p.NeutralCut && p.NeutralCut < p.OverheatedCut) {
		return fmt.Errorf("%w: premium cuts must ascend (cheap %g, neutral %g, overheated %g)",
			errs.ErrInvalidInput, p.CheapCut, p.NeutralCut, p.OverheatedCut)
	}
	if p.StrongRate <= -1 || p.WeakRate <= -1 || p.StrongRate >= p.WeakRate {
		return fmt.Errorf("%w: strong rate %g must be below weak rate %g and both above -1",
			errs.ErrInvalidInput, p.StrongRate, p.WeakRate)
	}
	for _, r := range p.ReverseRates {
		if r <= -1 {
			return errs.InvalidInput("reverse_rates", r, "must be above -1")
		}
	}
	if p.NearTolerance < 0 {
		return errs.InvalidInput("near_tolerance", p.NearTolerance, "must not be negative")
	}
	if p.BondLikeParity >= p.EquityLikeParity {
		return fmt.Errorf("%w: bond-like parity %g must be below equity-like parity %g",
			errs.ErrInvalidInput, p.BondLikeParity, p.EquityLikeParity)
	}
	if p.ReferenceCost <= 0 {
		return errs.InvalidInput("reference_cost", p.ReferenceCost, "must be positive")
	}
	return nil
}

