package valuation

import "CBDesk/internal/domain/errs"

// Metric names used as keys of Report.Errors.
const (
	MetricParity          = "parity"
	MetricPremium         = "premium"
	MetricImpliedSpot     = "implied_spot"
	MetricFairValue       = "fair_value"
	MetricRequiredPremium = "required_premium"
	MetricAuctionStrength = "auction_strength"
	MetricReverseTable    = "reverse_table"
)

// Baseline sources.
const (
	BaselineFloor         = "floor"
	BaselineReferenceCost = "reference_cost"
)

// Inputs to a full evaluation. A zero value means the field was not supplied.
type Inputs struct {
	ConversionPrice float64   `json:"conversion_price"`
	Floor           float64   `json:"floor"`
	Spot            float64   `json:"spot"`
	CBPrice         float64   `json:"cb_price"`
	Rates           []float64 `json:"rates,omitempty"`
}

// Report carries every metric that could be computed. Metrics that could not
// are absent and explained in Errors.
type Report struct {
	Inputs         Inputs  `json:"inputs"`
	Baseline       float64 `json:"baseline,omitempty"`
	BaselineSource string  `json:"baseline_source,omitempty"`

	Parity          *float64         `json:"parity,omitempty"`
	ParityCharacter *ParityCharacter `json:"parity_character,omitempty"`
	Premium         *float64         `json:"premium,omitempty"`
	PremiumBand     *PremiumBand     `json:"premium_band,omitempty"`
	ImpliedSpot     *float64         `json:"implied_spot,omitempty"`
	FairValue       *Band            `json:"fair_value,omitempty"`
	RequiredPremium *float64         `json:"required_premium,omitempty"`
	AuctionStrength *AuctionStrength `json:"auction_strength,omitempty"`
	ReverseTable    []ReverseRow     `json:"reverse_table,omitempty"`

	Errors map[string]string `json:"errors,omitempty"`
}

func Evaluate(in Inputs) Report {
	return DefaultPolicy().Evaluate(in)
}

// Evaluate computes each metric independently. A failure only hides the metrics
// that need the failing input.
func (p Policy) Evaluate(in Inputs) Report {
	r := Report{Inputs: in, Errors: map[string]string{}}
	fail := func(metric string, err error) { r.Errors[metric] = err.Error() }

	// A negative floor is rejected, not replaced by the reference cost.
	var floorErr error
	switch {
	case in.Floor < 0:
		floorErr = errs.InvalidInput("floor", in.Floor, "must be non-negative")
	case in.Floor == 0:
		r.Baseline, r.BaselineSource = p.ReferenceCost, BaselineReferenceCost
	default:
		r.Baseline, r.BaselineSource = in.Floor, BaselineFloor
	}

	k := input{"conversion_price", in.ConversionPrice}
	spot := input{"spot_price", in.Spot}
	cb := input{"cb_price", in.CBPrice}

	if err := supplied(k, spot); err != nil {
		fail(MetricParity, err)
	} else if parity, err := ComputeParity(in.Spot, in.ConversionPrice); err != nil {
		fail(MetricParity, err)
	} else {
		c := p.ClassifyParityCharacter(parity)
		r.Parity, r.ParityCharacter = &parity, &c
	}

	if err := supplied(k, spot, cb); err != nil {
		fail(MetricPremium, err)
	} else if premium, err := ComputePremium(in.Spot, in.ConversionPrice, in.CBPrice); err != nil {
		fail(MetricPremium, err)
	} else {
		b := p.ClassifyPremium(premium)
		r.Premium, r.PremiumBand = &premium, &b
	}

	if err := supplied(k, cb); err != nil {
		fail(MetricImpliedSpot, err)
	} else if implied, err := ImpliedTargetPrice(in.CBPrice, in.ConversionPrice); err != nil {
		fail(MetricImpliedSpot, err)
	} else {
		r.ImpliedSpot = &implied
	}

	if err := supplied(k, spot); err != nil {
		fail(MetricFairValue, err)
	} else if band, err := p.FairValueBand(in.Spot, in.ConversionPrice); err != nil {
		fail(MetricFairValue, err)
	} else {
		r.FairValue = &band
	}

	if floorErr != nil {
		fail(MetricRequiredPremium, floorErr)
		fail(MetricAuctionStrength, floorErr)
	} else if err := supplied(k, spot); err != nil {
		fail(MetricRequiredPremium, err)
		fail(MetricAuctionStrength, err)
	} else {
		if req, err := RequiredPremiumToHold(in.Spot, in.ConversionPrice, r.Baseline); err != nil {
			fail(MetricRequiredPremium, err)
		} else {
			r.RequiredPremium = &req
		}
		if s, err := p.ClassifyAuctionStrength(in.Spot, in.ConversionPrice, r.Baseline); err != nil {
			fail(MetricAuctionStrength, err)
		} else {
			r.AuctionStrength = &s
		}
	}

	if floorErr != nil {
		fail(MetricReverseTable, floorErr)
	} else if err := supplied(k); err != nil {
		fail(MetricReverseTable, err)
	} else if rows, err := p.ReverseAuctionTable(in.ConversionPrice, r.Baseline, in.Spot, in.Rates); err != nil {
		fail(MetricReverseTable, err)
	} else {
		r.ReverseTable = rows
	}

	if len(r.Errors) == 0 {
		r.Errors = nil
	}
	return r
}

type input struct {
	name  string
	value float64
}

// supplied reports the first input left at zero.
func supplied(fields ...input) error {
	for _, f := range fields {
		if f.value == 0 {
			return errs.InvalidInput(f.name, 0, "not supplied")
		}
	}
	return nil
}
