// Package valuation implements the convertible-bond arithmetic: parity, premium,
// implied prices and the reverse auction table. Everything here is pure.
package valuation

import (
	"math"

	"CBDesk/internal/domain/errs"
)

// ReverseRow is one line of the reverse auction table.
type ReverseRow struct {
	Rate        float64 `json:"rate"`
	ImpliedSpot float64 `json:"implied_spot"`
	NearSpot    bool    `json:"near_spot,omitempty"`
}

// Band is a CB price range per 100 face.
type Band struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

func checkConversion(k float64) error {
	if k <= 0 || math.IsNaN(k) || math.IsInf(k, 0) {
		return errs.InvalidInput("conversion_price", k, "must be positive")
	}
	return nil
}

func checkNonNegative(field string, v float64) error {
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return errs.InvalidInput(field, v, "must be non-negative")
	}
	return nil
}

// ComputeParity returns S/K*100.
func ComputeParity(spot, conversion float64) (float64, error) {
	if err := checkConversion(conversion); err != nil {
		return 0, err
	}
	if err := checkNonNegative("spot_price", spot); err != nil {
		return 0, err
	}
	return spot / conversion * 100, nil
}

// ComputePremium returns the percentage by which cbPrice exceeds parity.
func ComputePremium(spot, conversion, cbPrice float64) (float64, error) {
	parity, err := ComputeParity(spot, conversion)
	if err != nil {
		return 0, err
	}
	if err := checkNonNegative("cb_price", cbPrice); err != nil {
		return 0, err
	}
	if parity == 0 {
		return 0, errs.InvalidInput("spot_price", spot, "parity is zero")
	}
	return (cbPrice - parity) / parity * 100, nil
}

// ImpliedTargetPrice is the spot at which cbPrice carries zero premium.
func ImpliedTargetPrice(cbPrice, conversion float64) (float64, error) {
	if err := checkConversion(conversion); err != nil {
		return 0, err
	}
	if err := checkNonNegative("cb_price", cbPrice); err != nil {
		return 0, err
	}
	return cbPrice / 100 * conversion, nil
}

// ImpliedSpotForPremium is the spot at which a CB priced at floor trades at the given premium rate.
func ImpliedSpotForPremium(conversion, floor, rate float64) (float64, error) {
	if err := checkConversion(conversion); err != nil {
		return 0, err
	}
	if err := checkNonNegative("floor", floor); err != nil {
		return 0, err
	}
	if rate <= -1 || math.IsNaN(rate) {
		return 0, errs.InvalidInput("rate", rate, "must be above -1")
	}
	return conversion * floor / (100 * (1 + rate)), nil
}

// RequiredPremiumToHold is the premium the market must pay at the current spot
// to keep the CB priced at floor.
func RequiredPremiumToHold(spot, conversion, floor float64) (float64, error) {
	parity, err := ComputeParity(spot, conversion)
	if err != nil {
		return 0, err
	}
	if err := checkNonNegative("floor", floor); err != nil {
		return 0, err
	}
	if parity == 0 {
		return 0, errs.InvalidInput("spot_price", spot, "parity is zero")
	}
	return (floor - parity) / parity * 100, nil
}

func ClassifyPremium(premium float64) PremiumBand {
	return DefaultPolicy().ClassifyPremium(premium)
}

// ClassifyPremium applies the premium cuts; each cut is an inclusive lower bound.
func (p Policy) ClassifyPremium(premium float64) PremiumBand {
	switch {
	case premium >= p.OverheatedCut:
		return Overheated
	case premium >= p.NeutralCut:
		return Neutral
	case premium >= p.CheapCut:
		return Cheap
	default:
		return NearParity
	}
}

func ClassifyParityCharacter(parity float64) ParityCharacter {
	return DefaultPolicy().ClassifyParityCharacter(parity)
}

func (p Policy) ClassifyParityCharacter(parity float64) ParityCharacter {
	switch {
	case parity > p.EquityLikeParity:
		return EquityLike
	case parity < p.BondLikeParity:
		return BondLike
	default:
		return Balanced
	}
}

// ReverseAuctionTable lists the implied spot for each rate, in input order.
// A nil rates slice uses ConventionalRates.
func ReverseAuctionTable(conversion, floor float64, rates []float64) ([]ReverseRow, error) {
	return DefaultPolicy().ReverseAuctionTable(conversion, floor, 0, rates)
}

// ReverseAuctionTable lists the implied spot for each rate and marks rows within
// NearTolerance of spot when spot is positive. A nil rates slice uses p.ReverseRates.
func (p Policy) ReverseAuctionTable(conversion, floor, spot float64, rates []float64) ([]ReverseRow, error) {
	if rates == nil {
		rates = p.ReverseRates
	}
	rows := make([]ReverseRow, 0, len(rates))
	for _, rate := range rates {
		implied, err := ImpliedSpotForPremium(conversion, floor, rate)
		if err != nil {
			return nil, err
		}
		row := ReverseRow{Rate: rate, ImpliedSpot: implied}
		if spot > 0 && math.Abs(spot-implied) < p.NearTolerance {
			row.NearSpot = true
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func ClassifyAuctionStrength(spot, conversion, floor float64) (AuctionStrength, error) {
	return DefaultPolicy().ClassifyAuctionStrength(spot, conversion, floor)
}

// ClassifyAuctionStrength is Weak below the WeakRate line, Strong at or above the
// StrongRate line and Neutral in between.
func (p Policy) ClassifyAuctionStrength(spot, conversion, floor float64) (AuctionStrength, error) {
	if err := checkNonNegative("spot_price", spot); err != nil {
		return AuctionNeutral, err
	}
	weakLine, err := ImpliedSpotForPremium(conversion, floor, p.WeakRate)
	if err != nil {
		return AuctionNeutral, err
	}
	strongLine, err := ImpliedSpotForPremium(conversion, floor, p.StrongRate)
	if err != nil {
		return AuctionNeutral, err
	}
	switch {
	case spot < weakLine:
		return AuctionWeak, nil
	case spot >= strongLine:
		return AuctionStrong, nil
	default:
		return AuctionNeutral, nil
	}
}

func FairValueBand(spot, conversion float64) (Band, error) {
	return DefaultPolicy().FairValueBand(spot, conversion)
}

// FairValueBand is the CB price range between the Cheap and Overheated cuts at the current parity.
func (p Policy) FairValueBand(spot, conversion float64) (Band, error) {
	parity, err := ComputeParity(spot, conversion)
	if err != nil {
		return Band{}, err
	}
	if parity == 0 {
		return Band{}, errs.InvalidInput("spot_price", spot, "parity is zero")
	}
	return Band{
		Low:  parity * (1 + p.CheapCut/100),
		High: parity * (1 + p.OverheatedCut/100),
	}, nil
}
