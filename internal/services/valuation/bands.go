package valuation

import "fmt"

// PremiumBand is the classification of a conversion premium.
type PremiumBand int

const (
	NearParity PremiumBand = iota
	Cheap
	Neutral
	Overheated
)

var premiumBandNames = map[PremiumBand]string{
	NearParity: "near_parity",
	Cheap:      "cheap",
	Neutral:    "neutral",
	Overheated: "overheated",
}

func (b PremiumBand) String() string {
	if s, ok := premiumBandNames[b]; ok {
		return s
	}
	return fmt.Sprintf("PremiumBand(%d)", int(b))
}

func (b PremiumBand) MarshalText() ([]byte, error) { return []byte(b.String()), nil }

func (b *PremiumBand) UnmarshalText(text []byte) error {
	for k, v := range premiumBandNames {
		if v == string(text) {
			*b = k
			return nil
		}
	}
	return fmt.Errorf("unknown premium band %q", text)
}

// AuctionStrength grades the spot price against the auction floor breakeven lines.
type AuctionStrength int

const (
	AuctionWeak AuctionStrength = iota
	AuctionNeutral
	AuctionStrong
)

var auctionStrengthNames = map[AuctionStrength]string{
	AuctionWeak:    "weak",
	AuctionNeutral: "neutral",
	AuctionStrong:  "strong",
}

func (a AuctionStrength) String() string {
	if s, ok := auctionStrengthNames[a]; ok {
		return s
	}
	return fmt.Sprintf("AuctionStrength(%d)", int(a))
}

func (a AuctionStrength) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

func (a *AuctionStrength) UnmarshalText(text []byte) error {
	for k, v := range auctionStrengthNames {
		if v == string(text) {
			*a = k
			return nil
		}
	}
	return fmt.Errorf("unknown auction strength %q", text)
}

// ParityCharacter says whether a CB trades like a bond or like the stock.
type ParityCharacter int

const (
	BondLike ParityCharacter = iota
	Balanced
	EquityLike
)

var parityCharacterNames = map[ParityCharacter]string{
	BondLike:   "bond_like",
	Balanced:   "balanced",
	EquityLike: "equity_like",
}

func (c ParityCharacter) String() string {
	if s, ok := parityCharacterNames[c]; ok {
		return s
	}
	return fmt.Sprintf("ParityCharacter(%d)", int(c))
}

func (c ParityCharacter) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *ParityCharacter) UnmarshalText(text []byte) error {
	for k, v := range parityCharacterNames {
		if v == string(text) {
			*c = k
			return nil
		}
	}
	return fmt.Errorf("unknown parity character %q", text)
}
