package models

import (
	"regexp"
	"time"
)

var instrumentIDRe = regexp.MustCompile(`^\d{4,6}$`)

// ValidInstrumentID reports whether id is a 4 to 6 digit exchange code.
func ValidInstrumentID(id string) bool {
	return instrumentIDRe.MatchString(id)
}

// Venue identifies the market segment an instrument was quoted on.
type Venue string

const (
	VenueTWSE Venue = "twse" // listed (上市)
	VenueTPEx Venue = "tpex" // over-the-counter (上櫃)
)

// SpotQuote is a resolved spot price with provenance.
type SpotQuote struct {
	InstrumentID string    `json:"instrument_id"`
	Price        float64   `json:"price"`
	Source       string    `json:"source"`
	Venue        Venue     `json:"venue,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// BondTerm is one outstanding convertible bond series of an issuer.
type BondTerm struct {
	BondCode        string  `json:"bond_code,omitempty"`
	BondName        string  `json:"bond_name"`
	ConversionPrice float64 `json:"conversion_price"`
	Source          string  `json:"source"`
}

// TermsQuote lists the CB series found for an underlying instrument.
type TermsQuote struct {
	InstrumentID string     `json:"instrument_id"`
	Bonds        []BondTerm `json:"bonds"`
	Source       string     `json:"source"`
	Timestamp    time.Time  `json:"timestamp"`
}

// Find returns the bond with the given code, or the first bond when code is empty.
func (t *TermsQuote) Find(code string) (BondTerm, bool) {
	if t == nil || len(t.Bonds) == 0 {
		return BondTerm{}, false
	}
	if code == "" {
		return t.Bonds[0], true
	}
	for _, b := range t.Bonds {
		if b.BondCode == code {
			return b, true
		}
	}
	return BondTerm{}, false
}
