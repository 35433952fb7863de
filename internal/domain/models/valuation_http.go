package models

// Requests for valuation and quote HTTP endpoints.

type ValuationRequest struct {
	ConversionPrice float64 `query:"conversion_price" json:"conversion_price" validate:"gte=0"`
	Floor           float64 `query:"floor" json:"floor" validate:"gte=0"`
	Spot            float64 `query:"spot" json:"spot" validate:"gte=0"`
	CBPrice         float64 `query:"cb_price" json:"cb_price" validate:"gte=0"`
	InstrumentID    string  `query:"instrument_id" json:"instrument_id" validate:"omitempty,numeric,min=4,max=6"`
	BondCode        string  `query:"bond_code" json:"bond_code" validate:"omitempty,numeric,min=5,max=6"`
}

type ReverseTableRequest struct {
	ConversionPrice float64 `query:"conversion_price" json:"conversion_price" validate:"gt=0"`
	Floor           float64 `query:"floor" json:"floor" validate:"gte=0"`
	Spot            float64 `query:"spot" json:"spot" validate:"gte=0"`
	Rates           string  `query:"rates" json:"rates" default:"0.10,0.15,0.20,0.25"`
}

type QuoteRequest struct {
	ID      string `param:"id" validate:"required,numeric,min=4,max=6"`
	Refresh bool   `query:"refresh"`
}
