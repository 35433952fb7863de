package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"CBDesk/internal/domain/errs"
	"CBDesk/internal/domain/models"
	"CBDesk/internal/domain/service"
	"CBDesk/internal/services/resolver"
	"CBDesk/internal/services/valuation"
	"CBDesk/pkg/logger"
)

// ValuationDesk fills missing inputs from the quote resolver and runs the
// valuation engine on the result.
type ValuationDesk struct {
	quotes  service.QuoteResolver
	policy  valuation.Policy
	timeout time.Duration
	log     *logger.Logger
}

func NewValuationDesk(quotes service.QuoteResolver, policy valuation.Policy, timeout time.Duration, log *logger.Logger) *ValuationDesk {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if log == nil {
		log = logger.Nop()
	}
	return &ValuationDesk{quotes: quotes, policy: policy, timeout: timeout, log: log}
}

type EvaluateParams struct {
	Inputs       valuation.Inputs
	InstrumentID string
	BondCode     string
	Refresh      bool
}

// ResolutionFailure explains why a missing input could not be fetched.
type ResolutionFailure struct {
	Message  string         `json:"message"`
	Attempts []errs.Attempt `json:"attempts,omitempty"`
}

// Resolution is the provenance of every fetched input.
type Resolution struct {
	Spot   *models.SpotQuote            `json:"spot,omitempty"`
	Bond   *models.BondTerm             `json:"bond,omitempty"`
	Bonds  []models.BondTerm            `json:"bonds,omitempty"`
	Errors map[string]ResolutionFailure `json:"errors,omitempty"`
}

type Evaluation struct {
	InstrumentID string           `json:"instrument_id,omitempty"`
	Report       valuation.Report `json:"report"`
	Resolution   *Resolution      `json:"resolution,omitempty"`
	Timestamp    time.Time        `json:"timestamp"`
}

// Evaluate resolves spot and conversion price when they are missing and an
// instrument id is given, then evaluates. Resolution failures are reported in
// the result; only an invalid instrument id fails the call.
func (d *ValuationDesk) Evaluate(ctx context.Context, p EvaluateParams) (*Evaluation, error) {
	if p.InstrumentID != "" && !models.ValidInstrumentID(p.InstrumentID) {
		return nil, fmt.Errorf("%w: %q", errs.ErrInvalidInstrument, p.InstrumentID)
	}

	in := p.Inputs
	res := &Evaluation{InstrumentID: p.InstrumentID, Timestamp: time.Now()}

	needSpot := in.Spot == 0
	needTerms := in.ConversionPrice == 0
	if p.InstrumentID != "" && (needSpot || needTerms) {
		rs := d.resolve(ctx, p, needSpot, needTerms)
		if rs.Spot != nil {
			in.Spot = rs.Spot.Price
		}
		if rs.Bond != nil {
			in.ConversionPrice = rs.Bond.ConversionPrice
		}
		res.Resolution = rs
	}

	res.Report = d.policy.Evaluate(in)
	return res, nil
}

func (d *ValuationDesk) resolve(ctx context.Context, p EvaluateParams, needSpot, needTerms bool) *Resolution {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	if p.Refresh {
		ctx = resolver.NoCache(ctx)
	}

	rs := &Resolution{Errors: map[string]ResolutionFailure{}}

	type item struct {
		name string
		val  interface{}
		err  error
	}
	ch := make(chan item, 2)
	var wg sync.WaitGroup

	if needSpot {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := d.quotes.ResolveQuote(ctx, p.InstrumentID)
			ch <- item{"spot", v, err}
		}()
	}
	if needTerms {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := d.quotes.ResolveTerms(ctx, p.InstrumentID)
			ch <- item{"conversion_price", v, err}
		}()
	}

	go func() { wg.Wait(); close(ch) }()

	for it := range ch {
		if it.err != nil {
			rs.Errors[it.name] = failure(it.err)
			d.log.Warn("input resolution failed",
				logger.String("id", p.InstrumentID),
				logger.String("input", it.name),
				logger.Error(it.err),
			)
			continue
		}
		switch it.name {
		case "spot":
			rs.Spot = it.val.(*models.SpotQuote)
		case "conversion_price":
			terms := it.val.(*models.TermsQuote)
			rs.Bonds = terms.Bonds
			bond, ok := terms.Find(p.BondCode)
			if !ok {
				rs.Errors[it.name] = ResolutionFailure{
					Message: fmt.Sprintf("bond %s not listed for %s (source %s)", p.BondCode, p.InstrumentID, terms.Source),
				}
				continue
			}
			rs.Bond = &bond
		}
	}

	if len(rs.Errors) == 0 {
		rs.Errors = nil
	}
	return rs
}

func failure(err error) ResolutionFailure {
	f := ResolutionFailure{Message: err.Error()}
	var ex *errs.ExhaustedError
	if errors.As(err, &ex) {
		f.Attempts = ex.Attempts
	}
	return f
}
