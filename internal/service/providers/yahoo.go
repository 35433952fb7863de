package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"CBDesk/internal/domain/errs"
	"CBDesk/internal/domain/models"
)

const defaultYahooURL = "https://query1.finance.yahoo.com"

var yahooVenues = []venue{
	{board: models.VenueTWSE, code: ".TW"},
	{board: models.VenueTPEx, code: ".TWO"},
}

// Yahoo reads the last traded price from the Yahoo Finance chart API,
// trying the TWSE ticker suffix before the TPEx one.
type Yahoo struct {
	base
}

func NewYahoo(o Options) *Yahoo {
	return &Yahoo{base: newBase(NameYahoo, defaultYahooURL, o)}
}

type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string  `json:"symbol"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				RegularMarketTime  int64   `json:"regularMarketTime"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (y *Yahoo) FetchSpot(ctx context.Context, id string) (*models.SpotQuote, error) {
	return tryVenues(ctx, yahooVenues, func(ctx context.Context, v venue) (*models.SpotQuote, error) {
		return y.fetch(ctx, id, v)
	})
}

func (y *Yahoo) fetch(ctx context.Context, id string, v venue) (*models.SpotQuote, error) {
	symbol := id + v.code
	u := fmt.Sprintf("%s/v8/finance/chart/%s", y.baseURL, url.PathEscape(symbol))
	body, _, err := y.get(ctx, symbol, u, map[string][]string{
		"interval": {"1d"},
		"range":    {"5d"},
	}, map[string]string{"Accept": "application/json"})
	if err != nil {
		return nil, err
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, errs.Unavailable(y.name, symbol, fmt.Errorf("decode: %w", err))
	}
	if chart.Chart.Error != nil {
		return nil, errs.NoData(y.name, symbol, chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 {
		return nil, errs.NoData(y.name, symbol, "empty result")
	}

	res := chart.Chart.Result[0]
	price, ts := res.Meta.RegularMarketPrice, res.Meta.RegularMarketTime

	// meta is missing outside trading hours for some tickers; fall back to the last close
	if price <= 0 && len(res.Indicators.Quote) > 0 {
		closes := res.Indicators.Quote[0].Close
		for i := len(closes) - 1; i >= 0; i-- {
			if closes[i] != nil && *closes[i] > 0 {
				price = *closes[i]
				if i < len(res.Timestamp) {
					ts = res.Timestamp[i]
				}
				break
			}
		}
	}
	if price <= 0 {
		return nil, errs.NoData(y.name, symbol, "no positive price")
	}

	at := y.now()
	if ts > 0 {
		at = time.Unix(ts, 0)
	}
	return &models.SpotQuote{
		InstrumentID: id,
		Price:        price,
		Source:       y.name,
		Venue:        v.board,
		Timestamp:    at,
	}, nil
}
