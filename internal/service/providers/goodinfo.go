package providers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"CBDesk/internal/domain/errs"
	"CBDesk/internal/domain/models"
	"CBDesk/internal/service/scrape"
)

const defaultGoodinfoURL = "https://goodinfo.tw"

// priceLabels are tried in order on the stock detail page.
var priceLabels = []string{"成交價", "成交"}

// Goodinfo scrapes the last price from a stock detail HTML page. The
// page covers both boards so no venue variant is needed.
type Goodinfo struct {
	base
}

func NewGoodinfo(o Options) *Goodinfo {
	return &Goodinfo{base: newBase(NameGoodinfo, defaultGoodinfoURL, o)}
}

func (g *Goodinfo) FetchSpot(ctx context.Context, id string) (*models.SpotQuote, error) {
	body, hdr, err := g.get(ctx, "", g.baseURL+"/tw/StockDetail.asp", map[string][]string{
		"STOCK_ID": {id},
	}, map[string]string{
		"Accept":  "text/html",
		"Referer": g.baseURL + "/tw/index.asp",
	})
	if err != nil {
		return nil, err
	}

	doc, err := scrape.Document(body, hdr.Get("Content-Type"))
	if err != nil {
		return nil, errs.Unavailable(g.name, "", err)
	}

	for _, label := range priceLabels {
		raw := scrape.LabelValues(doc, label)
		if len(raw) == 0 {
			continue
		}
		var (
			prices []float64
			seen   = map[float64]bool{}
		)
		for _, r := range raw {
			if v, ok := scrape.ParsePositive(r); ok && !seen[v] {
				seen[v] = true
				prices = append(prices, v)
			}
		}
		switch len(prices) {
		case 0:
			continue
		case 1:
			return &models.SpotQuote{
				InstrumentID: id,
				Price:        prices[0],
				Source:       g.name,
				Timestamp:    g.now(),
			}, nil
		default:
			return nil, errs.Ambiguous(g.name, "", fmt.Sprintf("label %q has %d distinct values: %s", label, len(prices), joinFloats(prices)))
		}
	}
	return nil, errs.NoData(g.name, "", "price label not found")
}

func joinFloats(vs []float64) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strings.Join(parts, ", ")
}
