package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"CBDesk/internal/domain/errs"
	"CBDesk/internal/domain/models"
	"CBDesk/pkg/util"
)

const defaultTWSEMISURL = "https://mis.twse.com.tw"

var twseVenues = []venue{
	{board: models.VenueTWSE, code: "tse"},
	{board: models.VenueTPEx, code: "otc"},
}

// TWSEMIS reads the exchange's basic market information service. Fields
// are strings and "-" means no trade yet.
type TWSEMIS struct {
	base
}

func NewTWSEMIS(o Options) *TWSEMIS {
	return &TWSEMIS{base: newBase(NameTWSEMIS, defaultTWSEMISURL, o)}
}

type misResponse struct {
	MsgArray []struct {
		Code  string `json:"c"`
		Name  string `json:"n"`
		Last  string `json:"z"`
		Ask   string `json:"a"`
		Bid   string `json:"b"`
		Prev  string `json:"y"`
		TLong string `json:"tlong"`
	} `json:"msgArray"`
	RtCode    string `json:"rtcode"`
	RtMessage string `json:"rtmessage"`
}

func (t *TWSEMIS) FetchSpot(ctx context.Context, id string) (*models.SpotQuote, error) {
	return tryVenues(ctx, twseVenues, func(ctx context.Context, v venue) (*models.SpotQuote, error) {
		return t.fetch(ctx, id, v)
	})
}

func (t *TWSEMIS) fetch(ctx context.Context, id string, v venue) (*models.SpotQuote, error) {
	channel := fmt.Sprintf("%s_%s.tw", v.code, id)
	body, _, err := t.get(ctx, v.code, t.baseURL+"/stock/api/getStockInfo.jsp", map[string][]string{
		"ex_ch": {channel},
		"json":  {"1"},
		"delay": {"0"},
	}, map[string]string{
		"Accept":  "application/json",
		"Referer": t.baseURL + "/stock/index.jsp",
	})
	if err != nil {
		return nil, err
	}

	var resp misResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errs.Unavailable(t.name, v.code, fmt.Errorf("decode: %w", err))
	}
	if resp.RtCode != "" && resp.RtCode != "0000" {
		return nil, errs.Unavailable(t.name, v.code, fmt.Errorf("rtcode %s: %s", resp.RtCode, resp.RtMessage))
	}
	if len(resp.MsgArray) == 0 {
		return nil, errs.NoData(t.name, v.code, "empty msgArray")
	}

	m := resp.MsgArray[0]
	price := misPrice(m.Last)
	if price <= 0 {
		ask, bid := misPrice(firstLevel(m.Ask)), misPrice(firstLevel(m.Bid))
		if ask > 0 && bid > 0 {
			price = (ask + bid) / 2
		}
	}
	if price <= 0 {
		price = misPrice(m.Prev)
	}
	if price <= 0 {
		return nil, errs.NoData(t.name, v.code, "no trade, quote or reference price")
	}

	return &models.SpotQuote{
		InstrumentID: id,
		Price:        price,
		Source:       t.name,
		Venue:        v.board,
		Timestamp:    util.ParseTimeDefault(m.TLong, t.now()),
	}, nil
}

// firstLevel returns the best level of an "_" separated order book string.
func firstLevel(s string) string {
	lvl, _, _ := strings.Cut(s, "_")
	return lvl
}

func misPrice(s string) float64 {
	return util.ParseFloatDefault(strings.TrimSpace(s), 0)
}
