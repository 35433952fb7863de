package providers

import (
	"context"
	"strings"

	"CBDesk/internal/domain/errs"
	"CBDesk/internal/domain/models"
	"CBDesk/internal/service/scrape"
)

const (
	defaultTPExURL    = "https://www.tpex.org.tw"
	defaultCBTableURL = "https://goodinfo.tw"
)

// Header aliases of the convertible bond tables.
var (
	bondCodeHeaders  = []string{"債券代號", "債券代碼", "代號", "CB代號", "Bond Code", "Code"}
	bondNameHeaders  = []string{"債券簡稱", "債券名稱", "名稱", "簡稱", "Bond Name", "Name"}
	convPriceHeaders = []string{"最新轉換價格", "轉換價格", "轉換價", "轉(交)換價格", "Conversion Price"}
)

// Terms scrapes a table of convertible bonds and keeps the rows whose
// bond code starts with the underlying id.
type Terms struct {
	base
	path  string
	param string
}

// NewTPExCB reads the OTC exchange convertible bond issue page.
func NewTPExCB(o Options) *Terms {
	return &Terms{
		base:  newBase(NameTPExCB, defaultTPExURL, o),
		path:  "/web/bond/publish/convertible_bond_search/memo.php",
		param: "stk_code",
	}
}

// NewCBTable reads a third party convertible bond listing.
func NewCBTable(o Options) *Terms {
	return &Terms{
		base:  newBase(NameCBTable, defaultCBTableURL, o),
		path:  "/tw/StockIssuanceCB.asp",
		param: "STOCK_ID",
	}
}

func (p *Terms) FetchTerms(ctx context.Context, id string) (*models.TermsQuote, error) {
	body, hdr, err := p.get(ctx, "", p.baseURL+p.path, map[string][]string{
		p.param: {id},
	}, map[string]string{"Accept": "text/html"})
	if err != nil {
		return nil, err
	}

	doc, err := scrape.Document(body, hdr.Get("Content-Type"))
	if err != nil {
		return nil, errs.Unavailable(p.name, "", err)
	}

	table, cols, ok := scrape.FindTable(scrape.Tables(doc), bondCodeHeaders, convPriceHeaders)
	if !ok {
		return nil, errs.NoData(p.name, "", "no convertible bond table")
	}
	codeCol, priceCol := cols[0], cols[1]
	nameCol := table.Column(bondNameHeaders...)

	seen := map[string]bool{}
	var bonds []models.BondTerm
	for _, row := range table.Rows {
		code := scrape.Normalize(scrape.Cell(row, codeCol))
		if !strings.HasPrefix(code, id) || seen[code] {
			continue
		}
		price, ok := scrape.ParsePositive(scrape.Cell(row, priceCol))
		if !ok {
			continue
		}
		seen[code] = true
		bonds = append(bonds, models.BondTerm{
			BondCode:        code,
			BondName:        scrape.Normalize(scrape.Cell(row, nameCol)),
			ConversionPrice: price,
			Source:          p.name,
		})
	}
	if len(bonds) == 0 {
		return nil, errs.NoData(p.name, "", "no bond of "+id+" with a positive conversion price")
	}

	return &models.TermsQuote{
		InstrumentID: id,
		Bonds:        bonds,
		Source:       p.name,
		Timestamp:    p.now(),
	}, nil
}
