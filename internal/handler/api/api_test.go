package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CBDesk/internal/domain/errs"
	"CBDesk/internal/domain/models"
	"CBDesk/internal/service/ratelimit"
	"CBDesk/internal/services/valuation"
	"CBDesk/internal/usecase"
	xlogger "CBDesk/pkg/logger"
)

type stubResolver struct {
	spot    *models.SpotQuote
	terms   *models.TermsQuote
	err     error
	lastCtx context.Context
}

func (s *stubResolver) ResolveQuote(ctx context.Context, id string) (*models.SpotQuote, error) {
	s.lastCtx = ctx
	if s.err != nil {
		return nil, s.err
	}
	return s.spot, nil
}

func (s *stubResolver) ResolveTerms(ctx context.Context, id string) (*models.TermsQuote, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.terms, nil
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type appErrorBody struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Params  map[string]interface{} `json:"params"`
}

func newEcho(r *stubResolver, limiter *ratelimit.Limiter) *echo.Echo {
	log := xlogger.Nop()
	policy := valuation.DefaultPolicy()
	desk := usecase.NewValuationDesk(r, policy, time.Second, log)

	e := echo.New()
	NewValuationHandler(log, desk, policy).RegisterRoutes(e)
	NewQuotesHandler(log, r, limiter).RegisterRoutes(e)
	NewHealthHandler([]string{"yahoo"}, []string{"tpex_cb"}).RegisterRoutes(e)
	return e
}

func do(t *testing.T, e *echo.Echo, method, target, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}

func TestValuation_GetManualInputs(t *testing.T) {
	e := newEcho(&stubResolver{}, nil)
	rec, env := do(t, e, http.MethodGet, "/api/v1/valuation?conversion_price=246.6&spot=250&cb_price=150", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var ev struct {
		Report struct {
			Parity      float64 `json:"parity"`
			Premium     float64 `json:"premium"`
			PremiumBand string  `json:"premium_band"`
			Baseline    float64 `json:"baseline"`
		} `json:"report"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &ev))
	assert.InDelta(t, 101.38, ev.Report.Parity, 0.01)
	assert.InDelta(t, 47.96, ev.Report.Premium, 0.01)
	assert.Equal(t, "overheated", ev.Report.PremiumBand)
	assert.Equal(t, 100.0, ev.Report.Baseline)
}

func TestValuation_PostResolvesSpot(t *testing.T) {
	r := &stubResolver{spot: &models.SpotQuote{InstrumentID: "2330", Price: 550, Source: "yahoo"}}
	e := newEcho(r, nil)
	rec, env := do(t, e, http.MethodPost, "/api/v1/valuation", `{"instrument_id":"2330","conversion_price":500,"cb_price":120}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var ev struct {
		Resolution struct {
			Spot struct {
				Source string `json:"source"`
			} `json:"spot"`
		} `json:"resolution"`
		Report struct {
			Parity float64 `json:"parity"`
		} `json:"report"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &ev))
	assert.Equal(t, "yahoo", ev.Resolution.Spot.Source)
	assert.InDelta(t, 110.0, ev.Report.Parity, 1e-9)
}

func TestValuation_RejectsBadInput(t *testing.T) {
	e := newEcho(&stubResolver{}, nil)

	rec, _ := do(t, e, http.MethodGet, "/api/v1/valuation?conversion_price=-1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do(t, e, http.MethodGet, "/api/v1/valuation?instrument_id=TSMC", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestValuation_Reverse(t *testing.T) {
	e := newEcho(&stubResolver{}, nil)
	rec, env := do(t, e, http.MethodGet, "/api/v1/valuation/reverse?conversion_price=100&floor=100&spot=91", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp ReverseTableResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	require.Len(t, resp.Rows, 4)
	assert.Equal(t, valuation.BaselineFloor, resp.BaselineSource)
	assert.InDelta(t, 90.909, resp.Rows[0].ImpliedSpot, 0.001)
	assert.True(t, resp.Rows[0].NearSpot)
	for i := 1; i < len(resp.Rows); i++ {
		assert.Less(t, resp.Rows[i].ImpliedSpot, resp.Rows[i-1].ImpliedSpot)
	}
	require.NotNil(t, resp.AuctionStrength)
	assert.Equal(t, valuation.AuctionStrong, *resp.AuctionStrength)
}

func TestValuation_ReverseCustomAndBadRates(t *testing.T) {
	e := newEcho(&stubResolver{}, nil)
	rec, env := do(t, e, http.MethodGet, "/api/v1/valuation/reverse?conversion_price=100&rates=0.2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp ReverseTableResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	require.Len(t, resp.Rows, 1)
	assert.Equal(t, valuation.BaselineReferenceCost, resp.BaselineSource)

	rec, env = do(t, e, http.MethodGet, "/api/v1/valuation/reverse?conversion_price=100&rates=0.2,abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body []appErrorBody
	require.NoError(t, json.Unmarshal(env.Data, &body))
	assert.Equal(t, "ERR_INVALID_RATES", body[0].Code)

	rec, _ = do(t, e, http.MethodGet, "/api/v1/valuation/reverse?rates=0.2", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQuotes_Spot(t *testing.T) {
	r := &stubResolver{spot: &models.SpotQuote{InstrumentID: "2330", Price: 812, Source: "twse_mis", Venue: models.VenueTWSE}}
	e := newEcho(r, nil)

	rec, env := do(t, e, http.MethodGet, "/api/v1/quotes/2330", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var q models.SpotQuote
	require.NoError(t, json.Unmarshal(env.Data, &q))
	assert.Equal(t, 812.0, q.Price)
	assert.Equal(t, "twse_mis", q.Source)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderCacheControl))

	rec, _ = do(t, e, http.MethodGet, "/api/v1/quotes/23a0", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQuotes_ExhaustedIsNotFoundWithAttempts(t *testing.T) {
	r := &stubResolver{err: &errs.ExhaustedError{Chain: "terms", ID: "1101", Attempts: []errs.Attempt{
		{Provider: "tpex_cb", Kind: errs.KindNoData, Reason: "no table"},
		{Provider: "cb_table", Kind: errs.KindUnavailable, Reason: "503"},
	}}}
	e := newEcho(r, nil)

	rec, env := do(t, e, http.MethodGet, "/api/v1/quotes/1101/terms", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	var body []appErrorBody
	require.NoError(t, json.Unmarshal(env.Data, &body))
	require.Len(t, body, 1)
	assert.Equal(t, "ERR_NO_DATA", body[0].Code)
	assert.Equal(t, []interface{}{"tpex_cb", "cb_table"}, body[0].Params["attempted_sources"])
}

func TestQuotes_RateLimited(t *testing.T) {
	r := &stubResolver{spot: &models.SpotQuote{Price: 1}}
	e := newEcho(r, ratelimit.New(1, 0))

	rec, _ := do(t, e, http.MethodGet, "/api/v1/quotes/2330", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = do(t, e, http.MethodGet, "/api/v1/quotes/2330", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestHealth(t *testing.T) {
	e := newEcho(&stubResolver{}, nil)
	rec, env := do(t, e, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var h healthResponse
	require.NoError(t, json.Unmarshal(env.Data, &h))
	assert.Equal(t, "ok", h.Status)
	assert.Equal(t, []string{"yahoo"}, h.SpotProviders)
}

func TestToAppError(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, toAppError(errs.InvalidInput("conversion_price", 0, "must be positive")).Status)
	assert.Equal(t, http.StatusBadRequest, toAppError(errs.ErrInvalidInstrument).Status)
	assert.Equal(t, http.StatusNotFound, toAppError(errs.ErrNoDataFound).Status)
	assert.Equal(t, http.StatusGatewayTimeout, toAppError(context.DeadlineExceeded).Status)
	assert.Equal(t, http.StatusInternalServerError, toAppError(assert.AnError).Status)
}
