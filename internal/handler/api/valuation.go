package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"CBDesk/internal/domain/models"
	"CBDesk/internal/service/metrics"
	"CBDesk/internal/services/valuation"
	"CBDesk/internal/usecase"
	xhttp "CBDesk/pkg/http"
	xlogger "CBDesk/pkg/logger"
	"CBDesk/pkg/util"
)

// ValuationHandler serves the calculator endpoints.
type ValuationHandler struct {
	logger *xlogger.Logger
	desk   *usecase.ValuationDesk
	policy valuation.Policy
}

func NewValuationHandler(logger *xlogger.Logger, desk *usecase.ValuationDesk, policy valuation.Policy) *ValuationHandler {
	metrics.Register()
	return &ValuationHandler{logger: logger, desk: desk, policy: policy}
}

func (h *ValuationHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/v1/valuation")
	g.GET("", h.Evaluate)
	g.POST("", h.Evaluate)
	g.GET("/reverse", h.Reverse)
}

// Evaluate runs a full evaluation. Missing spot or conversion price is
// resolved when instrument_id is given.
func (h *ValuationHandler) Evaluate(c echo.Context) error {
	const endpoint = "valuation"
	start := time.Now()
	defer func() { metrics.EndpointLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.ValuationRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		metrics.EndpointErrors.WithLabelValues(endpoint, "ERR_VALIDATION").Inc()
		return xhttp.BadRequestResponse(c, verr)
	}

	ev, err := h.desk.Evaluate(c.Request().Context(), usecase.EvaluateParams{
		Inputs: valuation.Inputs{
			ConversionPrice: req.ConversionPrice,
			Floor:           req.Floor,
			Spot:            req.Spot,
			CBPrice:         req.CBPrice,
		},
		InstrumentID: req.InstrumentID,
		BondCode:     req.BondCode,
	})
	if err != nil {
		return h.fail(c, endpoint, err)
	}

	if ev.Report.PremiumBand != nil {
		metrics.PremiumBands.WithLabelValues(ev.Report.PremiumBand.String()).Inc()
	}
	return xhttp.SuccessResponse(c, ev)
}

// ReverseTableResponse is the breakeven view of a reverse table request.
type ReverseTableResponse struct {
	ConversionPrice float64                    `json:"conversion_price"`
	Baseline        float64                    `json:"baseline"`
	BaselineSource  string                     `json:"baseline_source"`
	Spot            float64                    `json:"spot,omitempty"`
	Rows            []valuation.ReverseRow     `json:"rows"`
	RequiredPremium *float64                   `json:"required_premium,omitempty"`
	AuctionStrength *valuation.AuctionStrength `json:"auction_strength,omitempty"`
}

// Reverse returns the implied spot for each candidate auction premium.
func (h *ValuationHandler) Reverse(c echo.Context) error {
	const endpoint = "valuation_reverse"
	start := time.Now()
	defer func() { metrics.EndpointLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.ReverseTableRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		metrics.EndpointErrors.WithLabelValues(endpoint, "ERR_VALIDATION").Inc()
		return xhttp.BadRequestResponse(c, verr)
	}
	rates, err := util.SplitFloats(req.Rates)
	if err != nil {
		return h.fail(c, endpoint, xhttp.NewAppError("ERR_INVALID_RATES", "rates", err.Error(), http.StatusBadRequest))
	}

	r := h.policy.Evaluate(valuation.Inputs{
		ConversionPrice: req.ConversionPrice,
		Floor:           req.Floor,
		Spot:            req.Spot,
		Rates:           rates,
	})
	if r.ReverseTable == nil {
		return h.fail(c, endpoint, xhttp.BadRequestError(r.Errors[valuation.MetricReverseTable]))
	}

	return xhttp.SuccessResponse(c, ReverseTableResponse{
		ConversionPrice: req.ConversionPrice,
		Baseline:        r.Baseline,
		BaselineSource:  r.BaselineSource,
		Spot:            req.Spot,
		Rows:            r.ReverseTable,
		RequiredPremium: r.RequiredPremium,
		AuctionStrength: r.AuctionStrength,
	})
}

func (h *ValuationHandler) fail(c echo.Context, endpoint string, err error) error {
	appErr := toAppError(err)
	metrics.EndpointErrors.WithLabelValues(endpoint, appErr.Code).Inc()
	if appErr.Status >= 500 {
		h.logger.Error("valuation usecase error", xlogger.String("endpoint", endpoint), xlogger.Error(err))
	}
	return xhttp.AppErrorResponse(c, appErr)
}
