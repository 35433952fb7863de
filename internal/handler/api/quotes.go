package api

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"

	"CBDesk/internal/domain/models"
	"CBDesk/internal/domain/service"
	"CBDesk/internal/service/metrics"
	"CBDesk/internal/service/ratelimit"
	"CBDesk/internal/services/resolver"
	xhttp "CBDesk/pkg/http"
	xlogger "CBDesk/pkg/logger"
)

// pruneAt is the number of tracked clients above which idle buckets are dropped.
const pruneAt = 10000

// QuotesHandler exposes the quote resolver. Each call may hit several
// upstream sites, so callers are throttled per client address.
type QuotesHandler struct {
	logger  *xlogger.Logger
	quotes  service.QuoteResolver
	limiter *ratelimit.Limiter
}

func NewQuotesHandler(logger *xlogger.Logger, quotes service.QuoteResolver, limiter *ratelimit.Limiter) *QuotesHandler {
	metrics.Register()
	return &QuotesHandler{logger: logger, quotes: quotes, limiter: limiter}
}

func (h *QuotesHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/v1/quotes")
	g.GET("/:id", h.Spot)
	g.GET("/:id/terms", h.Terms)
}

func (h *QuotesHandler) Spot(c echo.Context) error {
	return h.serve(c, "quote", func(ctx context.Context, id string) (interface{}, error) {
		return h.quotes.ResolveQuote(ctx, id)
	})
}

func (h *QuotesHandler) Terms(c echo.Context) error {
	return h.serve(c, "terms", func(ctx context.Context, id string) (interface{}, error) {
		return h.quotes.ResolveTerms(ctx, id)
	})
}

func (h *QuotesHandler) serve(c echo.Context, endpoint string, resolve func(context.Context, string) (interface{}, error)) error {
	start := time.Now()
	defer func() { metrics.EndpointLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	if h.limiter != nil {
		if h.limiter.Len() > pruneAt {
			h.limiter.Prune()
		}
		if !h.limiter.Allow(c.RealIP()) {
			metrics.EndpointErrors.WithLabelValues(endpoint, "ERR_RATE_LIMITED").Inc()
			return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("too many quote requests, retry later"))
		}
	}

	req := &models.QuoteRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		metrics.EndpointErrors.WithLabelValues(endpoint, "ERR_VALIDATION").Inc()
		return xhttp.BadRequestResponse(c, verr)
	}

	ctx := c.Request().Context()
	if req.Refresh {
		ctx = resolver.NoCache(ctx)
	}

	res, err := resolve(ctx, req.ID)
	if err != nil {
		appErr := toAppError(err)
		metrics.EndpointErrors.WithLabelValues(endpoint, appErr.Code).Inc()
		if appErr.Status >= 500 {
			h.logger.Error("quote usecase error", xlogger.String("id", req.ID), xlogger.Error(err))
		}
		return xhttp.AppErrorResponse(c, appErr)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=60")
	return xhttp.SuccessResponse(c, res)
}
