package api

import (
	"time"

	"github.com/labstack/echo/v4"

	xhttp "CBDesk/pkg/http"
)

// HealthHandler reports liveness and the configured provider chains.
type HealthHandler struct {
	started time.Time
	spot    []string
	terms   []string
}

func NewHealthHandler(spot, terms []string) *HealthHandler {
	return &HealthHandler{started: time.Now(), spot: spot, terms: terms}
}

func (h *HealthHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)
}

type healthResponse struct {
	Status         string   `json:"status"`
	Uptime         string   `json:"uptime"`
	SpotProviders  []string `json:"spot_providers"`
	TermsProviders []string `json:"terms_providers"`
}

func (h *HealthHandler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, healthResponse{
		Status:         "ok",
		Uptime:         time.Since(h.started).Round(time.Second).String(),
		SpotProviders:  h.spot,
		TermsProviders: h.terms,
	})
}
