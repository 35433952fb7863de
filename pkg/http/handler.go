package http

import "github.com/labstack/echo/v4"

// Handler mounts one API area (valuation, quotes, health) on the server.
type Handler interface {
	RegisterRoutes(e *echo.Echo)
}
