package api

import (
	"context"
	"errors"
	"net/http"

	"CBDesk/internal/domain/errs"
	xhttp "CBDesk/pkg/http"
)

// toAppError maps domain failures onto HTTP errors.
func toAppError(err error) *xhttp.AppError {
	var appErr *xhttp.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var ex *errs.ExhaustedError
	switch {
	case errors.Is(err, errs.ErrInvalidInstrument):
		return xhttp.NewAppError("ERR_INVALID_INSTRUMENT", "id", err.Error(), http.StatusBadRequest).WithError(err)
	case errors.Is(err, errs.ErrInvalidInput):
		return xhttp.NewAppError("ERR_INVALID_INPUT", "", err.Error(), http.StatusBadRequest).WithError(err)
	case errors.As(err, &ex):
		return xhttp.NewAppError("ERR_NO_DATA", "", err.Error(), http.StatusNotFound).
			WithParam("attempted_sources", ex.AttemptedSources()).
			WithParam("attempts", ex.Attempts).
			WithError(err)
	case errors.Is(err, errs.ErrNoDataFound):
		return xhttp.NotFoundError(err.Error()).WithError(err)
	case errors.Is(err, context.DeadlineExceeded):
		return xhttp.NewAppError("ERR_TIMEOUT", "", "upstream deadline exceeded", http.StatusGatewayTimeout).WithError(err)
	default:
		return xhttp.InternalError("Something went wrong").WithError(err)
	}
}
