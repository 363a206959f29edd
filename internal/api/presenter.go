package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/roach88/rolodex/internal/contact"
)

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
	Code  int    `json:"code"`
}

// OK wraps a successful response.
func OK(c echo.Context, payload any) error {
	return c.JSON(http.StatusOK, payload)
}

// Created wraps a response for a newly stored resource.
func Created(c echo.Context, payload any) error {
	return c.JSON(http.StatusCreated, payload)
}

// Error writes err with the status for its kind. The numeric code is the
// contact error code so clients can branch without parsing text.
func Error(c echo.Context, err error) error {
	kind := contact.KindOf(err)
	status := statusFor(kind)
	if status >= http.StatusInternalServerError {
		c.Logger().Error(err)
	}
	return c.JSON(status, errorResponse{Error: err.Error(), Kind: kind.String(), Code: int(kind)})
}

// BadRequest reports a malformed request body or parameter.
func BadRequest(c echo.Context, err error) error {
	return Error(c, contact.E(contact.InvalidArgument, "request", err))
}

func statusFor(kind contact.Kind) int {
	switch kind {
	case contact.InvalidArgument:
		return http.StatusBadRequest
	case contact.NotFound:
		return http.StatusNotFound
	case contact.PendingOperation:
		return http.StatusConflict
	case contact.Timeout:
		return http.StatusGatewayTimeout
	case contact.NotSupported:
		return http.StatusNotImplemented
	case contact.PermissionDenied:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
