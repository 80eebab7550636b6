package http

import (
	"errors"
	"net/http"
	"strings"

	"coop-ledger/internal/adapter/middleware"
	"coop-ledger/internal/apperr"

	"github.com/labstack/echo/v4"
)

// fail writes err with the status of its kind. Internal causes are not exposed.
func fail(c echo.Context, err error) error {
	kind := apperr.KindOf(err)
	if kind == apperr.KindInternal {
		c.Logger().Error(err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Kind: kind, Error: "internal error"})
	}
	var e *apperr.Error
	errors.As(err, &e)
	return c.JSON(apperr.HTTPStatus(kind), e)
}

// bindValid binds the body into req and validates it, writing the error response itself.
// It reports whether the handler should continue.
func bindValid(c echo.Context, req any) (bool, error) {
	if err := c.Bind(req); err != nil {
		return false, c.JSON(http.StatusBadRequest, ErrorResponse{Kind: apperr.KindBadRequest, Error: "invalid body"})
	}
	if err := c.Validate(req); err != nil {
		return false, c.JSON(http.StatusBadRequest, ErrorResponse{
			Kind:    apperr.KindBadRequest,
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	return true, nil
}

// actor identifies who performs a manual action.
func actor(c echo.Context) string {
	if id := middleware.CallerID(c); id != "" {
		return id
	}
	return strings.TrimSpace(c.Request().Header.Get(middleware.HeaderCallerID))
}
