package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	tverrors "tradevault/internal/errors"
	"tradevault/internal/logging"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// statusOf maps journal errors onto HTTP status codes.
func statusOf(err error) int {
	var he *echo.HTTPError
	switch {
	case tverrors.As(err, &he):
		return he.Code
	case tverrors.Is(err, tverrors.ErrInputValidation):
		return http.StatusBadRequest
	case tverrors.Is(err, tverrors.ErrImportFailed):
		return http.StatusBadRequest
	case tverrors.Is(err, tverrors.ErrNotFound):
		return http.StatusNotFound
	case tverrors.Is(err, tverrors.ErrTradeNotOpen):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// withErrorHandler renders errors as errorBody and logs server faults with
// the request logger.
func withErrorHandler() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}

			code := statusOf(err)
			msg := err.Error()
			var he *echo.HTTPError
			if tverrors.As(err, &he) {
				msg = http.StatusText(he.Code)
				if m, ok := he.Message.(string); ok {
					msg = m
				}
			}
			if code >= http.StatusInternalServerError {
				logger := logging.FromContext(c.Request().Context())
				logger.Error().Err(err).Str("path", c.Path()).Msg("Request failed")
			}
			return c.JSON(code, errorBody{Code: code, Message: msg})
		}
	}
}

// withRequestLog stores a request-scoped logger in the request context and
// logs every call.
func withRequestLog(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			reqLogger := logger.With().
				Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
				Logger()
			req := c.Request()
			c.SetRequest(req.WithContext(logging.WithLogger(req.Context(), reqLogger)))

			err := next(c)
			logging.LogAPICall(reqLogger, req.Method, c.Path(), c.Response().Status, time.Since(start), err)
			return err
		}
	}
}
