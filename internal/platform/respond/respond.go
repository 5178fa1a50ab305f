// Package respond applies the uniform {success, message, data} envelope
// to every API response, including errors surfaced through Echo's
// HTTPErrorHandler.
package respond

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/medcore/medcore/internal/platform/apperror"
)

// Envelope is the uniform response wrapper.
type Envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

func OK(c echo.Context, message string, data interface{}) error {
	return c.JSON(http.StatusOK, Envelope{Success: true, Message: message, Data: data})
}

func Created(c echo.Context, message string, data interface{}) error {
	return c.JSON(http.StatusCreated, Envelope{Success: true, Message: message, Data: data})
}

// ErrorHandler converts apperror kinds and echo.HTTPErrors into the
// envelope. Internal errors are logged with the request id and their
// message replaced before reaching the caller.
func ErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		message := "internal server error"

		var he *echo.HTTPError
		var ae *apperror.Error
		switch {
		case errors.As(err, &ae):
			status = apperror.HTTPStatus(ae.Kind)
			message = ae.Message
			if ae.Kind == apperror.KindInternal {
				rid, _ := c.Get("request_id").(string)
				logger.Error().Err(ae.Err).
					Str("request_id", rid).
					Str("path", c.Request().URL.Path).
					Msg("unhandled error")
			}
		case errors.As(err, &he):
			status = he.Code
			if m, ok := he.Message.(string); ok {
				message = m
			} else {
				message = http.StatusText(he.Code)
			}
		default:
			rid, _ := c.Get("request_id").(string)
			logger.Error().Err(err).
				Str("request_id", rid).
				Str("path", c.Request().URL.Path).
				Msg("unhandled error")
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, Envelope{Success: false, Message: message})
	}
}
