package middlewares

import (
	"errors"
	"net/http"

	"AppMovin/models"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// StatusFor maps the storage error taxonomy onto HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrAuthFailure):
		return http.StatusBadGateway
	case errors.Is(err, models.ErrConfiguration):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrNotLocalBackend), errors.Is(err, models.ErrAuthInProgress):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// ErrorHandler renders handler errors as {"error": "..."} with a status
// derived from the error kind.
func ErrorHandler() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}

			var he *echo.HTTPError
			if errors.As(err, &he) {
				return err
			}

			status := StatusFor(err)
			entry := logrus.WithFields(logrus.Fields{
				"method": c.Request().Method,
				"path":   c.Path(),
				"status": status,
				"error":  err,
			})
			if status >= http.StatusInternalServerError {
				entry.Error("Error request")
			} else {
				entry.Warn("Error request")
			}
			return c.JSON(status, map[string]interface{}{"error": err.Error()})
		}
	}
}
