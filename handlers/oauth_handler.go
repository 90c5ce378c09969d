package handlers

import (
	"errors"
	"net/http"

	"AppMovin/models"
	"AppMovin/services"

	"github.com/labstack/echo/v4"
)

type OAuthHandler struct {
	library *services.LibraryService
}

func NewOAuthHandler(library *services.LibraryService) *OAuthHandler {
	return &OAuthHandler{library: library}
}

type authorizeRequest struct {
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret"`
}

// Google blocks until the browser flow finishes, then reports the outcome
// as {success, error}.
func (h *OAuthHandler) Google(c echo.Context) error {
	var req authorizeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusOK, models.Failed(errors.New("invalid authorization request")))
	}

	res := h.library.AuthorizeRemote(c.Request().Context(), req.ClientID, req.ClientSecret)
	if res.Success {
		authorizationsCounter.WithLabelValues("ok").Inc()
	} else {
		authorizationsCounter.WithLabelValues("error").Inc()
	}
	return c.JSON(http.StatusOK, res)
}

func (h *OAuthHandler) Disconnect(c echo.Context) error {
	if err := h.library.Disconnect(c.Request().Context()); err != nil {
		return c.JSON(http.StatusOK, models.Failed(err))
	}
	return c.JSON(http.StatusOK, models.OK())
}
