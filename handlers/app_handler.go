package handlers

import (
	"net/http"

	"AppMovin/models"
	"AppMovin/services"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type AppHandler struct {
	library *services.LibraryService
}

func NewAppHandler(library *services.LibraryService) *AppHandler {
	return &AppHandler{library: library}
}

type uploadRequest struct {
	Path        string `json:"path"`
	Name        string `json:"name"`
	Version     string `json:"version"`
	Size        int64  `json:"size"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// List returns every app of the active backend. It never fails.
func (h *AppHandler) List(c echo.Context) error {
	return c.JSON(http.StatusOK, h.library.ListApps(c.Request().Context()))
}

func (h *AppHandler) Upload(c echo.Context) error {
	var req uploadRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid upload request")
	}
	if req.Path == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "path is required")
	}

	logrus.WithField("path", req.Path).Info("Receiving app upload request")
	backend := string(h.library.Backend().Kind())

	record, err := h.library.UploadApp(c.Request().Context(), req.Path, models.UploadMetadata{
		Name:        req.Name,
		Version:     req.Version,
		Size:        req.Size,
		Description: req.Description,
		Icon:        req.Icon,
	})
	uploadsCounter.WithLabelValues(backend, outcome(err)).Inc()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, record)
}

func (h *AppHandler) DownloadURL(c echo.Context) error {
	backend := string(h.library.Backend().Kind())
	url, err := h.library.GetDownloadURL(c.Request().Context(), c.Param("id"))
	downloadsCounter.WithLabelValues(backend, outcome(err)).Inc()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"url": url})
}

func (h *AppHandler) Delete(c echo.Context) error {
	backend := string(h.library.Backend().Kind())
	err := h.library.DeleteApp(c.Request().Context(), c.Param("id"))
	deletesCounter.WithLabelValues(backend, outcome(err)).Inc()
	if err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
