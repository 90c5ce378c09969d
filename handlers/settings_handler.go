package handlers

import (
	"errors"
	"net/http"

	"AppMovin/models"
	"AppMovin/services"

	"github.com/labstack/echo/v4"
)

type SettingsHandler struct {
	library *services.LibraryService
	version string
}

func NewSettingsHandler(library *services.LibraryService, version string) *SettingsHandler {
	return &SettingsHandler{library: library, version: version}
}

type storagePathRequest struct {
	Path         string `json:"path"`
	MoveExisting bool   `json:"moveExisting"`
}

func (h *SettingsHandler) GetStoragePath(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]*string{"path": h.library.StoragePath()})
}

func (h *SettingsHandler) SetStoragePath(c echo.Context) error {
	var req storagePathRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusOK, models.Failed(errors.New("invalid storage path request")))
	}
	return c.JSON(http.StatusOK, h.library.SetStoragePath(c.Request().Context(), req.Path, req.MoveExisting))
}

func (h *SettingsHandler) PickDirectory(c echo.Context) error {
	path, err := h.library.PickDirectory(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]*string{"path": path})
}

func (h *SettingsHandler) Status(c echo.Context) error {
	return c.JSON(http.StatusOK, h.library.Status())
}

func (h *SettingsHandler) Version(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"version": h.version})
}
