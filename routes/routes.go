package routes

import (
	"AppMovin/handlers"
	"AppMovin/middlewares"
	"AppMovin/services"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter builds the loopback API the UI talks to.
func NewRouter(library *services.LibraryService, version string) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middlewares.RecoveryMiddleware())
	e.Use(middlewares.ErrorHandler())

	RegisterRoutes(e, library, version)
	return e
}

// RegisterRoutes initializes all API routes.
func RegisterRoutes(e *echo.Echo, library *services.LibraryService, version string) {
	apps := handlers.NewAppHandler(library)
	oauth := handlers.NewOAuthHandler(library)
	settings := handlers.NewSettingsHandler(library, version)

	api := e.Group("/api")
	api.GET("/apps", apps.List)
	api.POST("/apps", apps.Upload)
	api.GET("/apps/:id/url", apps.DownloadURL)
	api.DELETE("/apps/:id", apps.Delete)

	api.POST("/auth/google", oauth.Google)
	api.POST("/auth/disconnect", oauth.Disconnect)

	api.GET("/storage/path", settings.GetStoragePath)
	api.PUT("/storage/path", settings.SetStoragePath)
	api.POST("/dialog/directory", settings.PickDirectory)
	api.GET("/status", settings.Status)
	api.GET("/version", settings.Version)

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}
