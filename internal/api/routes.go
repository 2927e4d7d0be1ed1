// internal/api/routes.go
package api

import "github.com/gofiber/fiber/v2"

// registerRoutes mounts all endpoints on the app.
func registerRoutes(app *fiber.App, h *Handlers) {
	app.Get("/health", h.Health)
	app.Get("/ready", h.Ready)

	v1 := app.Group("/api/v1")
	v1.Get("/records/related", h.RelatedRecords)
	v1.Get("/markers", h.Markers)
}
