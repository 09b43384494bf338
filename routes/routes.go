package routes

import (
	"github.com/gofiber/fiber/v2"

	"bizdocs-backend/controllers"
	"bizdocs-backend/metrics"
	"bizdocs-backend/middlewares"
)

// Register wires all HTTP routes.
func Register(app *fiber.App, h *controllers.Handler) {
	app.Get("/healthz", h.Health)
	app.Get("/metrics", metrics.Handler())

	api := app.Group("/api")

	// Idempotency guard for mutating requests
	api.Use(middlewares.Idempotency(h.Stores.Idempotency))

	// Clients
	api.Post("/client", h.CreateClient)
	api.Get("/clients", h.GetClients)
	api.Get("/client/:id", h.GetClient)
	api.Put("/client/:id", h.UpdateClient)
	api.Delete("/client/:id", h.DeleteClient)

	// Catalog items
	api.Post("/item", h.CreateItem)
	api.Get("/items", h.GetItems)
	api.Post("/items/import", h.ImportItems)
	api.Put("/items/:id", h.UpdateItem)
	api.Delete("/items/:id", h.DeleteItem)

	// Documents (items are written with their document)
	api.Post("/document", h.CreateDocument)
	api.Get("/documents", h.GetDocuments)
	api.Get("/document/:id", h.GetDocument)
	api.Post("/documents/totals", h.PreviewTotals)
	api.Put("/documents/:id", h.UpdateDocument)
	api.Put("/documents/:id/status", h.UpdateDocumentStatus)
	api.Delete("/documents/:id", h.DeleteDocument)
	api.Post("/documents/:id/convert", h.ConvertDocument)
}
