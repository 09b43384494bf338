package controllers

import (
	"context"

	"bizdocs-backend/collection"
	"bizdocs-backend/database"
	"bizdocs-backend/services"
	"bizdocs-backend/store"
	"bizdocs-backend/utils"

	"github.com/gofiber/fiber/v2"
)

const maxPageSize = 100

// Handler serves the HTTP API over one set of stores.
type Handler struct {
	Stores   *database.Stores
	Docs     *services.DocumentService
	PageSize int
	// Ping checks the backing database for /healthz; nil means always up.
	Ping func(ctx context.Context) error
}

func New(stores *database.Stores, docs *services.DocumentService, pageSize int) *Handler {
	if pageSize <= 0 {
		pageSize = collection.DefaultPageSize
	}
	return &Handler{Stores: stores, Docs: docs, PageSize: pageSize}
}

// listParams reads q, page and page_size. Pages are zero-based.
func (h *Handler) listParams(c *fiber.Ctx) (term string, page, size int) {
	term = c.Query("q")
	page = utils.ParseIntDefault(c.Query("page"), 0)
	size = utils.ParseIntRange(c.Query("page_size"), h.PageSize, maxPageSize)
	return term, page, size
}

// listQuery builds the newest-first page query used by every list endpoint.
func listQuery(term string, page, size int, filters map[string]any) store.Query {
	from, to := store.Page(page, size)
	return store.Query{
		Search:  term,
		Filters: filters,
		OrderBy: "created_at",
		Desc:    true,
		From:    from,
		To:      to,
		Count:   true,
	}
}

// listResponse is the shared envelope: {"<name>": rows, total, page, page_size, has_more}.
func listResponse[T any](name string, res store.Result[T], page, size int) fiber.Map {
	from, _ := store.Page(page, size)
	rows := res.Rows
	if rows == nil {
		rows = []T{}
	}
	body := fiber.Map{
		name:        rows,
		"page":      page,
		"page_size": size,
		"has_more":  collection.HasMore(from+len(rows), res.Total, len(rows), size),
	}
	if res.Total != nil {
		body["total"] = *res.Total
	}
	return body
}

func (h *Handler) Health(c *fiber.Ctx) error {
	if h.Ping != nil {
		if err := h.Ping(c.UserContext()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable", "message": err.Error()})
		}
	}
	return c.JSON(fiber.Map{"status": "ok"})
}
