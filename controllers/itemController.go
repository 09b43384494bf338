package controllers

import (
	"errors"

	"bizdocs-backend/importer"
	"bizdocs-backend/middlewares"
	"bizdocs-backend/models"
	"bizdocs-backend/services"
	"bizdocs-backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type ItemInput struct {
	Name  string          `json:"name" validate:"required,max=255"`
	Type  string          `json:"type" validate:"max=100"`
	Price decimal.Decimal `json:"price"`
}

type ItemPatch struct {
	Name  *string          `json:"name" validate:"omitempty,min=1,max=255"`
	Type  *string          `json:"type" validate:"omitempty,max=100"`
	Price *decimal.Decimal `json:"price"`
}

func (h *Handler) CreateItem(c *fiber.Ctx) error {
	var in ItemInput
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	utils.NormalizeDTO(&in)
	if in.Price.IsNegative() {
		return &services.ValidationError{Field: "price", Message: "must not be negative"}
	}

	item, err := h.Stores.Catalog.Insert(c.UserContext(), models.CatalogItem{
		Name:  in.Name,
		Type:  in.Type,
		Price: in.Price,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

func (h *Handler) GetItems(c *fiber.Ctx) error {
	term, page, size := h.listParams(c)
	var filters map[string]any
	if typ := c.Query("type"); typ != "" {
		filters = map[string]any{"type": typ}
	}
	res, err := h.Stores.Catalog.Select(c.UserContext(), listQuery(term, page, size, filters))
	if err != nil {
		return err
	}
	return c.JSON(listResponse("items", res, page, size))
}

func (h *Handler) UpdateItem(c *fiber.Ctx) error {
	var in ItemPatch
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	utils.NormalizePtrDTO(&in)
	if in.Price != nil && in.Price.IsNegative() {
		return &services.ValidationError{Field: "price", Message: "must not be negative"}
	}
	patch := utils.UpdatesFromPtrDTO(&in, nil)
	if len(patch) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "nothing to update")
	}

	item, err := h.Stores.Catalog.Update(c.UserContext(), c.Params("id"), patch)
	if err != nil {
		return err
	}
	return c.JSON(item)
}

func (h *Handler) DeleteItem(c *fiber.Ctx) error {
	if err := h.Stores.Catalog.Delete(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ImportItems reads an uploaded .xlsx sheet ("file" form field) into the catalog.
func (h *Handler) ImportItems(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "file is required")
	}
	f, err := fh.Open()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not read upload")
	}
	defer f.Close()

	created, err := importer.ImportCatalogItems(c.UserContext(), h.Stores.Catalog, f)
	if err != nil {
		if errors.Is(err, importer.ErrInvalidSheet) {
			return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
		}
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"items": created,
		"count": len(created),
	})
}
