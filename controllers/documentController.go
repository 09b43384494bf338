package controllers

import (
	"strings"
	"time"

	"bizdocs-backend/ledger"
	"bizdocs-backend/middlewares"
	"bizdocs-backend/models"
	"bizdocs-backend/services"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

type DocumentItemInput struct {
	Name     string          `json:"name" validate:"max=255"`
	Quantity decimal.Decimal `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

type DocumentInput struct {
	Type            string              `json:"type" validate:"omitempty,oneof=invoice quotation bast receipt"`
	Status          string              `json:"status" validate:"omitempty,oneof=draft pending paid overdue completed"`
	ClientID        *string             `json:"client_id" validate:"omitempty,min=1"`
	ClientName      string              `json:"client_name" validate:"max=255"`
	ClientAddress   string              `json:"client_address"`
	ClientPhone     string              `json:"client_phone" validate:"max=50"`
	ClientEmail     string              `json:"client_email" validate:"omitempty,email"`
	Date            string              `json:"date" validate:"omitempty,datetime=2006-01-02"`
	DueDate         string              `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
	Notes           string              `json:"notes"`
	DiscountPercent decimal.Decimal     `json:"discount_percent"`
	TaxPercent      *decimal.Decimal    `json:"tax_percent"`
	Items           []DocumentItemInput `json:"items" validate:"required,min=1,dive"`
}

type TotalsInput struct {
	DiscountPercent decimal.Decimal     `json:"discount_percent"`
	TaxPercent      *decimal.Decimal    `json:"tax_percent"`
	Items           []DocumentItemInput `json:"items" validate:"dive"`
}

type StatusInput struct {
	Status string `json:"status" validate:"required,oneof=draft pending paid overdue completed"`
}

func ledgerItems(in []DocumentItemInput) []ledger.Item {
	out := make([]ledger.Item, 0, len(in))
	for _, it := range in {
		out = append(out, ledger.Item{Name: strings.TrimSpace(it.Name), Quantity: it.Quantity, Price: it.Price})
	}
	return out
}

// draftFrom builds a service draft. A client_id pulls the contact data from
// the stored client unless a client_name is sent along.
func (h *Handler) draftFrom(c *fiber.Ctx, in DocumentInput) (services.Draft, error) {
	d := services.Draft{
		Type:            models.DocType(in.Type),
		Status:          models.DocStatus(in.Status),
		Notes:           strings.TrimSpace(in.Notes),
		DiscountPercent: in.DiscountPercent,
		TaxPercent:      in.TaxPercent,
		Items:           ledgerItems(in.Items),
		Client: services.ClientSnapshot{
			ID:          in.ClientID,
			CompanyName: in.ClientName,
			Address:     in.ClientAddress,
			Phone:       in.ClientPhone,
			Email:       in.ClientEmail,
		},
	}
	if in.ClientID != nil && strings.TrimSpace(in.ClientName) == "" {
		client, err := h.Stores.Clients.Get(c.UserContext(), *in.ClientID)
		if err != nil {
			return d, err
		}
		d.Client = services.SnapshotOf(client)
	}
	if in.Date != "" {
		t, err := time.Parse(dateLayout, in.Date)
		if err != nil {
			return d, fiber.NewError(fiber.StatusBadRequest, "invalid date")
		}
		d.Date = t
	}
	if in.DueDate != "" {
		t, err := time.Parse(dateLayout, in.DueDate)
		if err != nil {
			return d, fiber.NewError(fiber.StatusBadRequest, "invalid due_date")
		}
		d.DueDate = &t
	}
	return d, nil
}

func (h *Handler) CreateDocument(c *fiber.Ctx) error {
	var in DocumentInput
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	if in.Type == "" {
		return &services.ValidationError{Field: "type", Message: "document type is required"}
	}
	d, err := h.draftFrom(c, in)
	if err != nil {
		return err
	}
	doc, err := h.Docs.Create(c.UserContext(), d)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(doc)
}

// GetDocuments lists documents newest first, filtered by q (number or client
// name), type and status. page_total sums the grand totals of the listed rows.
func (h *Handler) GetDocuments(c *fiber.Ctx) error {
	term, page, size := h.listParams(c)
	filters := map[string]any{}
	if typ := c.Query("type"); typ != "" {
		if !models.DocType(typ).Valid() {
			return fiber.NewError(fiber.StatusBadRequest, "unknown document type")
		}
		filters["type"] = typ
	}
	if status := c.Query("status"); status != "" {
		if !models.DocStatus(status).Valid() {
			return fiber.NewError(fiber.StatusBadRequest, "unknown status")
		}
		filters["status"] = status
	}
	if clientID := c.Query("client_id"); clientID != "" {
		filters["client_id"] = clientID
	}

	res, err := h.Stores.Documents.Select(c.UserContext(), listQuery(term, page, size, filters))
	if err != nil {
		return err
	}
	body := listResponse("documents", res, page, size)
	body["page_total"] = services.SumGrandTotals(res.Rows)
	return c.JSON(body)
}

func (h *Handler) GetDocument(c *fiber.Ctx) error {
	doc, err := h.Docs.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(doc)
}

func (h *Handler) UpdateDocument(c *fiber.Ctx) error {
	var in DocumentInput
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	d, err := h.draftFrom(c, in)
	if err != nil {
		return err
	}
	doc, err := h.Docs.Update(c.UserContext(), c.Params("id"), d)
	if err != nil {
		return err
	}
	return c.JSON(doc)
}

func (h *Handler) UpdateDocumentStatus(c *fiber.Ctx) error {
	var in StatusInput
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	doc, err := h.Docs.SetStatus(c.UserContext(), c.Params("id"), models.DocStatus(in.Status))
	if err != nil {
		return err
	}
	return c.JSON(doc)
}

// DeleteDocument removes the items first and the document second.
func (h *Handler) DeleteDocument(c *fiber.Ctx) error {
	if err := h.Docs.Delete(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ConvertDocument creates an invoice from a quotation.
func (h *Handler) ConvertDocument(c *fiber.Ctx) error {
	doc, err := h.Docs.ConvertQuotation(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(doc)
}

// PreviewTotals computes the totals for posted items without storing anything.
func (h *Handler) PreviewTotals(c *fiber.Ctx) error {
	var in TotalsInput
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	if !ledger.ValidPercent(in.DiscountPercent) {
		return &services.ValidationError{Field: "discount_percent", Message: "must be between 0 and 100"}
	}
	if in.TaxPercent != nil && !ledger.ValidPercent(*in.TaxPercent) {
		return &services.ValidationError{Field: "tax_percent", Message: "must be between 0 and 100"}
	}
	items := ledgerItems(in.Items)
	for _, it := range items {
		if it.Quantity.IsNegative() || it.Price.IsNegative() {
			return &services.ValidationError{Field: "items", Message: "quantity and price must not be negative"}
		}
	}
	return c.JSON(h.Docs.Totals(items, in.DiscountPercent, in.TaxPercent))
}
