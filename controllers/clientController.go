package controllers

import (
	"bizdocs-backend/middlewares"
	"bizdocs-backend/models"
	"bizdocs-backend/utils"

	"github.com/gofiber/fiber/v2"
)

type ClientInput struct {
	CompanyName string `json:"company_name" validate:"required,max=255"`
	Address     string `json:"address"`
	Phone       string `json:"phone" validate:"max=50"`
	Email       string `json:"email" validate:"omitempty,email"`
}

type ClientPatch struct {
	CompanyName *string `json:"company_name" validate:"omitempty,min=1,max=255"`
	Address     *string `json:"address"`
	Phone       *string `json:"phone" validate:"omitempty,max=50"`
	Email       *string `json:"email" validate:"omitempty,email"`
}

func (h *Handler) CreateClient(c *fiber.Ctx) error {
	var in ClientInput
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	utils.NormalizeDTO(&in)

	client, err := h.Stores.Clients.Insert(c.UserContext(), models.Client{
		CompanyName: in.CompanyName,
		Address:     in.Address,
		Phone:       in.Phone,
		Email:       in.Email,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(client)
}

func (h *Handler) GetClients(c *fiber.Ctx) error {
	term, page, size := h.listParams(c)
	res, err := h.Stores.Clients.Select(c.UserContext(), listQuery(term, page, size, nil))
	if err != nil {
		return err
	}
	return c.JSON(listResponse("clients", res, page, size))
}

func (h *Handler) GetClient(c *fiber.Ctx) error {
	client, err := h.Stores.Clients.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(client)
}

func (h *Handler) UpdateClient(c *fiber.Ctx) error {
	var in ClientPatch
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	utils.NormalizePtrDTO(&in)
	patch := utils.UpdatesFromPtrDTO(&in, nil)
	if len(patch) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "nothing to update")
	}
	if name, ok := patch["company_name"].(string); ok && name == "" {
		return fiber.NewError(fiber.StatusUnprocessableEntity, "company_name must not be empty")
	}

	client, err := h.Stores.Clients.Update(c.UserContext(), c.Params("id"), patch)
	if err != nil {
		return err
	}
	return c.JSON(client)
}

func (h *Handler) DeleteClient(c *fiber.Ctx) error {
	if err := h.Stores.Clients.Delete(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
