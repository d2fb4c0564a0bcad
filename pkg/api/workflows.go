package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/grexie/n8n-protector/pkg/api/interop"
	"github.com/grexie/n8n-protector/pkg/protector"
)

type ProtectWorkflowRequest = protector.ProtectRequest

func (a *api) ProtectWorkflow(c *fiber.Ctx) error {
	var req ProtectWorkflowRequest

	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	} else if w, err := a.protector.ProtectWorkflow(c.UserContext(), req); err != nil {
		return err
	} else {
		return c.JSON(interop.NewResponse(w))
	}
}

func (a *api) ListWorkflows(c *fiber.Ctx) error {
	offset := int64(c.QueryInt("offset", 0))
	count := int64(c.QueryInt("count", 100))

	if r, err := a.protector.ListWorkflows(c.UserContext(), offset, count); err != nil {
		return err
	} else {
		return c.JSON(interop.NewResponse(r))
	}
}

func (a *api) GetWorkflow(c *fiber.Ctx) error {
	if w, err := a.protector.GetWorkflow(c.UserContext(), c.Params("address")); err != nil {
		return err
	} else {
		return c.JSON(interop.NewResponse(w))
	}
}

func (a *api) RemoveWorkflow(c *fiber.Ctx) error {
	if err := a.protector.RemoveWorkflow(c.UserContext(), c.Params("address")); err != nil {
		return err
	} else {
		return c.JSON(interop.NewResponse(true))
	}
}

func (a *api) ClearWorkflows(c *fiber.Ctx) error {
	if err := a.protector.ClearWorkflows(c.UserContext()); err != nil {
		return err
	} else {
		return c.JSON(interop.NewResponse(true))
	}
}
