package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/grexie/n8n-protector/pkg/api/interop"
	"github.com/grexie/n8n-protector/pkg/node"
)

func (a *api) ExecuteNode(c *fiber.Ctx) error {
	var req node.ExecuteRequest

	if a.executor == nil {
		return fiber.NewError(fiber.StatusNotImplemented, "node execution not enabled")
	} else if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	} else if items, err := a.executor.Execute(c.UserContext(), req); err != nil {
		if code := interop.StatusCode(err); code != fiber.StatusInternalServerError {
			return err
		}
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	} else {
		return c.JSON(interop.NewResponse(items))
	}
}
