package api

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/grexie/n8n-protector/pkg/api/interop"
	"github.com/grexie/n8n-protector/pkg/protector"
)

type GrantAccessRequest = protector.AccessRequest
type RevokeAccessRequest = protector.RevokeRequest

func (a *api) resolveApp(app string) string {
	if strings.TrimSpace(app) == "" {
		return a.defaultApp
	}
	return app
}

func (a *api) GrantAccess(c *fiber.Ctx) error {
	var req GrantAccessRequest

	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	req.AppAddress = a.resolveApp(req.AppAddress)

	if r, err := a.protector.GrantAccess(c.UserContext(), c.Params("address"), req); err != nil {
		return err
	} else {
		return c.JSON(interop.NewResponse(r))
	}
}

func (a *api) RevokeAccess(c *fiber.Ctx) error {
	var req RevokeAccessRequest

	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	req.AppAddress = a.resolveApp(req.AppAddress)

	if r, err := a.protector.RevokeAccess(c.UserContext(), c.Params("address"), req); err != nil {
		return err
	} else {
		return c.JSON(interop.NewResponse(r))
	}
}

func (a *api) GrantedAccess(c *fiber.Ctx) error {
	if r, err := a.protector.GrantedAccess(c.UserContext(), c.Params("address"), c.Query("user"), c.Query("app")); err != nil {
		return err
	} else {
		return c.JSON(interop.NewResponse(r))
	}
}
