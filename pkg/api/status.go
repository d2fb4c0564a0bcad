package api

import (
	"github.com/carlmjohnson/versioninfo"
	"github.com/gofiber/fiber/v2"
	"github.com/grexie/n8n-protector/pkg/api/interop"
)

type StatusResponse struct {
	APIKeys   int    `json:"apiKeys"`
	Workflows int64  `json:"workflows"`
	Version   string `json:"version"`
}

func (a *api) Status(c *fiber.Ctx) error {
	if r, err := a.protector.ListWorkflows(c.UserContext(), 0, 0); err != nil {
		return err
	} else {
		return c.JSON(interop.NewResponse(StatusResponse{
			APIKeys:   len(a.auth.APIKeys()),
			Workflows: r.Count(),
			Version:   versioninfo.Short(),
		}))
	}
}
