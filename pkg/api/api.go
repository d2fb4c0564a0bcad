package api

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/grexie/n8n-protector/pkg/api/interop"
	"github.com/grexie/n8n-protector/pkg/auth"
	"github.com/grexie/n8n-protector/pkg/node"
	"github.com/grexie/n8n-protector/pkg/protector"
)

type API interface {
	App() *fiber.App
}

type api struct {
	app        *fiber.App
	auth       auth.Auth
	protector  protector.Protector
	executor   node.Executor
	defaultApp string
}

var _ API = &api{}

// NewAPI builds the routes. defaultApp is used for grant and revoke requests
// that name no app.
func NewAPI(auth auth.Auth, protector protector.Protector, executor node.Executor, defaultApp string) (API, error) {
	if auth == nil || protector == nil {
		return nil, fmt.Errorf("api requires auth and a protector")
	}

	a := api{auth: auth, protector: protector, executor: executor, defaultApp: defaultApp}

	a.app = fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError

			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}

			err = c.Status(code).JSON(interop.NewErrorResponse(err))
			if err != nil {
				return c.Status(code).JSON(interop.NewErrorResponse(fmt.Errorf("internal server error")))
			}

			return nil
		},
	})

	a.app.Post("/workflows", a.auth.RequireAPIKey, a.ProtectWorkflow)
	a.app.Get("/workflows", a.auth.RequireAPIKey, a.ListWorkflows)
	a.app.Delete("/workflows", a.auth.RequireAPIKey, a.ClearWorkflows)
	a.app.Get("/workflows/:address", a.auth.RequireAPIKey, a.GetWorkflow)
	a.app.Delete("/workflows/:address", a.auth.RequireAPIKey, a.RemoveWorkflow)

	a.app.Post("/workflows/:address/grant", a.auth.RequireAPIKey, a.GrantAccess)
	a.app.Post("/workflows/:address/revoke", a.auth.RequireAPIKey, a.RevokeAccess)
	a.app.Get("/workflows/:address/access", a.auth.RequireAPIKey, a.GrantedAccess)

	a.app.Post("/node/execute", a.auth.RequireAPIKey, a.ExecuteNode)
	a.app.Get("/status", a.auth.RequireAPIKey, a.Status)

	return &a, nil
}

func (a *api) App() *fiber.App {
	return a.app
}
