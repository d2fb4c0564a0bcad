package cli

import (
	"fmt"

	"github.com/carlmjohnson/versioninfo"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/grexie/n8n-protector/pkg/api"
	"github.com/grexie/n8n-protector/pkg/auth"
	"github.com/grexie/n8n-protector/pkg/dataprotector"
	"github.com/grexie/n8n-protector/pkg/node"
	"github.com/grexie/n8n-protector/pkg/signer"
	"github.com/grexie/n8n-protector/pkg/tls"
	"github.com/spf13/cobra"
)

const signerPoolSize = 128

func serveCmd(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the protector API",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := s.newServer()
			if err != nil {
				return err
			}

			addr := fmt.Sprintf(":%s", s.config.Port)

			if s.config.InsecureHTTP {
				log.Infof("🚀 started n8n protector %s on port %s", versioninfo.Short(), s.config.Port)
				return app.Listen(addr)
			} else if cert, err := tls.CreateServerCert(tls.Options{}); err != nil {
				return fmt.Errorf("error creating tls certificate: %v", err)
			} else {
				log.Infof("🚀 started n8n protector %s on port %s", versioninfo.Short(), s.config.Port)
				return app.ListenTLSWithCertificate(addr, cert)
			}
		},
	}
}

func (s *state) newServer() (*fiber.App, error) {
	if auth, err := auth.NewAuth(s.config.Keys); err != nil {
		return nil, err
	} else if protector, err := s.protector(); err != nil {
		return nil, err
	} else if pool, err := signer.NewPool(signerPoolSize); err != nil {
		return nil, err
	} else if executor, err := node.NewExecutor(pool, func(w signer.Signer, smsURL string) (dataprotector.Client, error) {
		return s.clientFor(w, smsURL)
	}, s.config.SMSURL); err != nil {
		return nil, err
	} else if api, err := api.NewAPI(auth, protector, executor, s.config.App); err != nil {
		return nil, err
	} else {
		app := fiber.New(fiber.Config{
			DisableStartupMessage: true,
		})

		app.Use(logger.New())

		app.Mount("/api/v1", api.App())

		return app, nil
	}
}
