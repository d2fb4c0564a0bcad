// Package cli is the protector command line: the API server, catalog and
// access management against DataProtector, node execution, and the enclave
// entrypoints.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/gofiber/fiber/v2/log"
	"github.com/grexie/n8n-protector/pkg/config"
	"github.com/grexie/n8n-protector/pkg/dataprotector"
	"github.com/grexie/n8n-protector/pkg/protector"
	"github.com/grexie/n8n-protector/pkg/signer"
	"github.com/grexie/n8n-protector/pkg/storage"
	"github.com/spf13/cobra"
)

type state struct {
	config *config.Config
}

func Execute() error {
	return NewRootCommand().Execute()
}

func NewRootCommand() *cobra.Command {
	s := &state{}

	root := &cobra.Command{
		Use:           "protector",
		Short:         "Protect n8n workflows with iExec DataProtector",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c, err := config.Load(); err != nil {
				return err
			} else {
				s.config = c
				return nil
			}
		},
	}

	root.AddCommand(
		serveCmd(s),
		protectCmd(s),
		grantCmd(s),
		revokeCmd(s),
		accessCmd(s),
		workflowsCmd(s),
		nodeCmd(s),
		seedCmd(s),
		sandboxCmd(s),
		versionCmd(),
	)

	return root
}

// client returns a DataProtector client for privateKey, or for the configured
// wallet when privateKey is empty. It returns nil when no wallet is available.
func (s *state) client(privateKey string) (dataprotector.Client, error) {
	if privateKey == "" {
		privateKey = s.config.PrivateKey
	}
	if privateKey == "" {
		return nil, nil
	}

	if w, err := signer.NewSigner(privateKey); err != nil {
		return nil, fmt.Errorf("wallet: %w", err)
	} else {
		return s.clientFor(w, s.config.SMSURL)
	}
}

func (s *state) clientFor(w signer.Signer, smsURL string) (dataprotector.Client, error) {
	return dataprotector.NewClient(w, dataprotector.Options{
		APIURL: s.config.APIURL,
		SMSURL: smsURL,
	})
}

func (s *state) protector() (protector.Protector, error) {
	client, err := s.client("")
	if err != nil {
		return nil, err
	} else if client == nil {
		log.Warn("no wallet configured, DataProtector operations are disabled")
	}

	if storage, err := storage.NewStorage(s.config); err != nil {
		return nil, err
	} else {
		return protector.NewProtector(client, storage)
	}
}

func printJSON(w io.Writer, v any) error {
	e := json.NewEncoder(w)
	e.SetIndent("", "  ")
	e.SetEscapeHTML(false)
	return e.Encode(v)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
