package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/grexie/n8n-protector/pkg/dataprotector"
	"github.com/grexie/n8n-protector/pkg/node"
	"github.com/grexie/n8n-protector/pkg/signer"
	"github.com/spf13/cobra"
)

func nodeCmd(s *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "node",
		Short: "Run DataProtector node operations",
	}

	var input string
	execCmd := &cobra.Command{
		Use:   "exec",
		Short: "Execute a node request read from a file or stdin",
		Long: "Execute a node request. The request is a JSON object with credentials, " +
			"parameters, items and continueOnFail; operations: " + fmt.Sprint(node.Operations),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if input != "" && input != "-" {
				f, err := os.Open(input)
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}

			var req node.ExecuteRequest
			if err := json.NewDecoder(r).Decode(&req); err != nil {
				return fmt.Errorf("invalid node request: %w", err)
			}
			if req.Credentials.PrivateKey == "" {
				req.Credentials.PrivateKey = s.config.PrivateKey
			}

			pool, err := signer.NewPool(1)
			if err != nil {
				return err
			}

			e, err := node.NewExecutor(pool, func(w signer.Signer, smsURL string) (dataprotector.Client, error) {
				return s.clientFor(w, smsURL)
			}, s.config.SMSURL)
			if err != nil {
				return err
			}

			if items, err := e.Execute(commandContext(cmd), req); err != nil {
				return err
			} else {
				return printJSON(cmd.OutOrStdout(), items)
			}
		},
	}
	execCmd.Flags().StringVarP(&input, "input", "i", "-", "request file, - for stdin")

	cmd.AddCommand(execCmd)
	return cmd
}
