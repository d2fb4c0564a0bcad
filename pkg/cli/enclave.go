package cli

import (
	"github.com/grexie/n8n-protector/pkg/n8n"
	"github.com/spf13/cobra"
)

func seedCmd(s *state) *cobra.Command {
	keyFile := n8n.DefaultKeyFile
	o := n8n.DefaultSeedOptions()

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Protect local n8n exports and grant the enclave app access",
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := n8n.ReadKeyFile(keyFile)
			if err != nil {
				return err
			}

			client, err := s.client(key)
			if err != nil {
				return err
			}

			res, err := n8n.Seed(commandContext(cmd), client, o)
			if res != nil {
				if perr := printJSON(cmd.OutOrStdout(), res); perr != nil && err == nil {
					err = perr
				}
			}
			return err
		},
	}

	cmd.Flags().StringVar(&keyFile, "key-file", keyFile, "wallet private key file")
	cmd.Flags().StringVar(&o.Name, "name", "", "protected data name")
	cmd.Flags().StringVar(&o.CredentialsFile, "credentials", o.CredentialsFile, "n8n credentials export")
	cmd.Flags().StringVar(&o.WorkflowFile, "workflow", o.WorkflowFile, "n8n workflow export")
	cmd.Flags().StringVar(&o.App, "app", o.App, "authorized app")
	cmd.Flags().StringVar(&o.User, "user", o.User, "authorized user")
	cmd.Flags().Uint64Var(&o.NumberOfAccess, "number", o.NumberOfAccess, "number of access")

	return cmd
}

func sandboxCmd(s *state) *cobra.Command {
	var input, out string

	cmd := &cobra.Command{
		Use:   "sandbox [args...]",
		Short: "Restore protected n8n data and activate its workflows inside the enclave",
		RunE: func(cmd *cobra.Command, args []string) error {
			if runner, err := n8n.NewRunner(s.config.N8NBin); err != nil {
				return err
			} else if sb, err := n8n.NewSandbox(runner, n8n.NewDeserializer(input), out); err != nil {
				return err
			} else {
				return sb.Run(commandContext(cmd), args)
			}
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "protected data archive (default $IEXEC_IN/$IEXEC_DATASET_FILENAME)")
	cmd.Flags().StringVar(&out, "out", "", "result directory (default $IEXEC_OUT)")

	return cmd
}
