package cli

import (
	"fmt"
	"os"

	"github.com/grexie/n8n-protector/pkg/dataprotector"
	"github.com/grexie/n8n-protector/pkg/protector"
	"github.com/spf13/cobra"
)

func protectCmd(s *state) *cobra.Command {
	var name, credentialsFile, workflowsFile, uploadMode string

	cmd := &cobra.Command{
		Use:   "protect",
		Short: "Protect an n8n credentials and workflows export",
		RunE: func(cmd *cobra.Command, args []string) error {
			credentials, err := readOptional(credentialsFile)
			if err != nil {
				return err
			}
			workflows, err := readOptional(workflowsFile)
			if err != nil {
				return err
			}

			p, err := s.protector()
			if err != nil {
				return err
			}

			if w, err := p.ProtectWorkflow(commandContext(cmd), protector.ProtectRequest{
				Name:            name,
				CredentialsJSON: credentials,
				WorkflowsJSON:   workflows,
				UploadMode:      dataprotector.UploadMode(uploadMode),
			}); err != nil {
				return err
			} else {
				return printJSON(cmd.OutOrStdout(), w)
			}
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "workflow name")
	cmd.Flags().StringVar(&credentialsFile, "credentials", "", "n8n credentials export (json)")
	cmd.Flags().StringVar(&workflowsFile, "workflows", "", "n8n workflows export (json)")
	cmd.Flags().StringVar(&uploadMode, "upload-mode", string(dataprotector.UploadModeIPFS), "ipfs or arweave")

	return cmd
}

func readOptional(path string) (string, error) {
	if path == "" {
		return "", nil
	} else if b, err := os.ReadFile(path); err != nil {
		return "", fmt.Errorf("error reading %s: %w", path, err)
	} else {
		return string(b), nil
	}
}

func workflowsCmd(s *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workflows",
		Short: "Manage the local catalog of protected workflows",
	}

	var offset, count int64
	list := &cobra.Command{
		Use:   "list",
		Short: "List protected workflows",
		RunE: func(cmd *cobra.Command, args []string) error {
			if p, err := s.protector(); err != nil {
				return err
			} else if r, err := p.ListWorkflows(commandContext(cmd), offset, count); err != nil {
				return err
			} else {
				return printJSON(cmd.OutOrStdout(), r)
			}
		},
	}
	list.Flags().Int64Var(&offset, "offset", 0, "entries to skip")
	list.Flags().Int64Var(&count, "count", 0, "entries to return (0 for all)")

	show := &cobra.Command{
		Use:   "show <address>",
		Short: "Show a protected workflow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if p, err := s.protector(); err != nil {
				return err
			} else if w, err := p.GetWorkflow(commandContext(cmd), args[0]); err != nil {
				return err
			} else {
				return printJSON(cmd.OutOrStdout(), w)
			}
		},
	}

	remove := &cobra.Command{
		Use:   "remove <address>",
		Short: "Remove a protected workflow from the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if p, err := s.protector(); err != nil {
				return err
			} else {
				return p.RemoveWorkflow(commandContext(cmd), args[0])
			}
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every entry from the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			if p, err := s.protector(); err != nil {
				return err
			} else {
				return p.ClearWorkflows(commandContext(cmd))
			}
		},
	}

	cmd.AddCommand(list, show, remove, clearCmd)
	return cmd
}
