package cli

import (
	"github.com/grexie/n8n-protector/pkg/protector"
	"github.com/spf13/cobra"
)

func grantCmd(s *state) *cobra.Command {
	var req protector.AccessRequest

	cmd := &cobra.Command{
		Use:   "grant <protected-data>",
		Short: "Grant a user and app access to protected data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.AppAddress == "" {
				req.AppAddress = s.config.App
			}

			if p, err := s.protector(); err != nil {
				return err
			} else if r, err := p.GrantAccess(commandContext(cmd), args[0], req); err != nil {
				return err
			} else {
				return printJSON(cmd.OutOrStdout(), r)
			}
		},
	}

	cmd.Flags().StringVar(&req.UserAddress, "user", "", "authorized user address or ENS name")
	cmd.Flags().StringVar(&req.AppAddress, "app", "", "authorized app address or ENS name (default DATAPROTECTOR_APP)")
	cmd.Flags().Int64Var(&req.NumberOfAccess, "number", 1, "number of access")
	cmd.Flags().Uint64Var(&req.PricePerAccess, "price", 0, "price per access in nRLC")

	return cmd
}

func revokeCmd(s *state) *cobra.Command {
	var req protector.RevokeRequest

	cmd := &cobra.Command{
		Use:   "revoke <protected-data>",
		Short: "Revoke the first access granted to a user and app",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.AppAddress == "" {
				req.AppAddress = s.config.App
			}

			if p, err := s.protector(); err != nil {
				return err
			} else if r, err := p.RevokeAccess(commandContext(cmd), args[0], req); err != nil {
				return err
			} else {
				return printJSON(cmd.OutOrStdout(), r)
			}
		},
	}

	cmd.Flags().StringVar(&req.UserAddress, "user", "", "user address or ENS name")
	cmd.Flags().StringVar(&req.AppAddress, "app", "", "app address or ENS name (default DATAPROTECTOR_APP)")

	return cmd
}

func accessCmd(s *state) *cobra.Command {
	var user, app string

	cmd := &cobra.Command{
		Use:   "access <protected-data>",
		Short: "List access granted on protected data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if p, err := s.protector(); err != nil {
				return err
			} else if r, err := p.GrantedAccess(commandContext(cmd), args[0], user, app); err != nil {
				return err
			} else {
				return printJSON(cmd.OutOrStdout(), r)
			}
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "filter by user")
	cmd.Flags().StringVar(&app, "app", "", "filter by app")

	return cmd
}
