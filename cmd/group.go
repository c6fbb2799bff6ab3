package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newGroupCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "group",
		Short: "Inspect groups",
	}

	cmd.AddCommand(newGroupCheckCmd(app))

	return cmd
}

func newGroupCheckCmd(app *app) *cobra.Command {
	var flags connectionFlags

	cmd := &cobra.Command{
		Use:   "check <group>",
		Short: "Check whether a group exists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, resolved, err := app.connect(cmd, flags)
			if err != nil {
				return err
			}

			if err := client.Login(cmd.Context(), resolved.admin, resolved.password); err != nil {
				return fmt.Errorf("login: %w", err)
			}
			defer client.Logout()

			exists, err := client.GroupExists(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("check group %q: %w", args[0], err)
			}

			if exists {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "group %q exists\n", args[0])
			} else {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "group %q does not exist\n", args[0])
			}
			return nil
		},
	}

	addConnectionFlags(cmd, &flags)

	return cmd
}
