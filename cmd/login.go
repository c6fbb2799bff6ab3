package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newLoginCmd(app *app) *cobra.Command {
	var flags connectionFlags

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Verify admin credentials against the server",
		Long:  "login runs a capability probe with the supplied admin credentials. Credentials are never stored; the command only verifies that the server accepts them.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, resolved, err := app.connect(cmd, flags)
			if err != nil {
				return err
			}

			err = runProbeSpinner(cmd.Context(), cmd.OutOrStdout(), "Trying to log in...", func(ctx context.Context) error {
				return client.Login(ctx, resolved.admin, resolved.password)
			})
			if err != nil {
				return fmt.Errorf("login: %w", err)
			}
			defer client.Logout()

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Login OK, server version %s\n", client.ServerVersion())
			return nil
		},
	}

	addConnectionFlags(cmd, &flags)

	return cmd
}
