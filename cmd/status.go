package cmd

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/tgruber/ncusers/internal/domain"
)

func newStatusCmd(app *app) *cobra.Command {
	var flags connectionFlags

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show server version and capabilities",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, resolved, err := app.connect(cmd, flags)
			if err != nil {
				return err
			}

			err = runProbeSpinner(cmd.Context(), cmd.OutOrStdout(), "Fetching capabilities...", func(ctx context.Context) error {
				return client.Login(ctx, resolved.admin, resolved.password)
			})
			if err != nil {
				return fmt.Errorf("fetch capabilities: %w", err)
			}
			defer client.Logout()

			info := domain.ServerInfo{
				Version:      client.ServerVersion(),
				Capabilities: client.ServerCapabilities(),
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "server version: %s\n", info.Version)

			apps := make([]string, 0, len(info.Capabilities))
			for name := range info.Capabilities {
				apps = append(apps, name)
			}
			sort.Strings(apps)

			for _, name := range apps {
				_, _ = fmt.Fprintf(out, "%s\n", name)

				keys := make([]string, 0, len(info.Capabilities[name]))
				for key := range info.Capabilities[name] {
					keys = append(keys, key)
				}
				sort.Strings(keys)

				for _, key := range keys {
					_, _ = fmt.Fprintf(out, "  %s = %s\n", key, info.Capabilities[name][key])
				}
			}

			return nil
		},
	}

	addConnectionFlags(cmd, &flags)

	return cmd
}
