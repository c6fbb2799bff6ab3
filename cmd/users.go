package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tgruber/ncusers/internal/adapters/render/report"
	"github.com/tgruber/ncusers/internal/adapters/roster"
	"github.com/tgruber/ncusers/internal/application"
	"github.com/tgruber/ncusers/internal/domain"
	"github.com/tgruber/ncusers/internal/ports"
)

func newUsersCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Provision and inspect user accounts",
	}

	cmd.AddCommand(newUsersCreateCmd(app), newUsersCheckCmd(app))

	return cmd
}

func newUsersCreateCmd(app *app) *cobra.Command {
	var flags connectionFlags
	var file string
	var format string
	var group string
	var yes bool

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create user accounts from a roster file",
		Long:  "create reads a roster of (first, last, password) records, asks for confirmation, then creates each account on the server and adds it to the target group. Accounts that already exist are skipped; one account's failure never stops the batch.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()

			rosterFormat := roster.Format(format)
			if format == "" {
				rosterFormat = roster.DetectFormat(file)
			}
			if !rosterFormat.Valid() {
				return fmt.Errorf("%w: %q", roster.ErrUnsupportedFormat, format)
			}

			records, warnings, err := roster.ParseFile(file, rosterFormat)
			if err != nil {
				return err
			}
			for _, warning := range warnings {
				_, _ = fmt.Fprintln(out, "WARNING "+warning)
			}
			_, _ = fmt.Fprintf(out, "Found %d account records\n", len(records))

			if group == "" {
				group = app.config.GetString(configKeyGroup)
			}

			client, resolved, err := app.connect(cmd, flags)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintln(out, "Trying to log in")
			if err := client.Login(cmd.Context(), resolved.admin, resolved.password); err != nil {
				return fmt.Errorf("login: %w", err)
			}
			_, _ = fmt.Fprintf(out, "Login OK, server version %s\n", client.ServerVersion())

			var confirm ports.Confirmer
			if yes {
				confirm = autoConfirmer{out: out}
			} else {
				confirm = terminalConfirmer{in: cmd.InOrStdin(), out: out}
			}

			sink := newChannelSink(len(records))
			service := application.NewBatchService(client, sink, confirm, app.clock)

			type runResult struct {
				outcome domain.BatchOutcome
				err     error
			}
			done := make(chan runResult, 1)
			go func() {
				outcome, runErr := service.Run(cmd.Context(), application.BatchRequest{
					Group:   group,
					Records: records,
				})
				sink.close()
				done <- runResult{outcome: outcome, err: runErr}
			}()

			for event := range sink.events {
				_, _ = fmt.Fprintln(out, event)
			}

			result := <-done
			if result.err != nil {
				return result.err
			}

			_, _ = fmt.Fprintln(out, report.RenderOutcome(result.outcome))
			return nil
		},
	}

	addConnectionFlags(cmd, &flags)
	cmd.Flags().StringVar(&file, "file", "", "Roster file with first, last, password records")
	cmd.Flags().StringVar(&format, "format", "", "Roster format: csv or toml (default by file extension)")
	cmd.Flags().StringVar(&group, "group", "", "Target group for created accounts (default from config create.group)")
	cmd.Flags().BoolVar(&yes, "yes", false, "Skip the interactive confirmation")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func newUsersCheckCmd(app *app) *cobra.Command {
	var flags connectionFlags

	cmd := &cobra.Command{
		Use:   "check <username>",
		Short: "Check whether a username exists",
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

			exists, err := client.UserExists(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("check user %q: %w", args[0], err)
			}

			if exists {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "user %q exists\n", args[0])
			} else {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "user %q does not exist\n", args[0])
			}
			return nil
		},
	}

	addConnectionFlags(cmd, &flags)

	return cmd
}
