package cmd

import "github.com/spf13/cobra"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "ncu",
		Short:         "Nextcloud bulk user provisioning (ncu): create accounts from a roster file",
		Long:          "ncu drives the Nextcloud/ownCloud OCS provisioning API to create many user accounts from a roster file, check user and group existence, and inspect server capabilities from the terminal.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	app, err := wireApp()
	if err != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		return rootCmd
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newLoginCmd(app),
		newUsersCmd(app),
		newGroupCmd(app),
		newStatusCmd(app),
	)

	return rootCmd
}
