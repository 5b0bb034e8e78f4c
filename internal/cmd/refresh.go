package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/azuretools/azprofile/pkg/environments"
)

type refreshFlags struct {
	environment string
}

func (f *refreshFlags) Bind(local *pflag.FlagSet) {
	local.StringVarP(&f.environment, "environment", "e", environments.AzurePublicName, "Environment to refresh against.")
}

func newRefreshCmd(root *rootFlags) *cobra.Command {
	flags := &refreshFlags{}

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Reload subscriptions for every signed-in account.",
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := newManager(root)
			if err != nil {
				return err
			}

			subscriptions, err := manager.Refresh(cmd.Context(), flags.environment)
			if err != nil {
				return err
			}

			if err := manager.Save(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Refreshed %d subscription(s).\n", len(subscriptions))
			return nil
		},
	}
	flags.Bind(cmd.Flags())

	return cmd
}
