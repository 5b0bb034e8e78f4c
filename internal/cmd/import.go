package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type importFlags struct {
	environment string
}

func (f *importFlags) Bind(local *pflag.FlagSet) {
	local.StringVarP(&f.environment, "environment", "e", "", "Environment the imported subscriptions belong to.")
}

func newImportCmd(root *rootFlags) *cobra.Command {
	flags := &importFlags{}

	cmd := &cobra.Command{
		Use:   "import <publish-settings-file>",
		Short: "Import subscriptions from a publish settings file.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := newManager(root)
			if err != nil {
				return err
			}

			imported, err := manager.ImportPublishSettings(args[0], flags.environment)
			if err != nil {
				return err
			}

			if err := manager.Save(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d subscription(s).\n", len(imported))
			return nil
		},
	}
	flags.Bind(cmd.Flags())

	return cmd
}
