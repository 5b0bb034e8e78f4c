package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/azuretools/azprofile/pkg/environments"
)

func newEnvironmentCmd(root *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "environment",
		Aliases: []string{"env"},
		Short:   "Manage environments.",
	}

	cmd.AddCommand(
		newEnvironmentListCmd(root),
		newEnvironmentSetCmd(root),
		newEnvironmentRemoveCmd(root),
	)

	return cmd
}

func newEnvironmentListCmd(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List environments.",
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := newManager(root)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tRESOURCE MANAGER\tACTIVE DIRECTORY")
			for _, env := range manager.ListEnvironments() {
				fmt.Fprintf(w, "%s\t%s\t%s\n",
					env.Name,
					env.Endpoint(environments.EndpointResourceManager),
					env.Endpoint(environments.EndpointActiveDirectory))
			}
			return w.Flush()
		},
	}
}

type environmentSetFlags struct {
	resourceManager   string
	activeDirectory   string
	serviceManagement string
}

func (f *environmentSetFlags) Bind(local *pflag.FlagSet) {
	local.StringVar(&f.resourceManager, "resource-manager", "", "Resource Manager endpoint.")
	local.StringVar(&f.activeDirectory, "active-directory", "", "Active Directory authority endpoint.")
	local.StringVar(&f.serviceManagement, "service-management", "", "Service Management endpoint.")
}

func newEnvironmentSetCmd(root *rootFlags) *cobra.Command {
	flags := &environmentSetFlags{}

	cmd := &cobra.Command{
		Use:   "set <name>",
		Short: "Add or update a custom environment.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := newManager(root)
			if err != nil {
				return err
			}

			env := environments.Environment{
				Name:      args[0],
				Endpoints: map[environments.EndpointKind]string{},
			}
			if flags.resourceManager != "" {
				env.Endpoints[environments.EndpointResourceManager] = flags.resourceManager
			}
			if flags.activeDirectory != "" {
				env.Endpoints[environments.EndpointActiveDirectory] = flags.activeDirectory
			}
			if flags.serviceManagement != "" {
				env.Endpoints[environments.EndpointServiceManagement] = flags.serviceManagement
			}

			stored, err := manager.AddOrSetEnvironment(env)
			if err != nil {
				return err
			}

			if err := manager.Save(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Environment '%s' saved.\n", stored.Name)
			return nil
		},
	}
	flags.Bind(cmd.Flags())

	return cmd
}

func newEnvironmentRemoveCmd(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a custom environment and the subscriptions it owns.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := newManager(root)
			if err != nil {
				return err
			}

			removed, err := manager.RemoveEnvironment(args[0])
			if err != nil {
				return err
			}

			if err := manager.Save(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Removed environment '%s'.\n", removed.Name)
			return nil
		},
	}
}
