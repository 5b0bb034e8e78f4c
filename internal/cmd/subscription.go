package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func newSubscriptionCmd(root *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "subscription",
		Aliases: []string{"sub"},
		Short:   "Manage subscriptions and the default selection.",
	}

	cmd.AddCommand(
		newSubscriptionListCmd(root),
		newSubscriptionRemoveCmd(root),
		newSubscriptionSetDefaultCmd(root),
		newSubscriptionClearDefaultCmd(root),
	)

	return cmd
}

func newSubscriptionListCmd(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List subscriptions.",
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := newManager(root)
			if err != nil {
				return err
			}

			defaultID := ""
			if def := manager.DefaultSubscription(); def != nil {
				defaultID = def.ID
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tENVIRONMENT\tACCOUNT\tMODES\tDEFAULT")
			for _, sub := range manager.ListSubscriptions() {
				marker := ""
				if strings.EqualFold(sub.ID, defaultID) {
					marker = "*"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					sub.ID, sub.Name, sub.Environment, sub.Account,
					strings.Join(sub.SupportedModes, ","), marker)
			}
			return w.Flush()
		},
	}
}

func newSubscriptionRemoveCmd(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id-or-name>",
		Short: "Remove a subscription and detach it from its accounts.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := newManager(root)
			if err != nil {
				return err
			}

			removed, err := manager.RemoveSubscription(args[0])
			if err != nil {
				// Fall back to display-name lookup when the argument is not
				// an id.
				removed, err = manager.RemoveSubscriptionByName(args[0])
			}
			if err != nil {
				return err
			}

			if err := manager.Save(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Removed subscription '%s'.\n", removed.Name)
			return nil
		},
	}
}

type setDefaultFlags struct {
	account string
}

func (f *setDefaultFlags) Bind(local *pflag.FlagSet) {
	local.StringVarP(&f.account, "account", "a", "", "Account to pair with the selection. Defaults to the subscription's owner.")
}

func newSubscriptionSetDefaultCmd(root *rootFlags) *cobra.Command {
	flags := &setDefaultFlags{}

	cmd := &cobra.Command{
		Use:   "set-default <name>",
		Short: "Select the default subscription.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := newManager(root)
			if err != nil {
				return err
			}

			sub, err := manager.SetDefault(args[0], flags.account)
			if err != nil {
				return err
			}

			if err := manager.Save(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Default subscription is now '%s' (%s).\n", sub.Name, sub.ID)
			return nil
		},
	}
	flags.Bind(cmd.Flags())

	return cmd
}

func newSubscriptionClearDefaultCmd(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-default",
		Short: "Clear the default subscription.",
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := newManager(root)
			if err != nil {
				return err
			}

			manager.ClearDefault()
			return manager.Save()
		},
	}
}
