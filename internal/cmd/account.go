package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newAccountCmd(root *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage signed-in accounts.",
	}

	cmd.AddCommand(
		newAccountListCmd(root),
		newAccountRemoveCmd(root),
	)

	return cmd
}

func newAccountListCmd(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List signed-in accounts.",
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := newManager(root)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTYPE\tSUBSCRIPTIONS")
			for _, account := range manager.ListAccounts() {
				fmt.Fprintf(w, "%s\t%s\t%d\n", account.ID, account.Type, len(account.Subscriptions))
			}
			return w.Flush()
		},
	}
}

func newAccountRemoveCmd(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove an account and the subscriptions it alone owns.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := newManager(root)
			if err != nil {
				return err
			}

			removed, err := manager.RemoveAccount(args[0])
			if err != nil {
				return err
			}

			if err := manager.Save(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Removed account '%s'.\n", removed.ID)
			return nil
		},
	}
}
