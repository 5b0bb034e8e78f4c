package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/azuretools/azprofile/pkg/environments"
	"github.com/azuretools/azprofile/pkg/profile"
)

type loginFlags struct {
	environment  string
	username     string
	clientID     string
	clientSecret string
	tenantID     string
}

func (f *loginFlags) Bind(local *pflag.FlagSet) {
	local.StringVarP(&f.environment, "environment", "e", environments.AzurePublicName, "Environment to sign in to.")
	local.StringVarP(&f.username, "username", "u", "", "User to sign in as. Discovered from the token when omitted.")
	local.StringVar(&f.clientID, "client-id", "", "Client id of a service principal to sign in as.")
	local.StringVar(&f.clientSecret, "client-secret", "", "Client secret of the service principal.")
	local.StringVar(&f.tenantID, "tenant-id", "", "Tenant of the service principal.")
}

func newLoginCmd(root *rootFlags) *cobra.Command {
	flags := &loginFlags{}

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and load the account's subscriptions.",
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := newManager(root)
			if err != nil {
				return err
			}

			account := profile.Account{
				ID:   flags.username,
				Type: profile.AccountTypeUser,
			}
			if flags.clientID != "" {
				if flags.tenantID == "" {
					return fmt.Errorf("--tenant-id is required with --client-id")
				}
				account = profile.Account{
					ID:      flags.clientID,
					Type:    profile.AccountTypeServicePrincipal,
					Tenants: []string{flags.tenantID},
				}
			}

			loggedIn, err := manager.Login(cmd.Context(), account, flags.environment, flags.clientSecret)
			if err != nil {
				return err
			}

			if err := manager.Save(); err != nil {
				return err
			}

			fmt.Fprintf(
				cmd.OutOrStdout(),
				"Signed in as '%s' with %d subscription(s).\n",
				loggedIn.ID,
				len(loggedIn.Subscriptions),
			)
			return nil
		},
	}
	flags.Bind(cmd.Flags())

	return cmd
}
