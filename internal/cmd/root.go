// Package cmd wires the profile operations into a cobra command tree.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/azuretools/azprofile/pkg/auth"
	"github.com/azuretools/azprofile/pkg/directory"
	"github.com/azuretools/azprofile/pkg/profile"
	"github.com/azuretools/azprofile/pkg/reconcile"
)

const profileDirName = ".azprofile"

type rootFlags struct {
	profileDir string
}

func (f *rootFlags) Bind(global *pflag.FlagSet) {
	global.StringVar(
		&f.profileDir,
		"profile-dir",
		"",
		"Directory holding the profile files. Defaults to $HOME/"+profileDirName+".",
	)
}

// NewRootCmd builds the azprofile command tree.
func NewRootCmd() *cobra.Command {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:           "azprofile",
		Short:         "Manage Azure accounts, subscriptions and environments.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags.Bind(rootCmd.PersistentFlags())

	rootCmd.AddCommand(
		newLoginCmd(flags),
		newRefreshCmd(flags),
		newAccountCmd(flags),
		newSubscriptionCmd(flags),
		newEnvironmentCmd(flags),
		newImportCmd(flags),
	)

	return rootCmd
}

// newManager builds the full reconciliation stack over the on-disk profile.
func newManager(flags *rootFlags) (*reconcile.Manager, error) {
	dir := flags.profileDir
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("locating user home: %w", err)
		}
		dir = filepath.Join(home, profileDirName)
	}

	store, err := profile.Open(profile.NewOsFileStore(dir), dir)
	if err != nil {
		return nil, err
	}

	authenticator := auth.NewIdentityAuthenticator(nil)
	resourceManager := directory.NewResourceManagerDirectory(nil)
	enumerator := directory.NewEnumerator(
		authenticator,
		resourceManager,
		[]directory.SubscriptionLister{
			resourceManager,
			directory.NewServiceManagementDirectory(nil),
		},
		directory.WithWarningFunc(printWarning),
	)

	return reconcile.NewManager(
		store,
		profile.NewSession(),
		enumerator,
		reconcile.WithWarningFunc(printWarning),
	), nil
}

func printWarning(message string) {
	fmt.Fprintln(os.Stderr, color.YellowString("WARNING: %s", message))
}
