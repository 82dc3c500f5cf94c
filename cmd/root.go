package cmd

import (
	"context"

	"compbuild/pkg/logging"
	"compbuild/pkg/version"

	"github.com/spf13/cobra"
)

var debug bool

// RootCmd is the base command when called without any subcommands.
var RootCmd = &cobra.Command{
	Use:   "compbuild",
	Short: "compbuild compiles component packages into es and lib output",
	Long: `compbuild compiles a component package's src tree into two parallel outputs:
es (ES modules) and lib (CommonJS). Sources are transformed, other files are
copied verbatim, and type declarations and style entries are generated.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_, err := logging.Setup(debug, "compbuild", version.Get().Version)
		return err
	},
}

func init() {
	RootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
}

// Execute adds all child commands to the root command and runs it.
func Execute(ctx context.Context) error {
	return RootCmd.ExecuteContext(ctx)
}
