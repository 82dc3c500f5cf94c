package cmd

import (
	"encoding/json"
	"fmt"

	"compbuild/pkg/project"
	"compbuild/pkg/transform"

	"github.com/spf13/cobra"
)

// inspectFlags holds the inspect command's own flag values.
type inspectFlags struct {
	buildFlags
	target string
}

var inspectOpts inspectFlags

// inspectCmd prints the transformer configuration a build would use.
var inspectCmd = &cobra.Command{
	Use:   "inspect [root]",
	Short: "Print the assembled transformer configuration for a target",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target, err := transform.ParseTarget(inspectOpts.target)
		if err != nil {
			return err
		}

		req, err := buildRequest(cmd, args, &inspectOpts.buildFlags, nil)
		if err != nil {
			return err
		}

		cfg := transform.BuildConfig(transform.Params{
			Target:        target,
			ComponentLibs: project.AnalyzePackage(req.Context.Pkg, req.BasicComponents),
			RootDir:       req.Context.RootDir,
			Plugins:       req.Options.BabelPlugins,
			Options:       req.Options.BabelOptions,
			Type:          req.Type,
			Alias:         req.Options.Alias,
		})

		out, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode configuration: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

func init() {
	f := inspectCmd.Flags()
	f.StringVar(&inspectOpts.target, "target", string(transform.TargetES), "Compile target: es or lib")
	f.StringVarP(&inspectOpts.config, "config", "c", "", "Config file")
	f.StringVarP(&inspectOpts.componentType, "type", "t", "", "Component type: react or rax")
	f.StringSliceVarP(&inspectOpts.basicComponents, "basic", "b", nil, "Basic component libraries")
	RootCmd.AddCommand(inspectCmd)
}
