// File: cmd/build.go
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"compbuild/pkg/compiler"
	"compbuild/pkg/logging"
	"compbuild/pkg/options"
	"compbuild/pkg/project"
	"compbuild/pkg/transform"
	"compbuild/pkg/watch"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// buildFlags holds the command-line overrides for a build.
type buildFlags struct {
	config          string
	componentType   string
	basicComponents []string
	workers         int
	noDeclaration   bool
	subComponents   bool
	watch           bool
	debounce        time.Duration
}

var buildOpts buildFlags

var buildCmd = &cobra.Command{
	Use:   "build [root]",
	Short: "Compile src into es and lib",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runBuild,
}

func init() {
	f := buildCmd.Flags()
	f.StringVarP(&buildOpts.config, "config", "c", "", "Config file (default: build.json, build.yaml or .compbuildrc.yaml in root)")
	f.StringVarP(&buildOpts.componentType, "type", "t", "", "Component type: react or rax")
	f.StringSliceVarP(&buildOpts.basicComponents, "basic", "b", nil, "Basic component libraries, e.g. antd,@alifd/next")
	f.IntVarP(&buildOpts.workers, "workers", "w", 0, "Files processed concurrently per target (0 = number of CPUs)")
	f.BoolVar(&buildOpts.noDeclaration, "no-declaration", false, "Skip type declaration output")
	f.BoolVar(&buildOpts.subComponents, "sub-components", false, "Generate style entries for first-level output folders")
	f.BoolVar(&buildOpts.watch, "watch", false, "Rebuild when src changes")
	f.DurationVar(&buildOpts.debounce, "debounce", watch.DefaultDebounce, "Quiet period before a watch rebuild")
	RootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	logger := logging.Logger

	req, err := buildRequest(cmd, args, &buildOpts, logger)
	if err != nil {
		return err
	}

	if !buildOpts.watch {
		_, err := compiler.Compile(cmd.Context(), *req)
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := compiler.Compile(ctx, *req); err != nil {
		logger.Error("Initial build failed", zap.Error(err))
	}

	w, err := watch.New(req.Context.SourceDir(), func(ctx context.Context) error {
		_, err := compiler.Compile(ctx, *req)
		return err
	}, buildOpts.debounce, logger)
	if err != nil {
		return err
	}
	return w.Run(ctx)
}

// buildRequest loads the package and its options and applies the flag
// overrides in fl that were set on cmd.
func buildRequest(cmd *cobra.Command, args []string, fl *buildFlags, logger *zap.Logger) (*compiler.Request, error) {
	root := "."
	if len(args) > 0 {
		root = args[0]
	}

	pctx, err := project.LoadContext(root)
	if err != nil {
		return nil, err
	}

	opts, err := options.NewLoader().Load(pctx.RootDir, fl.config)
	if err != nil {
		return nil, fmt.Errorf("failed to load options: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("type") {
		opts.Type = fl.componentType
	}
	if flags.Changed("basic") {
		opts.BasicComponents = fl.basicComponents
	}
	if flags.Changed("workers") {
		opts.Workers = fl.workers
	}
	if flags.Changed("sub-components") {
		opts.SubComponents = fl.subComponents
	}
	if fl.noDeclaration {
		opts.SetDeclaration(false)
	}

	return &compiler.Request{
		Context:         pctx,
		Logger:          logger,
		BasicComponents: opts.BasicComponents,
		Options:         opts,
		Type:            transform.ParseComponentType(opts.Type),
	}, nil
}
