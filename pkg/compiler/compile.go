// File: pkg/compiler/compile.go
package compiler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"compbuild/pkg/dts"
	"compbuild/pkg/options"
	"compbuild/pkg/project"
	"compbuild/pkg/style"
	"compbuild/pkg/transform"

	"go.uber.org/zap"
)

// Compile produces the es and lib trees for the package in req.Context.
// Targets are processed strictly in order; each destination is emptied
// before anything is written into it.
func Compile(ctx context.Context, req Request) (*Result, error) {
	if req.Context == nil || req.Context.Pkg == nil {
		return nil, errors.New("compile request has no package context")
	}
	startTime := time.Now()

	logger := req.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	opts := req.Options
	if opts == nil {
		opts = &options.UserOptions{}
	}
	tr := req.Transformer
	if tr == nil {
		tr = transform.NewESBuild(req.Context.RootDir, logger)
	}
	styles := req.Styles
	if styles == nil {
		styles = style.NewEntryGenerator()
	}
	declarations := req.Declarations
	if declarations == nil {
		declarations = dts.NewTSC()
	}

	rootDir := req.Context.RootDir
	srcDir := req.Context.SourceDir()
	logger.Info("Starting compile",
		zap.String("package", req.Context.Pkg.Name),
		zap.String("rootDir", rootDir),
		zap.String("type", string(req.Type)))

	componentLibs := project.AnalyzePackage(req.Context.Pkg, req.BasicComponents)
	logger.Debug("Resolved component libraries", zap.Strings("componentLibs", componentLibs))

	files, err := CollectSources(srcDir, logger)
	if err != nil {
		logger.Error("Failed to collect sources", zap.Error(err))
		return nil, err
	}

	result := &Result{}
	for _, target := range transform.Targets() {
		destPath := filepath.Join(rootDir, string(target))
		if err := emptyDirectory(destPath, logger); err != nil {
			return nil, err
		}

		jobs := make([]fileJob, 0, len(files))
		for _, rel := range files {
			jobs = append(jobs, fileJob{
				relPath:  rel,
				kind:     transform.Classify(rel),
				target:   target,
				srcDir:   srcDir,
				destPath: destPath,
			})
		}

		params := transform.Params{
			Target:        target,
			ComponentLibs: componentLibs,
			RootDir:       rootDir,
			Plugins:       opts.BabelPlugins,
			Options:       opts.BabelOptions,
			Type:          req.Type,
			Alias:         opts.Alias,
		}

		res, err := processFiles(ctx, jobs, params, tr, opts.Workers, logger)
		result.Copied += res.copied
		result.CopyFailures += res.copyFailures
		if err != nil {
			logger.Error("Compile aborted", zap.String("target", string(target)), zap.Error(err))
			return nil, err
		}
		result.CompileInfos = append(result.CompileInfos, res.infos...)

		if req.Type == transform.TypeReact {
			if err := generateStyles(ctx, styles, req, opts, target, destPath, logger); err != nil {
				return nil, err
			}
		}
	}

	sort.SliceStable(result.CompileInfos, func(i, j int) bool {
		a, b := result.CompileInfos[i], result.CompileInfos[j]
		if a.DestPath != b.DestPath {
			return a.DestPath < b.DestPath
		}
		return a.FilePath < b.FilePath
	})

	if opts.DeclarationEnabled() {
		if err := declarations.Compile(ctx, result.CompileInfos, logger); err != nil {
			return nil, fmt.Errorf("failed to generate declarations: %w", err)
		}
	}

	logger.Info("Generate es and lib successfully",
		zap.Int("compiled", len(result.CompileInfos)),
		zap.Int("copied", result.Copied),
		zap.Int("copyFailures", result.CopyFailures),
		zap.Duration("elapsed", time.Since(startTime)))
	return result, nil
}

// generateStyles runs style generation for every first-level folder when
// sub-components are enabled, then for the destination root.
func generateStyles(ctx context.Context, styles style.Generator, req Request, opts *options.UserOptions, target transform.Target, destPath string, logger *zap.Logger) error {
	base := style.Request{
		RootDir:         req.Context.RootDir,
		BasicComponents: req.BasicComponents,
		Target:          target,
		Logger:          logger,
	}

	if opts.SubComponents {
		entries, err := os.ReadDir(destPath)
		if err != nil {
			return fmt.Errorf("failed to list %s: %w", destPath, err)
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			sub := base
			sub.DestPath = filepath.Join(destPath, entry.Name())
			sub.Folder = entry.Name()
			if err := styles.Generate(ctx, sub); err != nil {
				return fmt.Errorf("style generation failed for %s: %w", sub.DestPath, err)
			}
		}
	}

	root := base
	root.DestPath = destPath
	if err := styles.Generate(ctx, root); err != nil {
		return fmt.Errorf("style generation failed for %s: %w", destPath, err)
	}
	return nil
}
