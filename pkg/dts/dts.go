// File: pkg/dts/dts.go
package dts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// CompileInfo records one transformed file.
type CompileInfo struct {
	FilePath   string // Path relative to the source directory
	SourceFile string // Absolute source path
	DestPath   string // Destination directory of the target
}

// Compiler emits type declarations for compiled files.
type Compiler interface {
	Compile(ctx context.Context, infos []CompileInfo, logger *zap.Logger) error
}

// Runner executes a command in dir and returns its combined output.
type Runner func(ctx context.Context, dir, name string, args ...string) ([]byte, error)

// TSC emits declarations with the TypeScript compiler.
type TSC struct {
	Binary string // Explicit tsc path; looked up per package when empty
	Run    Runner // Command runner; exec.CommandContext when nil
}

// NewTSC returns a declaration compiler that locates tsc on its own.
func NewTSC() *TSC {
	return &TSC{}
}

// Compile runs tsc once per destination directory for the TypeScript
// sources in infos. Nothing to do, or no tsc available, is not an error.
func (c *TSC) Compile(ctx context.Context, infos []CompileInfo, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	groups := groupByDest(infos)
	if len(groups) == 0 {
		logger.Debug("No TypeScript sources, skipping declarations")
		return nil
	}

	var errs error
	for _, g := range groups {
		bin, err := c.binary(g.srcDir)
		if err != nil {
			logger.Warn("TypeScript compiler not found, skipping declarations", zap.Error(err))
			return nil
		}

		args := append([]string{
			"--declaration",
			"--emitDeclarationOnly",
			"--skipLibCheck",
			"--jsx", "preserve",
			"--rootDir", g.srcDir,
			"--outDir", g.destPath,
		}, g.files...)

		logger.Debug("Emitting declarations", zap.String("destPath", g.destPath), zap.Int("files", len(g.files)))
		out, err := c.run(ctx, filepath.Dir(g.srcDir), bin, args...)
		if err != nil {
			logger.Error("Declaration generation failed",
				zap.String("destPath", g.destPath),
				zap.String("output", strings.TrimSpace(string(out))),
				zap.Error(err))
			errs = multierr.Append(errs, fmt.Errorf("declarations for %s: %w", g.destPath, err))
			continue
		}
		logger.Info("Generated declarations", zap.String("destPath", g.destPath), zap.Int("files", len(g.files)))
	}
	return errs
}

type group struct {
	destPath string
	srcDir   string
	files    []string
}

// groupByDest collects .ts/.tsx sources per destination, sorted.
func groupByDest(infos []CompileInfo) []*group {
	byDest := map[string]*group{}
	for _, info := range infos {
		ext := strings.ToLower(filepath.Ext(info.SourceFile))
		if ext != ".ts" && ext != ".tsx" {
			continue
		}
		g, ok := byDest[info.DestPath]
		if !ok {
			srcDir := strings.TrimSuffix(info.SourceFile, filepath.FromSlash(info.FilePath))
			g = &group{destPath: info.DestPath, srcDir: filepath.Clean(srcDir)}
			byDest[info.DestPath] = g
		}
		g.files = append(g.files, info.SourceFile)
	}

	groups := make([]*group, 0, len(byDest))
	for _, g := range byDest {
		sort.Strings(g.files)
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].destPath < groups[j].destPath })
	return groups
}

// binary prefers the package's own tsc over one on $PATH.
func (c *TSC) binary(srcDir string) (string, error) {
	if c.Binary != "" {
		return c.Binary, nil
	}
	local := filepath.Join(filepath.Dir(srcDir), "node_modules", ".bin", "tsc")
	if _, err := os.Stat(local); err == nil {
		return local, nil
	}
	path, err := exec.LookPath("tsc")
	if err != nil {
		return "", errors.New("tsc is neither installed in node_modules nor on PATH")
	}
	return path, nil
}

func (c *TSC) run(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	if c.Run != nil {
		return c.Run(ctx, dir, name, args...)
	}
	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	return out.Bytes(), err
}
