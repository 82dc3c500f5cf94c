// File: pkg/transform/transformer.go
package transform

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/evanw/esbuild/pkg/api"
	"go.uber.org/zap"
)

// Transformer turns one source file into output code for a configuration.
type Transformer interface {
	TransformFile(ctx context.Context, sourceFile, filename string, cfg *Config) (string, error)
}

// TransformError carries the diagnostics of a failed transform.
type TransformError struct {
	File     string   // Source file that failed
	Messages []string // Formatted diagnostics
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("failed to transform %s:\n%s", e.File, strings.Join(e.Messages, "\n"))
}

// ESBuild is a Transformer backed by esbuild. Module syntax is produced as ES
// modules first so import rewriting always sees one shape, then converted to
// CommonJS when the configuration asks for it.
type ESBuild struct {
	RootDir string      // Package root, used by path-resolving plugins
	Logger  *zap.Logger // Optional logger for diagnostics
}

// NewESBuild returns an esbuild backed transformer for the package at rootDir.
func NewESBuild(rootDir string, logger *zap.Logger) *ESBuild {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ESBuild{RootDir: rootDir, Logger: logger}
}

// TransformFile reads sourceFile and transforms it. filename is the source
// path relative to src, used in diagnostics and for preset ignore matching.
func (t *ESBuild) TransformFile(ctx context.Context, sourceFile, filename string, cfg *Config) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	source, err := os.ReadFile(sourceFile)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", sourceFile, err)
	}

	for _, pattern := range cfg.Preset.Ignore {
		if ok, _ := doublestar.Match(pattern, filepath.ToSlash(filename)); ok {
			t.Logger.Debug("Preset ignores file", zap.String("file", filename), zap.String("pattern", pattern))
			return string(source), nil
		}
	}

	return t.Transform(string(source), sourceFile, cfg)
}

// Transform compiles code that was read from sourceFile.
func (t *ESBuild) Transform(code, sourceFile string, cfg *Config) (string, error) {
	overrides, err := MergeOverrides(cfg.Options)
	if err != nil {
		return "", err
	}

	loader, err := loaderFor(sourceFile)
	if err != nil {
		return "", err
	}

	p, err := loadPlugins(cfg.Plugins, t.RootDir)
	if err != nil {
		return "", err
	}

	opts := api.TransformOptions{
		Loader:      loader,
		Format:      api.FormatESModule,
		Sourcefile:  sourceFile,
		JSX:         api.JSXTransform,
		JSXFactory:  cfg.Preset.JSXFactory,
		JSXFragment: cfg.Preset.JSXFragment,
		Target:      api.ES2015,
		Platform:    api.PlatformNeutral,
		Charset:     api.CharsetUTF8,
	}
	if err := overrides.apply(&opts); err != nil {
		return "", err
	}

	// Banner and footer belong to the last pass only; esbuild drops
	// plain comments when it reprints.
	first := opts
	if cfg.Modules {
		first.Banner, first.Footer = "", ""
	}

	var out string
	if len(p.resolvers) > 0 {
		out, err = t.bundle(code, sourceFile, first, p.resolvers)
	} else {
		out, err = t.run(code, sourceFile, first)
	}
	if err != nil {
		return "", err
	}

	for _, rw := range p.rewriters {
		if out, err = rw.Rewrite(out, sourceFile); err != nil {
			return "", fmt.Errorf("import rewrite failed on %s: %w", sourceFile, err)
		}
	}

	if !cfg.Modules {
		return out, nil
	}

	cjs := api.TransformOptions{
		Loader:            api.LoaderJS,
		Format:            api.FormatCommonJS,
		Sourcefile:        sourceFile,
		Target:            opts.Target,
		Platform:          api.PlatformNeutral,
		Charset:           api.CharsetUTF8,
		MinifyWhitespace:  opts.MinifyWhitespace,
		MinifyIdentifiers: opts.MinifyIdentifiers,
		MinifySyntax:      opts.MinifySyntax,
		KeepNames:         opts.KeepNames,
		Banner:            opts.Banner,
		Footer:            opts.Footer,
	}
	return t.run(out, sourceFile, cjs)
}

// bundle runs the first pass through esbuild's build API so resolvers see
// real import sites. Every import stays external; nothing is inlined.
func (t *ESBuild) bundle(code, sourceFile string, opts api.TransformOptions, resolvers []*resolver) (string, error) {
	build := api.BuildOptions{
		Stdin: &api.StdinOptions{
			Contents:   code,
			ResolveDir: filepath.Dir(sourceFile),
			Sourcefile: sourceFile,
			Loader:     opts.Loader,
		},
		Bundle:            true,
		Write:             false,
		TreeShaking:       api.TreeShakingFalse,
		LogLevel:          api.LogLevelSilent,
		TsconfigRaw:       "{}",
		Format:            opts.Format,
		Target:            opts.Target,
		Platform:          opts.Platform,
		Charset:           opts.Charset,
		JSX:               opts.JSX,
		JSXFactory:        opts.JSXFactory,
		JSXFragment:       opts.JSXFragment,
		Define:            opts.Define,
		Drop:              opts.Drop,
		MinifyWhitespace:  opts.MinifyWhitespace,
		MinifyIdentifiers: opts.MinifyIdentifiers,
		MinifySyntax:      opts.MinifySyntax,
		KeepNames:         opts.KeepNames,
		Plugins:           []api.Plugin{resolvePlugin(resolvers, sourceFile)},
	}
	if opts.Banner != "" {
		build.Banner = map[string]string{"js": opts.Banner}
	}
	if opts.Footer != "" {
		build.Footer = map[string]string{"js": opts.Footer}
	}

	result := api.Build(build)
	t.logWarnings(sourceFile, result.Warnings)
	if len(result.Errors) > 0 {
		return "", &TransformError{
			File:     sourceFile,
			Messages: api.FormatMessages(result.Errors, api.FormatMessagesOptions{Kind: api.ErrorMessage}),
		}
	}
	if len(result.OutputFiles) == 0 {
		return "", fmt.Errorf("no output produced for %s", sourceFile)
	}
	return string(result.OutputFiles[0].Contents), nil
}

func (t *ESBuild) run(code, sourceFile string, opts api.TransformOptions) (string, error) {
	result := api.Transform(code, opts)
	t.logWarnings(sourceFile, result.Warnings)
	if len(result.Errors) > 0 {
		return "", &TransformError{
			File:     sourceFile,
			Messages: api.FormatMessages(result.Errors, api.FormatMessagesOptions{Kind: api.ErrorMessage}),
		}
	}
	return string(result.Code), nil
}

func (t *ESBuild) logWarnings(sourceFile string, warnings []api.Message) {
	if len(warnings) == 0 {
		return
	}
	for _, msg := range api.FormatMessages(warnings, api.FormatMessagesOptions{Kind: api.WarningMessage}) {
		t.Logger.Warn("Transformer warning", zap.String("file", sourceFile), zap.String("message", msg))
	}
}

func loaderFor(sourceFile string) (api.Loader, error) {
	switch ext := strings.ToLower(filepath.Ext(sourceFile)); ext {
	case ".js":
		// Component packages commonly keep JSX in .js files.
		return api.LoaderJSX, nil
	case ".jsx":
		return api.LoaderJSX, nil
	case ".ts":
		return api.LoaderTS, nil
	case ".tsx":
		return api.LoaderTSX, nil
	default:
		return api.LoaderNone, fmt.Errorf("no loader for %s", sourceFile)
	}
}
