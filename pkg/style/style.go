// Package style writes per-component stylesheet entry files.
package style

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"compbuild/pkg/transform"

	"go.uber.org/zap"
)

// EntryFile is the generated stylesheet entry, next to the component's index.js.
const EntryFile = "style.js"

// localStyles are the component stylesheets picked up from the output folder.
var localStyles = []string{"index.scss", "index.less", "index.css", "main.scss"}

var (
	esImportPattern  = regexp.MustCompile(`\bfrom\s*"([^"]+)"`)
	cjsImportPattern = regexp.MustCompile(`\brequire\(\s*"([^"]+)"\s*\)`)
)

// Request describes one style generation call.
type Request struct {
	RootDir         string           // Package root
	BasicComponents []string         // Candidate component libraries
	DestPath        string           // Output folder to scan and write into
	Target          transform.Target // Output flavour
	Logger          *zap.Logger      // Logger for progress
	Folder          string           // Sub-component folder name, empty for the root
}

// Generator extracts stylesheet entries for a compiled output folder.
type Generator interface {
	Generate(ctx context.Context, req Request) error
}

// EntryGenerator writes style.js files listing the styles a compiled
// component depends on.
type EntryGenerator struct{}

// NewEntryGenerator returns the default style generator.
func NewEntryGenerator() *EntryGenerator {
	return &EntryGenerator{}
}

// Generate inspects <DestPath>/index.js and writes <DestPath>/style.js. A
// folder without an index.js or without any style dependency is left alone.
func (g *EntryGenerator) Generate(ctx context.Context, req Request) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	logger := req.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	code, err := os.ReadFile(filepath.Join(req.DestPath, "index.js"))
	if errors.Is(err, os.ErrNotExist) {
		logger.Debug("No index.js, skipping style entry", zap.String("destPath", req.DestPath))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read component entry: %w", err)
	}

	deps := componentStyles(string(code), req.BasicComponents, req.Target)
	for _, name := range localStyles {
		if _, err := os.Stat(filepath.Join(req.DestPath, name)); err == nil {
			deps = append(deps, "./"+name)
			break
		}
	}
	if len(deps) == 0 {
		logger.Debug("No style dependencies", zap.String("destPath", req.DestPath))
		return nil
	}

	var b strings.Builder
	for _, dep := range deps {
		if req.Target == transform.TargetES {
			fmt.Fprintf(&b, "import '%s';\n", dep)
		} else {
			fmt.Fprintf(&b, "require('%s');\n", dep)
		}
	}

	entry := filepath.Join(req.DestPath, EntryFile)
	if err := os.WriteFile(entry, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write style entry: %w", err)
	}
	logger.Info("Generated style entry",
		zap.String("file", entry),
		zap.String("folder", req.Folder),
		zap.Int("dependencies", len(deps)))
	return nil
}

// componentStyles returns "<import>/style" for every import that points at a
// component inside one of the basic libraries, sorted and de-duplicated.
func componentStyles(code string, basicComponents []string, target transform.Target) []string {
	pattern := esImportPattern
	if target == transform.TargetLib {
		pattern = cjsImportPattern
	}

	seen := map[string]bool{}
	var deps []string
	for _, m := range pattern.FindAllStringSubmatch(code, -1) {
		specifier := m[1]
		for _, lib := range basicComponents {
			// Only per-component paths such as "antd/es/button" carry a style folder.
			if !strings.HasPrefix(specifier, lib+"/") || strings.HasSuffix(specifier, "/style") {
				continue
			}
			dep := specifier + "/style"
			if !seen[dep] {
				seen[dep] = true
				deps = append(deps, dep)
			}
		}
	}
	sort.Strings(deps)
	return deps
}
