// File: pkg/compiler/types.go
package compiler

import (
	"compbuild/pkg/dts"
	"compbuild/pkg/options"
	"compbuild/pkg/project"
	"compbuild/pkg/style"
	"compbuild/pkg/transform"

	"go.uber.org/zap"
)

// CompileInfo records one transformed file; the full list is handed to the
// declaration compiler after both targets are done.
type CompileInfo = dts.CompileInfo

// Request holds everything a compile run needs.
type Request struct {
	Context         *project.Context        // Package root and manifest
	Logger          *zap.Logger             // Progress and error logging
	BasicComponents []string                // Candidate component libraries
	Options         *options.UserOptions    // User options; nil means defaults
	Type            transform.ComponentType // Component type
	Transformer     transform.Transformer   // Source transformer; esbuild when nil
	Styles          style.Generator         // Style generator; style.EntryGenerator when nil
	Declarations    dts.Compiler            // Declaration compiler; dts.TSC when nil
}

// Result summarizes a finished run.
type Result struct {
	CompileInfos []CompileInfo // Transformed files across both targets
	Copied       int           // Files copied verbatim across both targets
	CopyFailures int           // Copies that failed and were skipped
}

// fileJob is one source file processed for one target.
type fileJob struct {
	relPath  string // Slash separated path under src
	kind     transform.FileKind
	target   transform.Target
	srcDir   string
	destPath string
}
