// File: pkg/transform/patterns.go
package transform

import "regexp"

// Precompiled regular expressions used to classify source files.
var (
	SourcePattern      = regexp.MustCompile(`\.(js|jsx|ts|tsx)$`)
	DeclarationPattern = regexp.MustCompile(`\.d\.ts$`)
)

// FileKind is the copy-or-transform decision for a single source file.
type FileKind int

const (
	KindAsset       FileKind = iota // Copied verbatim
	KindDeclaration                 // Type declaration, always copied
	KindSource                      // Fed to the transformer
)

func (k FileKind) String() string {
	switch k {
	case KindSource:
		return "source"
	case KindDeclaration:
		return "declaration"
	default:
		return "asset"
	}
}

// Transformable reports whether files of this kind go through the transformer.
func (k FileKind) Transformable() bool {
	return k == KindSource
}

// Classify decides how relPath is handled. Declaration files take precedence
// over the source pattern they also match.
func Classify(relPath string) FileKind {
	switch {
	case DeclarationPattern.MatchString(relPath):
		return KindDeclaration
	case SourcePattern.MatchString(relPath):
		return KindSource
	default:
		return KindAsset
	}
}

// OutputName rewrites a source file's extension to the canonical ".js".
func OutputName(relPath string) string {
	return SourcePattern.ReplaceAllString(relPath, ".js")
}
