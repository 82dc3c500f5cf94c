// File: pkg/project/project.go
package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// ManifestFile is the package manifest read from the package root.
const ManifestFile = "package.json"

// Manifest holds the parts of a package manifest the compiler cares about.
type Manifest struct {
	Name             string            `json:"name"`             // Package name
	Version          string            `json:"version"`          // Package version
	Dependencies     map[string]string `json:"dependencies"`     // Runtime dependencies
	PeerDependencies map[string]string `json:"peerDependencies"` // Peer dependencies
	DevDependencies  map[string]string `json:"devDependencies"`  // Development-only dependencies
}

// Context describes the package being compiled. It is read-only once loaded.
type Context struct {
	RootDir string    // Absolute package root
	Pkg     *Manifest // Parsed package manifest
}

// SourceDir returns the package's source directory.
func (c *Context) SourceDir() string {
	return filepath.Join(c.RootDir, "src")
}

// LoadContext resolves rootDir and parses its package manifest.
func LoadContext(rootDir string) (*Context, error) {
	absRoot, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve package root: %w", err)
	}

	pkg, err := ReadManifest(filepath.Join(absRoot, ManifestFile))
	if err != nil {
		return nil, err
	}

	return &Context{RootDir: absRoot, Pkg: pkg}, nil
}

// ReadManifest parses a package manifest from path.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}

	var pkg Manifest
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	return &pkg, nil
}

// AnalyzePackage returns the basic component libraries that pkg declares as
// dependencies. The result is sorted.
func AnalyzePackage(pkg *Manifest, basicComponents []string) []string {
	if pkg == nil || len(pkg.Dependencies) == 0 {
		return []string{}
	}

	libs := []string{}
	seen := make(map[string]bool, len(basicComponents))
	for _, name := range basicComponents {
		if seen[name] {
			continue
		}
		seen[name] = true
		if _, ok := pkg.Dependencies[name]; ok {
			libs = append(libs, name)
		}
	}
	sort.Strings(libs)
	return libs
}
