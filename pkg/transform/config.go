// File: pkg/transform/config.go
package transform

import (
	"os"
	"path/filepath"
	"strings"
)

// Plugin names understood by the transformer.
const (
	PluginImport         = "import"
	PluginModuleResolver = "module-resolver"
)

// Params holds everything BuildConfig needs to assemble a configuration.
type Params struct {
	Target        Target            // Compile target
	ComponentLibs []string          // Basic component libraries the package depends on
	RootDir       string            // Package root
	Plugins       []PluginSpec      // Extra plugins appended after the built-ins
	Options       []map[string]any  // Extra transformer options, appended
	Type          ComponentType     // Component type
	Alias         map[string]string // Alias name to root-relative path
}

var (
	reactPreset = Preset{
		Name:        "react",
		JSXFactory:  "React.createElement",
		JSXFragment: "React.Fragment",
	}
	raxPreset = Preset{
		Name:        "rax",
		JSXFactory:  "createElement",
		JSXFragment: "Fragment",
		Ignore:      []string{"**/*.d.ts"},
	}
)

// PresetFor returns the base preset for a component type.
func PresetFor(t ComponentType) Preset {
	p := raxPreset
	if t == TypeReact {
		p = reactPreset
	}
	p.Ignore = append([]string(nil), p.Ignore...)
	return p
}

// BuildConfig assembles the transformer configuration for one target. The only
// filesystem access is the probe for a library's "es" directory.
func BuildConfig(p Params) *Config {
	cfg := &Config{
		Variant: Variant{Type: p.Type, Target: p.Target},
		Preset:  PresetFor(p.Type),
		Modules: p.Target != TargetES,
	}

	for _, lib := range p.ComponentLibs {
		opts := map[string]any{
			"libraryName": lib,
			"style":       false, // style entries are generated separately
		}
		if p.Target == TargetES && hasESDirectory(p.RootDir, lib) {
			opts["libraryDirectory"] = "es"
		}
		cfg.Plugins = append(cfg.Plugins, PluginSpec{Name: PluginImport, Options: opts, Key: lib})
	}

	if p.Alias != nil {
		cfg.Plugins = append(cfg.Plugins, PluginSpec{
			Name: PluginModuleResolver,
			Options: map[string]any{
				"root":  []string{"./src"},
				"alias": NormalizeAlias(p.Alias),
			},
		})
	}

	cfg.Plugins = append(cfg.Plugins, p.Plugins...)
	cfg.Options = append(cfg.Options, p.Options...)
	return cfg
}

// NormalizeAlias makes every alias target root-relative by prefixing "./"
// where it is missing.
func NormalizeAlias(alias map[string]string) map[string]string {
	out := make(map[string]string, len(alias))
	for name, target := range alias {
		if strings.HasPrefix(target, "./") {
			out[name] = target
		} else {
			out[name] = "./" + target
		}
	}
	return out
}

func hasESDirectory(rootDir, lib string) bool {
	info, err := os.Stat(filepath.Join(rootDir, "node_modules", filepath.FromSlash(lib), "es"))
	return err == nil && info.IsDir()
}
