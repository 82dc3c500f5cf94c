// Package options loads the user options that shape a compile run.
package options

import (
	"fmt"
	"strings"

	"compbuild/pkg/transform"

	"github.com/go-viper/mapstructure/v2"
)

// CompilerOptions controls declaration output.
type CompilerOptions struct {
	Declaration *bool `mapstructure:"declaration"` // Emit type declarations; nil means true
}

// UserOptions are the recognized user configuration options.
type UserOptions struct {
	CompilerOptions CompilerOptions        `mapstructure:"compilerOptions"`
	BabelPlugins    []transform.PluginSpec `mapstructure:"-"`
	BabelOptions    []map[string]any       `mapstructure:"-"`
	Alias           map[string]string      `mapstructure:"-"`
	SubComponents   bool                   `mapstructure:"subComponents"`
	BasicComponents []string               `mapstructure:"basicComponents"`
	Type            string                 `mapstructure:"type"`
	Workers         int                    `mapstructure:"workers"`
}

// DeclarationEnabled reports whether declaration compilation should run.
func (o *UserOptions) DeclarationEnabled() bool {
	if o == nil || o.CompilerOptions.Declaration == nil {
		return true
	}
	return *o.CompilerOptions.Declaration
}

// SetDeclaration overrides the declaration flag.
func (o *UserOptions) SetDeclaration(enabled bool) {
	o.CompilerOptions.Declaration = &enabled
}

// ParsePlugins normalizes the accepted plugin entry shapes:
//
//	"babel-plugin-foo"
//	["babel-plugin-import", {"libraryName": "antd"}, "antd"]
//	{"name": "import", "options": {...}, "key": "antd"}
func ParsePlugins(raw []any) ([]transform.PluginSpec, error) {
	specs := make([]transform.PluginSpec, 0, len(raw))
	for i, entry := range raw {
		spec, err := parsePlugin(entry)
		if err != nil {
			return nil, fmt.Errorf("invalid plugin entry %d: %w", i, err)
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func parsePlugin(entry any) (transform.PluginSpec, error) {
	switch v := entry.(type) {
	case string:
		return transform.PluginSpec{Name: v}, nil
	case []any:
		if len(v) == 0 || len(v) > 3 {
			return transform.PluginSpec{}, fmt.Errorf("expected [name, options?, key?], got %d elements", len(v))
		}
		name, ok := v[0].(string)
		if !ok {
			return transform.PluginSpec{}, fmt.Errorf("plugin name must be a string")
		}
		spec := transform.PluginSpec{Name: name}
		if len(v) > 1 && v[1] != nil {
			opts, err := toStringMap(v[1])
			if err != nil {
				return transform.PluginSpec{}, err
			}
			spec.Options = opts
		}
		if len(v) > 2 {
			spec.Key = fmt.Sprint(v[2])
		}
		return spec, nil
	case map[string]any:
		var spec transform.PluginSpec
		if err := mapstructure.Decode(v, &spec); err != nil {
			return transform.PluginSpec{}, err
		}
		if strings.TrimSpace(spec.Name) == "" {
			return transform.PluginSpec{}, fmt.Errorf("plugin name is required")
		}
		return spec, nil
	default:
		return transform.PluginSpec{}, fmt.Errorf("unsupported plugin entry type %T", entry)
	}
}

// toStringMap accepts both map[string]any and the map[any]any some decoders produce.
func toStringMap(v any) (map[string]any, error) {
	switch m := v.(type) {
	case map[string]any:
		return m, nil
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out, nil
	default:
		return nil, fmt.Errorf("plugin options must be an object, got %T", v)
	}
}
