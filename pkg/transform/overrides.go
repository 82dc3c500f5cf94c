// File: pkg/transform/overrides.go
package transform

import (
	"fmt"
	"strings"

	"dario.cat/mergo"
	"github.com/evanw/esbuild/pkg/api"
	"github.com/go-viper/mapstructure/v2"
)

// Overrides are the transformer options a caller can set through option entries.
type Overrides struct {
	Target    string            `mapstructure:"target"`    // Language level, e.g. "es2017"
	Define    map[string]string `mapstructure:"define"`    // Global identifier replacements
	Minify    bool              `mapstructure:"minify"`    // Minify whitespace, identifiers and syntax
	KeepNames bool              `mapstructure:"keepNames"` // Preserve function and class names
	Banner    string            `mapstructure:"banner"`    // Text prepended to every output file
	Footer    string            `mapstructure:"footer"`    // Text appended to every output file
	Drop      []string          `mapstructure:"drop"`      // "console" and/or "debugger"
}

var esTargets = map[string]api.Target{
	"es5":    api.ES5,
	"es2015": api.ES2015,
	"es6":    api.ES2015,
	"es2016": api.ES2016,
	"es2017": api.ES2017,
	"es2018": api.ES2018,
	"es2019": api.ES2019,
	"es2020": api.ES2020,
	"es2021": api.ES2021,
	"es2022": api.ES2022,
	"esnext": api.ESNext,
}

// MergeOverrides decodes option entries and folds them in order. Non-zero
// values in later entries win; define tables and drop lists accumulate.
func MergeOverrides(entries []map[string]any) (Overrides, error) {
	var merged Overrides
	for i, entry := range entries {
		var o Overrides
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:           &o,
			WeaklyTypedInput: true,
		})
		if err != nil {
			return Overrides{}, err
		}
		if err := dec.Decode(entry); err != nil {
			return Overrides{}, fmt.Errorf("invalid transformer option entry %d: %w", i, err)
		}
		if err := mergo.Merge(&merged, o, mergo.WithOverride, mergo.WithAppendSlice); err != nil {
			return Overrides{}, fmt.Errorf("failed to merge transformer option entry %d: %w", i, err)
		}
	}
	return merged, nil
}

// apply copies the overrides onto esbuild transform options.
func (o Overrides) apply(opts *api.TransformOptions) error {
	if o.Target != "" {
		t, ok := esTargets[strings.ToLower(o.Target)]
		if !ok {
			return fmt.Errorf("unsupported language target %q", o.Target)
		}
		opts.Target = t
	}
	if len(o.Define) > 0 {
		opts.Define = o.Define
	}
	if o.Minify {
		opts.MinifyWhitespace = true
		opts.MinifyIdentifiers = true
		opts.MinifySyntax = true
	}
	opts.KeepNames = o.KeepNames
	opts.Banner = o.Banner
	opts.Footer = o.Footer
	for _, d := range o.Drop {
		switch strings.ToLower(d) {
		case "console":
			opts.Drop |= api.DropConsole
		case "debugger":
			opts.Drop |= api.DropDebugger
		default:
			return fmt.Errorf("unsupported drop value %q", d)
		}
	}
	return nil
}
