// File: pkg/transform/types.go
package transform

import (
	"fmt"
	"strings"
)

// Target is a compile target; each target owns one output tree.
type Target string

const (
	TargetES  Target = "es"  // ES-module output
	TargetLib Target = "lib" // CommonJS output
)

// Targets returns the compile targets in the order they are processed.
func Targets() []Target {
	return []Target{TargetES, TargetLib}
}

// ParseTarget validates a target name.
func ParseTarget(s string) (Target, error) {
	switch Target(s) {
	case TargetES, TargetLib:
		return Target(s), nil
	}
	return "", fmt.Errorf("unknown compile target %q", s)
}

// ComponentType selects the preset and whether style entries are generated.
type ComponentType string

const (
	TypeReact ComponentType = "react"
	TypeRax   ComponentType = "rax"
)

// ParseComponentType maps a user supplied type name onto a ComponentType.
// Anything other than "react" compiles with the rax preset.
func ParseComponentType(s string) ComponentType {
	if strings.EqualFold(strings.TrimSpace(s), string(TypeReact)) {
		return TypeReact
	}
	return TypeRax
}

// Variant is the {type, target} pair that drives configuration assembly.
type Variant struct {
	Type   ComponentType `json:"type"`
	Target Target        `json:"target"`
}

func (v Variant) String() string {
	return string(v.Type) + "/" + string(v.Target)
}

// Preset is the base transformer configuration chosen by component type.
type Preset struct {
	Name        string   `json:"name"`
	JSXFactory  string   `json:"jsxFactory"`
	JSXFragment string   `json:"jsxFragment"`
	Ignore      []string `json:"ignore,omitempty"` // Files the preset leaves untouched
}

// PluginSpec names an import rewrite plugin and its options.
type PluginSpec struct {
	Name    string         `json:"name" mapstructure:"name"`
	Options map[string]any `json:"options,omitempty" mapstructure:"options"`
	Key     string         `json:"key,omitempty" mapstructure:"key"` // Distinguishes several instances of one plugin
}

// Config is a fully assembled transformer configuration for one file.
type Config struct {
	Variant Variant          `json:"variant"`
	Preset  Preset           `json:"preset"`
	Modules bool             `json:"modules"` // Convert to CommonJS when true
	Plugins []PluginSpec     `json:"plugins"`
	Options []map[string]any `json:"options,omitempty"`
}

// PluginsNamed returns the plugins with the given name, in order.
func (c *Config) PluginsNamed(name string) []PluginSpec {
	var out []PluginSpec
	for _, p := range c.Plugins {
		if NormalizePluginName(p.Name) == name {
			out = append(out, p)
		}
	}
	return out
}

// NormalizePluginName strips the conventional "babel-plugin-" prefix so
// "babel-plugin-import" and "import" refer to the same plugin.
func NormalizePluginName(name string) string {
	return strings.TrimPrefix(strings.TrimSpace(name), "babel-plugin-")
}
