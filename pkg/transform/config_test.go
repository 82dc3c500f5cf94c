package transform

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildConfigModules(t *testing.T) {
	es := BuildConfig(Params{Target: TargetES, Type: TypeReact})
	lib := BuildConfig(Params{Target: TargetLib, Type: TypeReact})

	assert.False(t, es.Modules, "es keeps module syntax")
	assert.True(t, lib.Modules, "lib converts to CommonJS")
	assert.Equal(t, Variant{Type: TypeReact, Target: TargetES}, es.Variant)
}

func TestBuildConfigPreset(t *testing.T) {
	react := BuildConfig(Params{Target: TargetES, Type: TypeReact})
	assert.Equal(t, "react", react.Preset.Name)
	assert.Equal(t, "React.createElement", react.Preset.JSXFactory)
	assert.Empty(t, react.Preset.Ignore)

	rax := BuildConfig(Params{Target: TargetES, Type: ParseComponentType("rax")})
	assert.Equal(t, "rax", rax.Preset.Name)
	assert.Equal(t, "createElement", rax.Preset.JSXFactory)
	assert.Equal(t, []string{"**/*.d.ts"}, rax.Preset.Ignore)
}

func TestBuildConfigImportPlugins(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "node_modules", "antd", "es"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "node_modules", "@alifd", "next", "lib"), 0o755))

	libs := []string{"@alifd/next", "antd"}

	t.Run("es target prefers es directory when present", func(t *testing.T) {
		cfg := BuildConfig(Params{Target: TargetES, ComponentLibs: libs, RootDir: root, Type: TypeReact})
		plugins := cfg.PluginsNamed(PluginImport)
		require.Len(t, plugins, 2)

		assert.Equal(t, "@alifd/next", plugins[0].Key)
		assert.Equal(t, false, plugins[0].Options["style"])
		assert.NotContains(t, plugins[0].Options, "libraryDirectory")

		assert.Equal(t, "antd", plugins[1].Options["libraryName"])
		assert.Equal(t, "es", plugins[1].Options["libraryDirectory"])
	})

	t.Run("lib target never sets a directory", func(t *testing.T) {
		cfg := BuildConfig(Params{Target: TargetLib, ComponentLibs: libs, RootDir: root, Type: TypeReact})
		for _, p := range cfg.PluginsNamed(PluginImport) {
			assert.NotContains(t, p.Options, "libraryDirectory")
		}
	})
}

func TestBuildConfigAlias(t *testing.T) {
	t.Run("no alias means no resolver", func(t *testing.T) {
		cfg := BuildConfig(Params{Target: TargetES, Type: TypeReact})
		assert.Empty(t, cfg.PluginsNamed(PluginModuleResolver))
	})

	t.Run("alias targets are made relative", func(t *testing.T) {
		cfg := BuildConfig(Params{
			Target: TargetES,
			Type:   TypeReact,
			Alias:  map[string]string{"utils": "helpers", "@": "./src"},
		})
		resolvers := cfg.PluginsNamed(PluginModuleResolver)
		require.Len(t, resolvers, 1)
		assert.Equal(t, []string{"./src"}, resolvers[0].Options["root"])
		assert.Equal(t, map[string]string{"utils": "./helpers", "@": "./src"}, resolvers[0].Options["alias"])
	})
}

func TestBuildConfigAppendsExtras(t *testing.T) {
	root := t.TempDir()
	extra := PluginSpec{Name: "babel-plugin-import", Options: map[string]any{"libraryName": "lodash"}, Key: "lodash"}
	cfg := BuildConfig(Params{
		Target:        TargetLib,
		Type:          TypeReact,
		RootDir:       root,
		ComponentLibs: []string{"antd"},
		Alias:         map[string]string{"utils": "src/utils"},
		Plugins:       []PluginSpec{extra},
		Options:       []map[string]any{{"target": "es2017"}},
	})

	require.Len(t, cfg.Plugins, 3)
	assert.Equal(t, PluginImport, cfg.Plugins[0].Name)
	assert.Equal(t, PluginModuleResolver, cfg.Plugins[1].Name)
	assert.Equal(t, extra, cfg.Plugins[2])
	assert.Len(t, cfg.PluginsNamed(PluginImport), 2)
	assert.Equal(t, []map[string]any{{"target": "es2017"}}, cfg.Options)
}

func TestNormalizeAlias(t *testing.T) {
	got := NormalizeAlias(map[string]string{
		"utils":      "helpers",
		"components": "./src/components",
		"up":         "../shared",
	})
	assert.Equal(t, "./helpers", got["utils"])
	assert.Equal(t, "./src/components", got["components"])
	assert.Equal(t, "./../shared", got["up"])
}

func TestParseComponentType(t *testing.T) {
	assert.Equal(t, TypeReact, ParseComponentType("react"))
	assert.Equal(t, TypeReact, ParseComponentType(" React "))
	assert.Equal(t, TypeRax, ParseComponentType("rax"))
	assert.Equal(t, TypeRax, ParseComponentType(""))
}

func TestParseTarget(t *testing.T) {
	got, err := ParseTarget("lib")
	require.NoError(t, err)
	assert.Equal(t, TargetLib, got)

	_, err = ParseTarget("umd")
	assert.Error(t, err)
}
