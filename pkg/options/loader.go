// File: pkg/options/loader.go
package options

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Environment variable prefix for option overrides.
const envPrefix = "COMPBUILD"

// DefaultConfigFiles are probed in order under the package root.
var DefaultConfigFiles = []string{"build.json", "build.yaml", "build.yml", ".compbuildrc.yaml"}

// Loader reads user options from a config file and the environment.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a loader with defaults and environment bindings.
func NewLoader() *Loader {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("compilerOptions.declaration", true)
	v.SetDefault("subComponents", false)
	v.SetDefault("type", "react")
	v.SetDefault("workers", 0)
	v.SetDefault("basicComponents", []string{})

	_ = v.BindEnv("type", "COMPBUILD_TYPE")
	_ = v.BindEnv("workers", "COMPBUILD_WORKERS")
	_ = v.BindEnv("subComponents", "COMPBUILD_SUB_COMPONENTS")
	_ = v.BindEnv("compilerOptions.declaration", "COMPBUILD_DECLARATION")

	return &Loader{v: v}
}

// rawSections are re-read without viper, which folds map keys to lower case.
type rawSections struct {
	Alias        map[string]string `yaml:"alias" json:"alias"`
	BabelPlugins []any             `yaml:"babelPlugins" json:"babelPlugins"`
	BabelOptions []map[string]any  `yaml:"babelOptions" json:"babelOptions"`
}

// Load reads options for the package at rootDir. configFile may be empty, in
// which case the default file names are probed; no file at all is not an error.
func (l *Loader) Load(rootDir, configFile string) (*UserOptions, error) {
	path, err := resolveConfigFile(rootDir, configFile)
	if err != nil {
		return nil, err
	}

	var raw rawSections
	if path != "" {
		l.v.SetConfigFile(path)
		if filepath.Ext(path) == "" {
			l.v.SetConfigType("yaml")
		}
		if err := l.v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := decodeRaw(path, data, &raw); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	var opts UserOptions
	if err := l.v.Unmarshal(&opts); err != nil {
		return nil, fmt.Errorf("unmarshaling options: %w", err)
	}

	opts.Alias = raw.Alias
	opts.BabelOptions = raw.BabelOptions
	if opts.BabelPlugins, err = ParsePlugins(raw.BabelPlugins); err != nil {
		return nil, err
	}

	return &opts, nil
}

func decodeRaw(path string, data []byte, raw *rawSections) error {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return json.Unmarshal(data, raw)
	}
	return yaml.Unmarshal(data, raw)
}

// ConfigFile reports the file Load would read for rootDir, or "" if none.
func ConfigFile(rootDir, configFile string) (string, error) {
	return resolveConfigFile(rootDir, configFile)
}

func resolveConfigFile(rootDir, configFile string) (string, error) {
	if configFile != "" {
		if !filepath.IsAbs(configFile) {
			configFile = filepath.Join(rootDir, configFile)
		}
		if _, err := os.Stat(configFile); err != nil {
			return "", fmt.Errorf("config file %s: %w", configFile, err)
		}
		return configFile, nil
	}

	for _, name := range DefaultConfigFiles {
		candidate := filepath.Join(rootDir, name)
		_, err := os.Stat(candidate)
		if err == nil {
			return candidate, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("probing config file %s: %w", candidate, err)
		}
	}
	return "", nil
}
