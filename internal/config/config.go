// Package config loads hdrecipe settings from defaults, an optional
// hdrecipe.toml in the working directory and HDRECIPE_* environment
// variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/goplus/hdrecipe/internal/env"
)

const (
	// EnvPrefix prefixes the environment variables read by Load.
	EnvPrefix = "HDRECIPE"
	// FileName is the optional config file, without extension.
	FileName = "hdrecipe"
	// FileExt is the config file extension.
	FileExt = "toml"
)

// Keys known to Load.
const (
	KeyWorkspace = "workspace"
	KeyDevelop   = "develop"
	KeyVerbose   = "verbose"
	KeyOptions   = "options"
)

// Config is the resolved tool configuration.
type Config struct {
	Workspace string            `mapstructure:"workspace"`
	Develop   bool              `mapstructure:"develop"`
	Verbose   bool              `mapstructure:"verbose"`
	Options   map[string]string `mapstructure:"options"`

	// File is the config file that was read, empty when none was found.
	File string `mapstructure:"-"`
}

// New returns a viper instance with defaults and environment binding set
// up. dir is searched for hdrecipe.toml; empty means the working directory.
func New(dir string) *viper.Viper {
	v := viper.New()
	if ws, err := env.WorkDir(); err == nil {
		v.SetDefault(KeyWorkspace, ws)
	} else {
		v.SetDefault(KeyWorkspace, "")
	}
	v.SetDefault(KeyDevelop, false)
	v.SetDefault(KeyVerbose, false)
	v.SetDefault(KeyOptions, map[string]string{})

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if dir == "" {
		dir = "."
	}
	v.SetConfigName(FileName)
	v.SetConfigType(FileExt)
	v.AddConfigPath(dir)
	return v
}

// Load reads the config file, if any, and decodes v into a Config.
func Load(v *viper.Viper) (*Config, error) {
	file := ""
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else {
		file = v.ConfigFileUsed()
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Options == nil {
		cfg.Options = map[string]string{}
	}
	if cfg.Workspace != "" {
		abs, err := filepath.Abs(os.ExpandEnv(cfg.Workspace))
		if err != nil {
			return nil, fmt.Errorf("workspace %s: %w", cfg.Workspace, err)
		}
		cfg.Workspace = abs
	}
	cfg.File = file
	return &cfg, nil
}
