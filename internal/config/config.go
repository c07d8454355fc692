// Copyright (c) 2025 Hotel Task Manager Team
// htm-installer - Hotel Task Manager environment installer
// This source code is licensed under the MIT license found in the LICENSE file.

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// FileName is the base name of the optional settings file.
const FileName = "htm-installer.yaml"

// EnvPrefix prefixes environment overrides, e.g. HTM_INSTALLER_INSTALL_ROOT.
const EnvPrefix = "HTM_INSTALLER"

// LocalBackend describes the backend started from the installed jar.
type LocalBackend struct {
	APIHost string `mapstructure:"api_host" yaml:"api_host" validate:"required"`
	Port    string `mapstructure:"port" yaml:"port" validate:"required,numeric"`
}

// Settings are the tunables of the installer. None of them is required to
// run it; the defaults reproduce the standard installation layout.
type Settings struct {
	Language             string        `mapstructure:"language" yaml:"language" validate:"oneof=pl en"`
	InstallRoot          string        `mapstructure:"install_root" yaml:"install_root" validate:"required"`
	AuditLog             string        `mapstructure:"audit_log" yaml:"audit_log" validate:"required"`
	SettleDelay          time.Duration `mapstructure:"settle_delay" yaml:"settle_delay" validate:"gte=0"`
	JavaRedetectDelay    time.Duration `mapstructure:"java_redetect_delay" yaml:"java_redetect_delay" validate:"gte=0"`
	JavaRedetectAttempts int           `mapstructure:"java_redetect_attempts" yaml:"java_redetect_attempts" validate:"min=1"`
	LocalBackend         LocalBackend  `mapstructure:"local_backend" yaml:"local_backend"`
	HealthTimeout        time.Duration `mapstructure:"health_timeout" yaml:"health_timeout" validate:"gt=0"`
	Debug                bool          `mapstructure:"debug" yaml:"debug"`
}

// Defaults returns the values used for keys that are not configured.
func Defaults() map[string]any {
	return map[string]any{
		"language":               "pl",
		"install_root":           "C:/Hotel Task Manager Environment",
		"audit_log":              "installer.log",
		"settle_delay":           time.Second,
		"java_redetect_delay":    3 * time.Second,
		"java_redetect_attempts": 3,
		"local_backend.api_host": "http://localhost",
		"local_backend.port":     "8080",
		"health_timeout":         10 * time.Second,
		"debug":                  false,
	}
}

// flagKeys maps command line flags onto settings keys.
var flagKeys = map[string]string{
	"lang":  "language",
	"debug": "debug",
}

// GetConfigPath returns the full path of the per-user settings file.
func GetConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("could not get user config directory: %w", err)
	}
	return filepath.Join(configDir, "htm-installer", FileName), nil
}

// Load resolves the settings from defaults, the settings file, the
// environment and the flags of cmd, in increasing order of precedence.
// configFile, when non-empty, must exist.
func Load(cmd *cobra.Command, configFile string) (Settings, error) {
	var s Settings
	v := viper.New()

	for key, value := range Defaults() {
		v.SetDefault(key, value)
	}

	v.SetConfigType("yaml")
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(strings.TrimSuffix(FileName, filepath.Ext(FileName)))
		if userConfigPath, err := GetConfigPath(); err == nil {
			v.AddConfigPath(filepath.Dir(userConfigPath))
		}
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return s, fmt.Errorf("read settings: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cmd != nil {
		for flag, key := range flagKeys {
			f := cmd.Flags().Lookup(flag)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return s, err
			}
		}
	}

	if err := v.Unmarshal(&s); err != nil {
		return s, fmt.Errorf("decode settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return s, err
	}
	return s, nil
}

// Validate checks value ranges.
func (s Settings) Validate() error {
	if err := validator.New().Struct(s); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	return nil
}

// Marshal renders s as YAML.
func Marshal(s Settings) ([]byte, error) {
	return yaml.Marshal(s)
}

// WriteConfigFile stores s as the per-user settings file.
func WriteConfigFile(s Settings) (string, error) {
	path, err := GetConfigPath()
	if err != nil {
		return "", err
	}

	data, err := Marshal(s)
	if err != nil {
		return "", err
	}

	configDir := filepath.Dir(path)
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return "", fmt.Errorf("could not create config directory %s: %w", configDir, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
