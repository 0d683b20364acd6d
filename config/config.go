// Package config loads datalab settings from defaults, an optional YAML file
// and DATALAB_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/pkg/errors"
)

// EnvPrefix is prepended to every environment override, e.g. DATALAB_LOG_LEVEL.
const EnvPrefix = "DATALAB"

// Config holds pipeline settings shared by the CLI commands.
type Config struct {
	LogLevel string `mapstructure:"log_level" yaml:"log_level" validate:"oneof=debug info warn warning error"`

	// MissingTolerance is the accepted missing ratio after numeric coercion.
	MissingTolerance float64 `mapstructure:"missing_tolerance" yaml:"missing_tolerance" validate:"gte=0,lte=1"`

	// TestPercent is the held-out share for supervised analyses, in percent.
	TestPercent float64 `mapstructure:"test_percent" yaml:"test_percent" validate:"gt=0,lt=100"`

	RandomState      int64   `mapstructure:"random_state" yaml:"random_state"`
	OutlierThreshold float64 `mapstructure:"outlier_threshold" yaml:"outlier_threshold" validate:"gt=0"`
	NEstimators      int     `mapstructure:"n_estimators" yaml:"n_estimators" validate:"min=1"`
	ExportDir        string  `mapstructure:"export_dir" yaml:"export_dir" validate:"required"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		LogLevel:         "info",
		MissingTolerance: 0.10,
		TestPercent:      20,
		RandomState:      42,
		OutlierThreshold: 3,
		NEstimators:      100,
		ExportDir:        "exports",
	}
}

var validate = validator.New()

// Validate reports the first invalid setting as a ConfigError.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return errors.NewConfigError(keyOf(fe.StructField()),
			fmt.Sprintf("failed '%s' constraint (got %v)", fe.Tag(), fe.Value()))
	}
	return errors.NewConfigError("config", err.Error())
}

// keyOf maps a struct field to its configuration key.
func keyOf(field string) string {
	for key, name := range keys {
		if name == field {
			return key
		}
	}
	return strings.ToLower(field)
}

var keys = map[string]string{
	"log_level":         "LogLevel",
	"missing_tolerance": "MissingTolerance",
	"test_percent":      "TestPercent",
	"random_state":      "RandomState",
	"outlier_threshold": "OutlierThreshold",
	"n_estimators":      "NEstimators",
	"export_dir":        "ExportDir",
}

// Load reads configuration with precedence env > file > defaults.
// An empty cfgFile looks for datalab.yaml in the working directory; a
// missing default file is not an error, an explicit one is.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	def := Default()
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("missing_tolerance", def.MissingTolerance)
	v.SetDefault("test_percent", def.TestPercent)
	v.SetDefault("random_state", def.RandomState)
	v.SetDefault("outlier_threshold", def.OutlierThreshold)
	v.SetDefault("n_estimators", def.NEstimators)
	v.SetDefault("export_dir", def.ExportDir)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config %s", cfgFile)
		}
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("datalab")
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, errors.Wrap(err, "read config")
			}
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Save writes c to path as YAML, creating the parent directory.
func Save(c *Config, path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, "mkdir config dir")
		}
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "marshal yaml")
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return errors.Wrap(err, "write config")
	}
	return nil
}

// TestSize returns TestPercent as a fraction.
func (c *Config) TestSize() float64 {
	return c.TestPercent / 100
}
