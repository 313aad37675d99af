package config

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/olusolaa/redis-k8s-charm/internal/core/domain"
	"github.com/olusolaa/redis-k8s-charm/internal/errors"
	"github.com/olusolaa/redis-k8s-charm/internal/log"
)

type Config struct {
	Settings SettingsConfig `mapstructure:"settings"`
	Charm    CharmConfig    `mapstructure:"charm"`
	Observed ObservedConfig `mapstructure:"observed"`
	Relation RelationConfig `mapstructure:"relation"`
	Apply    ApplyConfig    `mapstructure:"apply"`
	Registry RegistryConfig `mapstructure:"registry"`
	Probe    ProbeConfig    `mapstructure:"probe"`
}

type SettingsConfig struct {
	LogLevel     log.Level  `mapstructure:"log_level" validate:"omitempty,oneof=debug info warn error"`
	LogFormat    log.Format `mapstructure:"log_format" validate:"omitempty,oneof=text json"`
	ReporterType string     `mapstructure:"reporter" validate:"oneof=text json"`
	NoColor      bool       `mapstructure:"no_color"`
}

type CharmConfig struct {
	Application   string        `mapstructure:"application" validate:"required"`
	Leader        bool          `mapstructure:"leader"`
	ExpectedUnits []string      `mapstructure:"expected_units"`
	DefaultPort   int           `mapstructure:"default_port" validate:"min=1,max=65535"`
	Options       OptionsConfig `mapstructure:"options"`
}

// OptionsConfig points at the operator-settable charm options.
type OptionsConfig struct {
	Type string `mapstructure:"type" validate:"oneof=yaml hcl"`
	Path string `mapstructure:"path" validate:"required"`
}

// ObservedConfig selects where the running workload is read from. An empty
// type follows apply.type.
type ObservedConfig struct {
	Type string `mapstructure:"type" validate:"omitempty,oneof=file kubernetes"`
}

type RelationConfig struct {
	Type string `mapstructure:"type" validate:"oneof=none file"`
	Path string `mapstructure:"path" validate:"required_if=Type file"`
}

type ApplyConfig struct {
	Type       string `mapstructure:"type" validate:"oneof=file kubernetes"`
	Dir        string `mapstructure:"dir" validate:"required_if=Type file"`
	Namespace  string `mapstructure:"namespace" validate:"required_if=Type kubernetes"`
	Kubeconfig string `mapstructure:"kubeconfig"`
}

type RegistryConfig struct {
	ECR ECRConfig `mapstructure:"ecr"`
}

type ECRConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Region  string `mapstructure:"region"`
	RPS     int    `mapstructure:"rps" validate:"min=0,max=50"`
}

type ProbeConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Host    string        `mapstructure:"host"`
	Timeout time.Duration `mapstructure:"timeout" validate:"min=0"`
}

func DefaultConfig() *Config {
	return &Config{
		Settings: SettingsConfig{
			LogLevel:     log.LevelInfo,
			LogFormat:    log.FormatText,
			ReporterType: "text",
		},
		Charm: CharmConfig{
			Application: "redis",
			DefaultPort: domain.DefaultPort,
			Options:     OptionsConfig{Type: "yaml", Path: "config.yaml"},
		},
		Relation: RelationConfig{Type: "none"},
		Apply:    ApplyConfig{Type: "file", Dir: "state"},
		Registry: RegistryConfig{ECR: ECRConfig{RPS: 5}},
		Probe:    ProbeConfig{Timeout: 2 * time.Second},
	}
}

// ObservedType resolves the observed state source type.
func (c *Config) ObservedType() string {
	if c.Observed.Type != "" {
		return c.Observed.Type
	}
	return c.Apply.Type
}

// Validate checks the struct tags and the rules that span sections.
func (c *Config) Validate(ctx context.Context) error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.StructCtx(ctx, c); err != nil {
		var validationErrors validator.ValidationErrors
		if !stderrors.As(err, &validationErrors) {
			return errors.Wrap(err, errors.CodeConfigValidation, "configuration validation failed")
		}
		var details strings.Builder
		details.WriteString("Configuration validation failed:")
		for _, fe := range validationErrors {
			details.WriteString(fmt.Sprintf("\n - Field '%s': Failed on '%s' validation (value: '%v')", fe.Namespace(), fe.Tag(), fe.Value()))
		}
		return errors.NewUserFacing(errors.CodeConfigValidation, details.String(), "Please check your configuration file or flags.")
	}
	if c.ObservedType() == "kubernetes" && c.Apply.Namespace == "" {
		return errors.NewUserFacing(errors.CodeConfigValidation,
			"Configuration validation failed:\n - Field 'Config.Apply.Namespace': required when observed.type is kubernetes",
			"Please check your configuration file or flags.")
	}
	if c.ObservedType() == "file" && c.Apply.Dir == "" {
		return errors.NewUserFacing(errors.CodeConfigValidation,
			"Configuration validation failed:\n - Field 'Config.Apply.Dir': required when observed.type is file",
			"Please check your configuration file or flags.")
	}
	return nil
}
