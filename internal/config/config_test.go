package config

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olusolaa/redis-k8s-charm/internal/errors"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := DefaultConfig()

	require.NoError(t, cfg.Validate(context.Background()))
	assert.Equal(t, 6379, cfg.Charm.DefaultPort)
	assert.Equal(t, "file", cfg.ObservedType())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:    "missing application",
			mutate:  func(c *Config) { c.Charm.Application = "" },
			wantErr: "Config.Charm.Application",
		},
		{
			name:    "bad reporter",
			mutate:  func(c *Config) { c.Settings.ReporterType = "xml" },
			wantErr: "Config.Settings.ReporterType",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Settings.LogLevel = "trace" },
			wantErr: "Config.Settings.LogLevel",
		},
		{
			name:    "file relation without path",
			mutate:  func(c *Config) { c.Relation.Type = "file" },
			wantErr: "Config.Relation.Path",
		},
		{
			name:    "kubernetes apply without namespace",
			mutate:  func(c *Config) { c.Apply.Type = "kubernetes" },
			wantErr: "Config.Apply.Namespace",
		},
		{
			name: "kubernetes observed without namespace",
			mutate: func(c *Config) {
				c.Observed.Type = "kubernetes"
			},
			wantErr: "Config.Apply.Namespace",
		},
		{
			name: "file observed without dir",
			mutate: func(c *Config) {
				c.Apply = ApplyConfig{Type: "kubernetes", Namespace: "model"}
				c.Observed.Type = "file"
			},
			wantErr: "Config.Apply.Dir",
		},
		{
			name:    "default port out of range",
			mutate:  func(c *Config) { c.Charm.DefaultPort = 70000 },
			wantErr: "Config.Charm.DefaultPort",
		},
		{
			name:    "ecr rps too high",
			mutate:  func(c *Config) { c.Registry.ECR.RPS = 100 },
			wantErr: "Config.Registry.ECR.RPS",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate(context.Background())

			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.CodeConfigValidation))
			msg, _, ok := errors.GetUserFacingMessage(err)
			assert.True(t, ok)
			assert.Contains(t, msg, tt.wantErr)
		})
	}
}

func TestObservedType(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Apply.Type = "kubernetes"
	assert.Equal(t, "kubernetes", cfg.ObservedType())

	cfg.Observed.Type = "file"
	assert.Equal(t, "file", cfg.ObservedType())
}
