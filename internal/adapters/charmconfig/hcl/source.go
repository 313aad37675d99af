// Package hcl loads charm options from an HCL file. Expressions may refer to
// environment variables through env.NAME and call a small function library.
package hcl

import (
	"context"
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/olusolaa/redis-k8s-charm/internal/core/domain"
	"github.com/olusolaa/redis-k8s-charm/internal/core/ports"
	"github.com/olusolaa/redis-k8s-charm/internal/errors"
)

const SourceTypeHCL = "hcl"

type optionsFile struct {
	Image     *imageBlock     `hcl:"image,block"`
	Port      *int            `hcl:"port,optional"`
	Resources *resourcesBlock `hcl:"resources,block"`
}

type imageBlock struct {
	RegistryPath string `hcl:"registrypath,optional"`
	Username     string `hcl:"username,optional"`
	Password     string `hcl:"password,optional"`
}

type resourcesBlock struct {
	CPU    string `hcl:"cpu,optional"`
	Memory string `hcl:"memory,optional"`
}

type Source struct {
	path        string
	defaultPort int
	environ     func() []string
	logger      ports.Logger
}

var _ ports.ConfigSource = (*Source)(nil)

func NewSource(path string, defaultPort int, logger ports.Logger) (*Source, error) {
	if path == "" {
		return nil, errors.NewUserFacing(errors.CodeConfigValidation, "charm options file path cannot be empty", "Set charm.options.path in the configuration.")
	}
	return &Source{
		path:        path,
		defaultPort: defaultPort,
		environ:     os.Environ,
		logger:      logger.WithFields(map[string]any{"component": "hcl_options", "file_path": path}),
	}, nil
}

func (s *Source) Type() string {
	return SourceTypeHCL
}

func (s *Source) Load(ctx context.Context) (domain.CharmOptions, error) {
	src, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.CharmOptions{}, errors.WrapUserFacing(err, errors.CodeConfigNotFound,
				"charm options file not found", "Create the options file or point charm.options.path at it.")
		}
		return domain.CharmOptions{}, errors.Wrap(err, errors.CodeConfigReadError, "failed to read charm options file")
	}

	parser := hclparse.NewParser()
	var file *hcl.File
	var diags hcl.Diagnostics
	if strings.HasSuffix(s.path, ".json") {
		file, diags = parser.ParseJSON(src, s.path)
	} else {
		file, diags = parser.ParseHCL(src, s.path)
	}
	if diags.HasErrors() {
		return domain.CharmOptions{}, errors.New(errors.CodeHCLParseError, "failed to parse charm options file").
			WithDetails("%s", diags.Error())
	}

	var decoded optionsFile
	diags = gohcl.DecodeBody(file.Body, s.evalContext(), &decoded)
	if diags.HasErrors() {
		return domain.CharmOptions{}, errors.New(errors.CodeHCLDecodeError, "failed to evaluate charm options").
			WithDetails("%s", diags.Error())
	}

	opts := domain.CharmOptions{Port: s.defaultPort}
	if decoded.Port != nil {
		opts.Port = *decoded.Port
	}
	if decoded.Image != nil {
		opts.Image = domain.ImageDetails{
			RegistryPath: decoded.Image.RegistryPath,
			Username:     decoded.Image.Username,
			Password:     decoded.Image.Password,
		}
	}
	if decoded.Resources != nil {
		opts.Resources = domain.ResourceLimits{CPU: decoded.Resources.CPU, Memory: decoded.Resources.Memory}
	}
	s.logger.Debugf(ctx, "Loaded charm options (image=%s port=%d)", opts.Image.RegistryPath, opts.Port)
	return opts, nil
}

func (s *Source) evalContext() *hcl.EvalContext {
	env := make(map[string]cty.Value)
	for _, kv := range s.environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || name == "" {
			continue
		}
		env[name] = cty.StringVal(value)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"env": cty.ObjectVal(env)},
		Functions: optionFunctions(),
	}
}
