// Package yaml loads charm options from a YAML file through viper.
package yaml

import (
	"context"
	stderrors "errors"
	"io/fs"
	"reflect"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/olusolaa/redis-k8s-charm/internal/core/domain"
	"github.com/olusolaa/redis-k8s-charm/internal/core/ports"
	"github.com/olusolaa/redis-k8s-charm/internal/errors"
)

const SourceTypeYAML = "yaml"

type Source struct {
	path        string
	defaultPort int
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
		logger:      logger.WithFields(map[string]any{"component": "yaml_options", "file_path": path}),
	}, nil
}

func (s *Source) Type() string {
	return SourceTypeYAML
}

// Load rereads the file on every call so config-changed sees fresh values.
func (s *Source) Load(ctx context.Context) (domain.CharmOptions, error) {
	v := viper.New()
	v.SetConfigFile(s.path)
	v.SetConfigType("yaml")
	v.SetDefault("port", s.defaultPort)

	if err := v.ReadInConfig(); err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return domain.CharmOptions{}, errors.WrapUserFacing(err, errors.CodeConfigNotFound,
				"charm options file not found", "Create the options file or point charm.options.path at it.")
		}
		return domain.CharmOptions{}, errors.Wrap(err, errors.CodeConfigParseError, "failed to parse charm options file")
	}

	var opts domain.CharmOptions
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		imageDetailsHook,
		mapstructure.StringToTimeDurationHookFunc(),
	))
	if err := v.Unmarshal(&opts, hook); err != nil {
		return domain.CharmOptions{}, errors.Wrap(err, errors.CodeConfigParseError, "failed to decode charm options")
	}
	s.logger.Debugf(ctx, "Loaded charm options (image=%s port=%d)", opts.Image.RegistryPath, opts.Port)
	return opts, nil
}

var imageDetailsType = reflect.TypeOf(domain.ImageDetails{})

// imageDetailsHook accepts the image either as a plain reference string or as
// an image resource map that uses imagePath for the reference.
func imageDetailsHook(from, to reflect.Type, data any) (any, error) {
	if to != imageDetailsType {
		return data, nil
	}
	switch from.Kind() {
	case reflect.String:
		return domain.ImageDetails{RegistryPath: data.(string)}, nil
	case reflect.Map:
		m, ok := data.(map[string]any)
		if !ok {
			return data, nil
		}
		if path, ok := m["imagepath"]; ok {
			if _, set := m["registrypath"]; !set {
				m["registrypath"] = path
			}
			delete(m, "imagepath")
		}
		return m, nil
	}
	return data, nil
}
