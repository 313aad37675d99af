package app

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/olusolaa/redis-k8s-charm/internal/core/domain"
	"github.com/olusolaa/redis-k8s-charm/internal/core/ports"
	"github.com/olusolaa/redis-k8s-charm/internal/errors"
)

// option keys accepted by --set
const (
	overridePort          = "port"
	overrideImage         = "image"
	overrideImageUsername = "image_username"
	overrideImagePassword = "image_password"
	overrideCPU           = "cpu"
	overrideMemory        = "memory"
)

var overrideKeys = map[string]struct{}{
	overridePort:          {},
	overrideImage:         {},
	overrideImageUsername: {},
	overrideImagePassword: {},
	overrideCPU:           {},
	overrideMemory:        {},
}

// parseOptionOverrides reads "port=6380;image=redis:7". Later pairs win.
func parseOptionOverrides(override string) (map[string]string, error) {
	if strings.TrimSpace(override) == "" {
		return nil, nil
	}
	parsed := make(map[string]string)
	for _, pair := range strings.Split(override, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		parts := strings.SplitN(pair, "=", 2)
		key := strings.TrimSpace(parts[0])
		if len(parts) != 2 || key == "" {
			return nil, errors.NewUserFacing(errors.CodeConfigValidation,
				fmt.Sprintf("invalid option override: %s", pair), "Use key=value pairs separated by ';'.")
		}
		if _, ok := overrideKeys[key]; !ok {
			return nil, errors.NewUserFacing(errors.CodeConfigValidation,
				fmt.Sprintf("unknown charm option: %s", key),
				fmt.Sprintf("Supported options: %s.", strings.Join(sortedOverrideKeys(), ", ")))
		}
		value := strings.TrimSpace(parts[1])
		if key == overridePort {
			if _, err := strconv.Atoi(value); err != nil {
				return nil, errors.WrapUserFacing(err, errors.CodeConfigValidation,
					fmt.Sprintf("port override is not a number: %s", value), "Pass an integer port, e.g. port=6380.")
			}
		}
		parsed[key] = value
	}
	if len(parsed) == 0 {
		return nil, nil
	}
	return parsed, nil
}

func sortedOverrideKeys() []string {
	keys := make([]string, 0, len(overrideKeys))
	for k := range overrideKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// overrideSource layers command line option overrides over another source.
type overrideSource struct {
	base      ports.ConfigSource
	overrides map[string]string
}

var _ ports.ConfigSource = (*overrideSource)(nil)

func (s *overrideSource) Type() string {
	return s.base.Type()
}

func (s *overrideSource) Load(ctx context.Context) (domain.CharmOptions, error) {
	opts, err := s.base.Load(ctx)
	if err != nil {
		return opts, err
	}
	for key, value := range s.overrides {
		switch key {
		case overridePort:
			// checked by parseOptionOverrides
			opts.Port, _ = strconv.Atoi(value)
		case overrideImage:
			opts.Image.RegistryPath = value
		case overrideImageUsername:
			opts.Image.Username = value
		case overrideImagePassword:
			opts.Image.Password = value
		case overrideCPU:
			opts.Resources.CPU = value
		case overrideMemory:
			opts.Resources.Memory = value
		}
	}
	return opts, nil
}
