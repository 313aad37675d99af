package reconciler

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"k8s.io/apimachinery/pkg/api/resource"

	"github.com/olusolaa/redis-k8s-charm/internal/core/domain"
)

// Settings the operator must provide before a spec can be produced.
const (
	settingImage       = "image"
	settingApplication = "application"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("quantity", func(fl validator.FieldLevel) bool {
		_, err := resource.ParseQuantity(fl.Field().String())
		return err == nil
	})
	return v
}

// Problem returns the reason the configuration cannot be reconciled,
// or an empty string when it is valid. Only the most important problem is
// reported: port, then missing settings, then resource limits, then peers.
func Problem(cfg domain.Configuration) string {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return "invalid port"
	}

	var missing, badLimits []string
	err := validate.StructExcept(cfg, "Peers")
	var verrs validator.ValidationErrors
	if stderrors.As(err, &verrs) {
		for _, fe := range verrs {
			switch fe.StructNamespace() {
			case "Configuration.Image.RegistryPath":
				missing = append(missing, settingImage)
			case "Configuration.AppName":
				missing = append(missing, settingApplication)
			case "Configuration.Resources.CPU":
				badLimits = append(badLimits, "cpu")
			case "Configuration.Resources.Memory":
				badLimits = append(badLimits, "memory")
			}
		}
	} else if err != nil {
		return fmt.Sprintf("invalid configuration: %v", err)
	}

	if len(missing) > 0 {
		return fmt.Sprintf("Missing configuration: ['%s']", strings.Join(missing, "', '"))
	}
	if len(badLimits) > 0 {
		return fmt.Sprintf("invalid resource limit: %s", strings.Join(badLimits, ", "))
	}

	for _, p := range cfg.Peers {
		if reason := peerProblem(p); reason != "" {
			return reason
		}
	}
	return ""
}

func peerProblem(p domain.Peer) string {
	if err := validate.Struct(p); err != nil {
		name := p.Unit
		if name == "" {
			name = p.Address
		}
		return fmt.Sprintf("invalid peer address: %s", name)
	}
	return ""
}
