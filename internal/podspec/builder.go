// Package podspec renders a desired Redis workload into the framework's pod
// spec and the Kubernetes resources that accompany it.
package podspec

import (
	"strings"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	"k8s.io/apimachinery/pkg/util/intstr"
	"sigs.k8s.io/yaml"

	"github.com/olusolaa/redis-k8s-charm/internal/core/domain"
	"github.com/olusolaa/redis-k8s-charm/internal/errors"
)

func Build(desired domain.DesiredState) (*PodSpec, error) {
	if desired.AppName == "" {
		return nil, errors.New(errors.CodeRenderError, "application name is required to build a pod spec")
	}
	limits, err := resourceLimits(desired.Resources)
	if err != nil {
		return nil, err
	}

	container := Container{
		Name: desired.AppName,
		ImageDetails: ImageDetails{
			ImagePath: desired.Image.RegistryPath,
			Username:  desired.Image.Username,
			Password:  desired.Image.Password,
		},
		ImagePullPolicy: corev1.PullAlways,
		Ports: []corev1.ContainerPort{{
			Name:          PortName,
			ContainerPort: int32(desired.Port),
			Protocol:      corev1.ProtocolTCP,
		}},
		EnvConfig: envConfig(desired),
		Kubernetes: ContainerKubernetes{
			ReadinessProbe: readinessProbe(desired.Port),
			Resources:      limits,
		},
	}

	return &PodSpec{Version: Version, Containers: []Container{container}}, nil
}

func BuildResources(desired domain.DesiredState) (*Resources, error) {
	if desired.AppName == "" {
		return nil, errors.New(errors.CodeRenderError, "application name is required to build pod resources")
	}
	svc := Service{
		Name: desired.AppName,
		Spec: ServiceSpec{
			Type:      corev1.ServiceTypeNodePort,
			ClusterIP: "",
			Ports: []corev1.ServicePort{{
				Name:       PortName,
				Port:       int32(desired.Port),
				TargetPort: intstr.FromString(PortName),
				Protocol:   corev1.ProtocolTCP,
			}},
			Selector: Selector(desired.AppName),
		},
	}
	return &Resources{KubernetesResources: KubernetesResources{Services: []Service{svc}}}, nil
}

// Selector matches the pods of the Redis master for appName.
func Selector(appName string) map[string]string {
	return map[string]string{
		LabelAppName: appName,
		LabelRole:    RoleMaster,
	}
}

// Render serializes a pod spec or resources document to YAML.
func Render(doc any) ([]byte, error) {
	out, err := yaml.Marshal(doc)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeRenderError, "failed to render document as YAML")
	}
	return out, nil
}

func envConfig(desired domain.DesiredState) map[string]any {
	env := make(map[string]any, len(fieldRefs)+3)
	for name, path := range fieldRefs {
		env[name] = FieldRef{Field: FieldPath{Path: path, APIVersion: "v1"}}
	}
	env[EnvExpectedUnits] = strings.Join(desired.ExpectedUnits, " ")
	env[EnvApplication] = desired.AppName
	env[EnvPeers] = strings.Join(desired.Peers, " ")
	return env
}

func readinessProbe(port int) *corev1.Probe {
	return &corev1.Probe{
		ProbeHandler: corev1.ProbeHandler{
			TCPSocket: &corev1.TCPSocketAction{Port: intstr.FromInt32(int32(port))},
		},
		InitialDelaySeconds: ReadinessInitialDelaySeconds,
		PeriodSeconds:       ReadinessPeriodSeconds,
	}
}

func resourceLimits(limits domain.ResourceLimits) (*corev1.ResourceRequirements, error) {
	list := corev1.ResourceList{}
	if limits.CPU != "" {
		q, err := resource.ParseQuantity(limits.CPU)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeRenderError, "invalid cpu limit").WithDetails("value=%s", limits.CPU)
		}
		list[corev1.ResourceCPU] = q
	}
	if limits.Memory != "" {
		q, err := resource.ParseQuantity(limits.Memory)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeRenderError, "invalid memory limit").WithDetails("value=%s", limits.Memory)
		}
		list[corev1.ResourceMemory] = q
	}
	if len(list) == 0 {
		return nil, nil
	}
	return &corev1.ResourceRequirements{Limits: list}, nil
}
