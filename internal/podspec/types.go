package podspec

import (
	corev1 "k8s.io/api/core/v1"
)

const (
	Version = 3

	PortName = "redis"

	LabelAppName = "app.kubernetes.io/name"
	LabelRole    = "role"
	RoleMaster   = "master"

	EnvExpectedUnits = "JUJU_EXPECTED_UNITS"
	EnvApplication   = "JUJU_APPLICATION"
	EnvPeers         = "REDIS_PEERS"

	ReadinessInitialDelaySeconds = 10
	ReadinessPeriodSeconds       = 5
)

// fieldRefs are exposed to the container through the downward API.
var fieldRefs = map[string]string{
	"JUJU_NODE_NAME":     "spec.nodeName",
	"JUJU_POD_NAME":      "metadata.name",
	"JUJU_POD_NAMESPACE": "metadata.namespace",
	"JUJU_POD_IP":        "status.podIP",
}

// PodSpec is the version 3 pod spec document handed to the framework.
type PodSpec struct {
	Version    int         `json:"version"`
	Containers []Container `json:"containers"`
}

type Container struct {
	Name            string                 `json:"name"`
	ImageDetails    ImageDetails           `json:"imageDetails"`
	ImagePullPolicy corev1.PullPolicy      `json:"imagePullPolicy"`
	Ports           []corev1.ContainerPort `json:"ports"`
	EnvConfig       map[string]any         `json:"envConfig"`
	Kubernetes      ContainerKubernetes    `json:"kubernetes"`
}

type ImageDetails struct {
	ImagePath string `json:"imagePath"`
	Username  string `json:"username,omitempty"`
	Password  string `json:"password,omitempty"`
}

// ContainerKubernetes holds the provider specific container attributes.
type ContainerKubernetes struct {
	ReadinessProbe *corev1.Probe                `json:"readinessProbe,omitempty"`
	Resources      *corev1.ResourceRequirements `json:"resources,omitempty"`
}

type FieldRef struct {
	Field FieldPath `json:"field"`
}

type FieldPath struct {
	Path       string `json:"path"`
	APIVersion string `json:"api-version"`
}

// Resources are the extra Kubernetes objects created alongside the pod.
type Resources struct {
	KubernetesResources KubernetesResources `json:"kubernetesResources"`
}

type KubernetesResources struct {
	Services []Service `json:"services"`
}

type Service struct {
	Name string      `json:"name"`
	Spec ServiceSpec `json:"spec"`
}

// ServiceSpec always serializes clusterIP: an empty value asks Kubernetes
// for a stable allocated address instead of a headless service.
type ServiceSpec struct {
	Type      corev1.ServiceType   `json:"type"`
	ClusterIP string               `json:"clusterIP"`
	Ports     []corev1.ServicePort `json:"ports"`
	Selector  map[string]string    `json:"selector"`
}
