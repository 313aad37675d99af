// Package kube builds the client-go clientset shared by the Kubernetes
// applier and observed state source.
package kube

import (
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/olusolaa/redis-k8s-charm/internal/errors"
)

const (
	LabelAppName   = "app.kubernetes.io/name"
	LabelManagedBy = "app.kubernetes.io/managed-by"
	ManagedBy      = "redis-charm"
)

// NewClientset uses kubeconfig when set and the in-cluster service account otherwise.
func NewClientset(kubeconfig string) (kubernetes.Interface, error) {
	var (
		cfg *rest.Config
		err error
	)
	if kubeconfig == "" {
		cfg, err = rest.InClusterConfig()
	} else {
		cfg, err = clientcmd.BuildConfigFromFlags("", kubeconfig)
	}
	if err != nil {
		return nil, errors.WrapUserFacing(err, errors.CodeConfigValidation,
			"failed to load Kubernetes client configuration",
			"Set apply.kubeconfig to a readable kubeconfig file, or run inside the cluster.")
	}
	client, err := kubernetes.NewForConfig(cfg)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeConfigValidation, "failed to create Kubernetes client")
	}
	return client, nil
}

// Labels are set on every object the charm creates for appName.
func Labels(appName string) map[string]string {
	return map[string]string{
		LabelAppName:   appName,
		LabelManagedBy: ManagedBy,
	}
}

// PullSecretName is the image pull Secret the workload uses for appName.
func PullSecretName(appName string) string {
	return appName + "-registry"
}
