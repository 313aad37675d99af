// Package kubernetes reads the observed workload from the state Secret, the
// Redis StatefulSet and its Service in the application namespace.
package kubernetes

import (
	"context"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	k8serrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"

	"github.com/olusolaa/redis-k8s-charm/internal/adapters/snapshot"
	"github.com/olusolaa/redis-k8s-charm/internal/core/domain"
	"github.com/olusolaa/redis-k8s-charm/internal/core/ports"
	"github.com/olusolaa/redis-k8s-charm/internal/errors"
	"github.com/olusolaa/redis-k8s-charm/internal/podspec"
)

const SourceTypeKubernetes = "kubernetes"

type Source struct {
	client    kubernetes.Interface
	namespace string
	logger    ports.Logger
}

var _ ports.ObservedStateSource = (*Source)(nil)

func NewSource(client kubernetes.Interface, namespace string, logger ports.Logger) (*Source, error) {
	if namespace == "" {
		return nil, errors.NewUserFacing(errors.CodeConfigValidation, "Kubernetes namespace cannot be empty", "Set apply.namespace in the configuration.")
	}
	return &Source{
		client:    client,
		namespace: namespace,
		logger:    logger.WithFields(map[string]any{"component": "kubernetes_observed", "namespace": namespace}),
	}, nil
}

func (s *Source) Type() string {
	return SourceTypeKubernetes
}

// Observe reports the workload as absent when the state Secret, the
// StatefulSet or the Service is missing. Image and resource limits come from
// the live StatefulSet and the port from the live Service, so edits made
// outside the charm show up as drift.
func (s *Source) Observe(ctx context.Context, appName string) (domain.ObservedState, error) {
	secretName := snapshot.SecretName(appName)
	secret, err := s.client.CoreV1().Secrets(s.namespace).Get(ctx, secretName, metav1.GetOptions{})
	if k8serrors.IsNotFound(err) {
		s.logger.Debugf(ctx, "State secret %s not found, workload is absent", secretName)
		return domain.ObservedState{}, nil
	}
	if err != nil {
		return domain.ObservedState{}, errors.Wrap(err, errors.CodeObservedReadError, "failed to read state secret").WithDetails("secret=%s", secretName)
	}
	data, ok := secret.Data[snapshot.FileName]
	if !ok {
		return domain.ObservedState{}, errors.New(errors.CodeObservedParseError, "state secret has no snapshot").WithDetails("secret=%s key=%s", secretName, snapshot.FileName)
	}
	snap, err := snapshot.Unmarshal(data)
	if err != nil {
		return domain.ObservedState{}, err
	}

	svc, err := s.client.CoreV1().Services(s.namespace).Get(ctx, appName, metav1.GetOptions{})
	if k8serrors.IsNotFound(err) {
		s.logger.Warnf(ctx, "Service %s is missing although revision %d was applied", appName, snap.Revision)
		return domain.ObservedState{}, nil
	}
	if err != nil {
		return domain.ObservedState{}, errors.Wrap(err, errors.CodeObservedReadError, "failed to read service").WithDetails("service=%s", appName)
	}

	sts, err := s.client.AppsV1().StatefulSets(s.namespace).Get(ctx, appName, metav1.GetOptions{})
	if k8serrors.IsNotFound(err) {
		s.logger.Warnf(ctx, "Stateful set %s is missing although revision %d was applied", appName, snap.Revision)
		return domain.ObservedState{}, nil
	}
	if err != nil {
		return domain.ObservedState{}, errors.Wrap(err, errors.CodeObservedReadError, "failed to read stateful set").WithDetails("statefulset=%s", appName)
	}

	observed := snap.Observed()
	c := workloadContainer(sts, appName)
	if c == nil {
		s.logger.Warnf(ctx, "Stateful set %s has no %s container", appName, appName)
		return domain.ObservedState{}, nil
	}
	observed.Image.RegistryPath = c.Image
	observed.Resources.CPU = liveLimit(c.Resources.Limits, corev1.ResourceCPU, observed.Resources.CPU)
	observed.Resources.Memory = liveLimit(c.Resources.Limits, corev1.ResourceMemory, observed.Resources.Memory)

	for _, port := range svc.Spec.Ports {
		if port.Name == podspec.PortName {
			observed.Port = int(port.Port)
		}
	}
	return observed, nil
}

func workloadContainer(sts *appsv1.StatefulSet, name string) *corev1.Container {
	for i := range sts.Spec.Template.Spec.Containers {
		if sts.Spec.Template.Spec.Containers[i].Name == name {
			return &sts.Spec.Template.Spec.Containers[i]
		}
	}
	return nil
}

// liveLimit returns the limit set on the container. The applied spelling is
// kept when it denotes the same quantity, so "0.5" and "500m" do not drift.
func liveLimit(limits corev1.ResourceList, name corev1.ResourceName, applied string) string {
	live, ok := limits[name]
	if !ok {
		return ""
	}
	if q, err := resource.ParseQuantity(applied); err == nil && q.Cmp(live) == 0 {
		return applied
	}
	return live.String()
}
