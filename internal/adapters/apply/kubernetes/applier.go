// Package kubernetes applies workload specs through the Kubernetes API. Redis
// runs as a StatefulSet behind a Service, and the applied spec is kept in a
// Secret so the observed state source can read it back.
package kubernetes

import (
	"context"
	"time"

	corev1 "k8s.io/api/core/v1"
	k8serrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"

	"github.com/olusolaa/redis-k8s-charm/internal/adapters/kube"
	"github.com/olusolaa/redis-k8s-charm/internal/adapters/snapshot"
	"github.com/olusolaa/redis-k8s-charm/internal/core/domain"
	"github.com/olusolaa/redis-k8s-charm/internal/core/ports"
	"github.com/olusolaa/redis-k8s-charm/internal/errors"
	"github.com/olusolaa/redis-k8s-charm/internal/podspec"
)

const ApplierTypeKubernetes = "kubernetes"

type Applier struct {
	client    kubernetes.Interface
	namespace string
	logger    ports.Logger
	now       func() time.Time
}

var _ ports.SpecApplier = (*Applier)(nil)

func NewApplier(client kubernetes.Interface, namespace string, logger ports.Logger) (*Applier, error) {
	if namespace == "" {
		return nil, errors.NewUserFacing(errors.CodeConfigValidation, "Kubernetes namespace cannot be empty", "Set apply.namespace in the configuration.")
	}
	return &Applier{
		client:    client,
		namespace: namespace,
		logger:    logger.WithFields(map[string]any{"component": "kubernetes_applier", "namespace": namespace}),
		now:       time.Now,
	}, nil
}

func (a *Applier) Type() string {
	return ApplierTypeKubernetes
}

func (a *Applier) Apply(ctx context.Context, desired domain.DesiredState) error {
	spec, err := podspec.Build(desired)
	if err != nil {
		return err
	}
	resources, err := podspec.BuildResources(desired)
	if err != nil {
		return err
	}
	specYAML, err := podspec.Render(spec)
	if err != nil {
		return err
	}

	for _, svc := range resources.KubernetesResources.Services {
		if err := a.ensureService(ctx, desired.AppName, svc); err != nil {
			return err
		}
	}
	pullSecret, err := a.ensurePullSecret(ctx, desired.AppName, desired.Image)
	if err != nil {
		return err
	}
	if err := a.ensureStatefulSet(ctx, a.statefulSet(desired, spec, pullSecret)); err != nil {
		return err
	}

	previous, err := a.previousSnapshot(ctx, desired.AppName)
	if err != nil {
		return err
	}
	next := previous.Next(desired, a.now())
	snapData, err := snapshot.Marshal(next)
	if err != nil {
		return err
	}
	secret := &corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{
			Name:      snapshot.SecretName(desired.AppName),
			Namespace: a.namespace,
			Labels:    kube.Labels(desired.AppName),
		},
		Type: corev1.SecretTypeOpaque,
		Data: map[string][]byte{
			snapshot.FileName:    snapData,
			snapshot.PodSpecFile: specYAML,
		},
	}
	if err := a.ensureSecret(ctx, secret); err != nil {
		return err
	}
	a.logger.Infof(ctx, "Applied pod spec revision %d for %s", next.Revision, desired.AppName)
	return nil
}

// ensureService keeps the allocated ClusterIP of an existing Service.
func (a *Applier) ensureService(ctx context.Context, appName string, svc podspec.Service) error {
	api := a.client.CoreV1().Services(a.namespace)
	obj := &corev1.Service{
		ObjectMeta: metav1.ObjectMeta{
			Name:      svc.Name,
			Namespace: a.namespace,
			Labels:    kube.Labels(appName),
		},
		Spec: corev1.ServiceSpec{
			Type:      svc.Spec.Type,
			ClusterIP: svc.Spec.ClusterIP,
			Ports:     svc.Spec.Ports,
			Selector:  svc.Spec.Selector,
		},
	}

	existing, err := api.Get(ctx, svc.Name, metav1.GetOptions{})
	switch {
	case k8serrors.IsNotFound(err):
		if _, err := api.Create(ctx, obj, metav1.CreateOptions{}); err != nil {
			return errors.Wrap(err, errors.CodeApplyError, "failed to create service").WithDetails("service=%s", svc.Name)
		}
		a.logger.Debugf(ctx, "Created service %s", svc.Name)
		return nil
	case err != nil:
		return errors.Wrap(err, errors.CodeApplyError, "failed to read service").WithDetails("service=%s", svc.Name)
	}

	obj.Spec.ClusterIP = existing.Spec.ClusterIP
	obj.ResourceVersion = existing.ResourceVersion
	if _, err := api.Update(ctx, obj, metav1.UpdateOptions{}); err != nil {
		return errors.Wrap(err, errors.CodeApplyError, "failed to update service").WithDetails("service=%s", svc.Name)
	}
	a.logger.Debugf(ctx, "Updated service %s", svc.Name)
	return nil
}

func (a *Applier) ensureSecret(ctx context.Context, secret *corev1.Secret) error {
	api := a.client.CoreV1().Secrets(a.namespace)
	existing, err := api.Get(ctx, secret.Name, metav1.GetOptions{})
	switch {
	case k8serrors.IsNotFound(err):
		if _, err := api.Create(ctx, secret, metav1.CreateOptions{}); err != nil {
			return errors.Wrap(err, errors.CodeApplyError, "failed to create secret").WithDetails("secret=%s", secret.Name)
		}
		return nil
	case err != nil:
		return errors.Wrap(err, errors.CodeApplyError, "failed to read secret").WithDetails("secret=%s", secret.Name)
	}
	secret.ResourceVersion = existing.ResourceVersion
	if _, err := api.Update(ctx, secret, metav1.UpdateOptions{}); err != nil {
		return errors.Wrap(err, errors.CodeApplyError, "failed to update secret").WithDetails("secret=%s", secret.Name)
	}
	return nil
}

func (a *Applier) previousSnapshot(ctx context.Context, appName string) (snapshot.Snapshot, error) {
	secret, err := a.client.CoreV1().Secrets(a.namespace).Get(ctx, snapshot.SecretName(appName), metav1.GetOptions{})
	if k8serrors.IsNotFound(err) {
		return snapshot.Snapshot{}, nil
	}
	if err != nil {
		return snapshot.Snapshot{}, errors.Wrap(err, errors.CodeApplyError, "failed to read state secret")
	}
	data, ok := secret.Data[snapshot.FileName]
	if !ok {
		return snapshot.Snapshot{}, nil
	}
	return snapshot.Unmarshal(data)
}

// Teardown deletes the StatefulSet, the application Service, the pull and
// state Secrets and any extra Services named in resources. Objects already
// gone are skipped.
func (a *Applier) Teardown(ctx context.Context, appName string, resources []string) error {
	err := a.client.AppsV1().StatefulSets(a.namespace).Delete(ctx, appName, metav1.DeleteOptions{})
	if err != nil && !k8serrors.IsNotFound(err) {
		return errors.Wrap(err, errors.CodeTeardownError, "failed to delete stateful set").WithDetails("statefulset=%s", appName)
	}
	services := append([]string{appName}, resources...)
	for _, name := range services {
		err := a.client.CoreV1().Services(a.namespace).Delete(ctx, name, metav1.DeleteOptions{})
		if err != nil && !k8serrors.IsNotFound(err) {
			return errors.Wrap(err, errors.CodeTeardownError, "failed to delete service").WithDetails("service=%s", name)
		}
	}
	for _, name := range []string{kube.PullSecretName(appName), snapshot.SecretName(appName)} {
		if err := a.deleteSecret(ctx, name); err != nil {
			return errors.Wrap(err, errors.CodeTeardownError, "failed to delete secret").WithDetails("secret=%s", name)
		}
	}
	a.logger.Infof(ctx, "Removed Kubernetes objects for %s", appName)
	return nil
}
