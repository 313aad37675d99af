package kubernetes

import (
	"context"
	"sort"

	"github.com/docker/distribution/reference"
	jsoniter "github.com/json-iterator/go"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	k8serrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/utils/ptr"

	"github.com/olusolaa/redis-k8s-charm/internal/adapters/kube"
	"github.com/olusolaa/redis-k8s-charm/internal/core/domain"
	"github.com/olusolaa/redis-k8s-charm/internal/errors"
	"github.com/olusolaa/redis-k8s-charm/internal/podspec"
)

const revisionHistoryLimit = 5

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type dockerConfigJSON struct {
	Auths map[string]dockerConfigEntry `json:"auths"`
}

type dockerConfigEntry struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// statefulSet runs the pod spec containers with one replica per expected unit.
func (a *Applier) statefulSet(desired domain.DesiredState, spec *podspec.PodSpec, pullSecret string) *appsv1.StatefulSet {
	selector := podspec.Selector(desired.AppName)
	podLabels := kube.Labels(desired.AppName)
	for k, v := range selector {
		podLabels[k] = v
	}

	replicas := int32(len(desired.ExpectedUnits))
	if replicas == 0 {
		replicas = 1
	}

	podSpec := corev1.PodSpec{}
	for _, c := range spec.Containers {
		podSpec.Containers = append(podSpec.Containers, container(c))
	}
	if pullSecret != "" {
		podSpec.ImagePullSecrets = []corev1.LocalObjectReference{{Name: pullSecret}}
	}

	return &appsv1.StatefulSet{
		ObjectMeta: metav1.ObjectMeta{
			Name:      desired.AppName,
			Namespace: a.namespace,
			Labels:    kube.Labels(desired.AppName),
		},
		Spec: appsv1.StatefulSetSpec{
			Replicas:             ptr.To(replicas),
			Selector:             &metav1.LabelSelector{MatchLabels: selector},
			RevisionHistoryLimit: ptr.To(int32(revisionHistoryLimit)),
			ServiceName:          desired.AppName,
			PodManagementPolicy:  appsv1.ParallelPodManagement,
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{Labels: podLabels},
				Spec:       podSpec,
			},
		},
	}
}

func container(c podspec.Container) corev1.Container {
	out := corev1.Container{
		Name:            c.Name,
		Image:           c.ImageDetails.ImagePath,
		ImagePullPolicy: c.ImagePullPolicy,
		Ports:           c.Ports,
		ReadinessProbe:  c.Kubernetes.ReadinessProbe,
	}
	if c.Kubernetes.Resources != nil {
		out.Resources = *c.Kubernetes.Resources
	}

	names := make([]string, 0, len(c.EnvConfig))
	for name := range c.EnvConfig {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		switch v := c.EnvConfig[name].(type) {
		case podspec.FieldRef:
			out.Env = append(out.Env, corev1.EnvVar{
				Name: name,
				ValueFrom: &corev1.EnvVarSource{
					FieldRef: &corev1.ObjectFieldSelector{APIVersion: v.Field.APIVersion, FieldPath: v.Field.Path},
				},
			})
		case string:
			out.Env = append(out.Env, corev1.EnvVar{Name: name, Value: v})
		}
	}
	return out
}

// ensureStatefulSet creates the StatefulSet or updates the mutable parts of
// an existing one. ServiceName and the selector cannot change after creation.
func (a *Applier) ensureStatefulSet(ctx context.Context, sts *appsv1.StatefulSet) error {
	api := a.client.AppsV1().StatefulSets(a.namespace)
	_, err := api.Create(ctx, sts, metav1.CreateOptions{})
	switch {
	case err == nil:
		a.logger.Debugf(ctx, "Created stateful set %s", sts.Name)
		return nil
	case !k8serrors.IsAlreadyExists(err):
		return errors.Wrap(err, errors.CodeApplyError, "failed to create stateful set").WithDetails("statefulset=%s", sts.Name)
	}

	existing, err := api.Get(ctx, sts.Name, metav1.GetOptions{})
	if err != nil {
		return errors.Wrap(err, errors.CodeApplyError, "failed to read stateful set").WithDetails("statefulset=%s", sts.Name)
	}
	existing.Labels = sts.Labels
	existing.Spec.Replicas = sts.Spec.Replicas
	existing.Spec.RevisionHistoryLimit = sts.Spec.RevisionHistoryLimit
	existing.Spec.Template.Labels = sts.Spec.Template.Labels
	existing.Spec.Template.Spec.Containers = sts.Spec.Template.Spec.Containers
	existing.Spec.Template.Spec.ImagePullSecrets = sts.Spec.Template.Spec.ImagePullSecrets
	if _, err := api.Update(ctx, existing, metav1.UpdateOptions{}); err != nil {
		return errors.Wrap(err, errors.CodeApplyError, "failed to update stateful set").WithDetails("statefulset=%s", sts.Name)
	}
	a.logger.Debugf(ctx, "Updated stateful set %s", sts.Name)
	return nil
}

// ensurePullSecret writes the docker config Secret for image credentials and
// returns its name, or removes a stale one when no credentials are set.
func (a *Applier) ensurePullSecret(ctx context.Context, appName string, image domain.ImageDetails) (string, error) {
	name := kube.PullSecretName(appName)
	if !image.HasCredentials() {
		if err := a.deleteSecret(ctx, name); err != nil {
			return "", errors.Wrap(err, errors.CodeApplyError, "failed to remove image pull secret").WithDetails("secret=%s", name)
		}
		return "", nil
	}

	data, err := dockerConfig(image)
	if err != nil {
		return "", err
	}
	secret := &corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: a.namespace,
			Labels:    kube.Labels(appName),
		},
		Type: corev1.SecretTypeDockerConfigJson,
		Data: map[string][]byte{corev1.DockerConfigJsonKey: data},
	}
	if err := a.ensureSecret(ctx, secret); err != nil {
		return "", err
	}
	return name, nil
}

func dockerConfig(image domain.ImageDetails) ([]byte, error) {
	named, err := reference.ParseNormalizedNamed(image.RegistryPath)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeRenderError, "failed to extract registry from image path").WithDetails("image=%s", image.RegistryPath)
	}
	cfg := dockerConfigJSON{Auths: map[string]dockerConfigEntry{
		reference.Domain(named): {Username: image.Username, Password: image.Password},
	}}
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeRenderError, "failed to encode docker config")
	}
	return data, nil
}

func (a *Applier) deleteSecret(ctx context.Context, name string) error {
	err := a.client.CoreV1().Secrets(a.namespace).Delete(ctx, name, metav1.DeleteOptions{})
	if err != nil && !k8serrors.IsNotFound(err) {
		return err
	}
	return nil
}
