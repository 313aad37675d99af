// Package snapshot encodes the record of the last applied workload spec. The
// appliers write it and the observed state sources read it back.
package snapshot

import (
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/olusolaa/redis-k8s-charm/internal/core/domain"
	"github.com/olusolaa/redis-k8s-charm/internal/errors"
)

const (
	FileName      = "snapshot.json"
	PodSpecFile   = "podspec.yaml"
	ResourcesFile = "resources.yaml"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Snapshot struct {
	Revision  int64               `json:"revision"`
	AppliedAt time.Time           `json:"applied_at"`
	Spec      domain.WorkloadSpec `json:"spec"`
}

// Next returns the snapshot recording desired as the revision after s.
func (s Snapshot) Next(desired domain.DesiredState, now time.Time) Snapshot {
	return Snapshot{Revision: s.Revision + 1, AppliedAt: now.UTC(), Spec: desired.WorkloadSpec}
}

func (s Snapshot) Observed() domain.ObservedState {
	return domain.ObservedFrom(s.Spec, strconv.FormatInt(s.Revision, 10))
}

func Marshal(s Snapshot) ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeApplyError, "failed to encode workload snapshot")
	}
	return data, nil
}

func Unmarshal(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, errors.Wrap(err, errors.CodeObservedParseError, "failed to decode workload snapshot")
	}
	return s, nil
}

// SecretName is the Kubernetes Secret holding the snapshot for appName.
func SecretName(appName string) string {
	return appName + "-charm-state"
}
