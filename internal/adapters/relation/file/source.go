// Package file keeps the peer relation databags in a JSON file of the form
// {"redis/1": {"ingress-address": "10.0.0.5"}}.
package file

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	jsoniter "github.com/json-iterator/go"

	"github.com/olusolaa/redis-k8s-charm/internal/core/domain"
	"github.com/olusolaa/redis-k8s-charm/internal/core/ports"
	"github.com/olusolaa/redis-k8s-charm/internal/core/reconciler"
	"github.com/olusolaa/redis-k8s-charm/internal/errors"
	"github.com/olusolaa/redis-k8s-charm/pkg/convert"
)

const SourceTypeFile = "file"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Source struct {
	path   string
	logger ports.Logger
	mu     sync.Mutex
}

var (
	_ ports.RelationSource   = (*Source)(nil)
	_ ports.RelationRecorder = (*Source)(nil)
)

func NewSource(path string, logger ports.Logger) (*Source, error) {
	if path == "" {
		return nil, errors.NewUserFacing(errors.CodeConfigValidation, "relation data file path cannot be empty", "Set relation.path in the configuration.")
	}
	return &Source{path: path, logger: logger.WithFields(map[string]any{"component": "file_relation", "file_path": path})}, nil
}

func (s *Source) Type() string {
	return SourceTypeFile
}

// Peers lists the units that have published an address, ordered by unit number.
func (s *Source) Peers(ctx context.Context) ([]domain.Peer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bags, err := s.read()
	if err != nil {
		return nil, err
	}
	units := make([]string, 0, len(bags))
	for unit := range bags {
		units = append(units, unit)
	}

	var peers []domain.Peer
	for _, unit := range reconciler.SortUnits(units) {
		peer, ok := reconciler.PeerFromPayload(&domain.RelationPayload{RemoteUnit: unit, Data: bags[unit]})
		if !ok {
			s.logger.Debugf(ctx, "Unit %s has not published an address yet", unit)
			continue
		}
		peers = append(peers, peer)
	}
	return peers, nil
}

// Record stores the remote unit's databag, or drops it when the unit departed.
func (s *Source) Record(ctx context.Context, event domain.Event) error {
	if !event.Kind.IsRelation() || event.Relation == nil || event.Relation.RemoteUnit == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	bags, err := s.read()
	if err != nil {
		return err
	}
	unit := event.Relation.RemoteUnit
	if event.Kind == domain.EventRelationDeparted {
		delete(bags, unit)
	} else {
		merged := make(map[string]string, len(bags[unit])+len(event.Relation.Data))
		for k, v := range bags[unit] {
			merged[k] = v
		}
		for k, v := range event.Relation.Data {
			merged[k] = v
		}
		bags[unit] = merged
	}
	if err := s.write(bags); err != nil {
		return err
	}
	s.logger.Debugf(ctx, "Recorded %s for %s", event.Kind, unit)
	return nil
}

func (s *Source) read() (map[string]map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return map[string]map[string]string{}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeRelationReadError, "failed to read relation data file")
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, errors.CodeRelationReadError, "failed to parse relation data file")
	}
	bags := make(map[string]map[string]string, len(raw))
	for unit, v := range raw {
		bag, err := convert.ToStringMap(v)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeRelationReadError, "invalid relation databag").WithDetails("unit=%s", unit)
		}
		bags[unit] = bag
	}
	return bags, nil
}

func (s *Source) write(bags map[string]map[string]string) error {
	data, err := json.MarshalIndent(bags, "", "  ")
	if err != nil {
		return errors.Wrap(err, errors.CodeRelationWriteError, "failed to encode relation data")
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return errors.Wrap(err, errors.CodeRelationWriteError, "failed to create relation data directory")
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return errors.Wrap(err, errors.CodeRelationWriteError, "failed to write relation data file")
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return errors.Wrap(err, errors.CodeRelationWriteError, "failed to replace relation data file")
	}
	return nil
}
