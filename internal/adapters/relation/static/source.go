// Package static serves a fixed peer list. It backs the "none" relation type,
// where the unit runs without a peer relation.
package static

import (
	"context"

	"github.com/olusolaa/redis-k8s-charm/internal/core/domain"
	"github.com/olusolaa/redis-k8s-charm/internal/core/ports"
)

const SourceTypeNone = "none"

type Source struct {
	peers []domain.Peer
}

var _ ports.RelationSource = (*Source)(nil)

func NewSource(peers ...domain.Peer) *Source {
	return &Source{peers: peers}
}

func (s *Source) Type() string {
	return SourceTypeNone
}

func (s *Source) Peers(context.Context) ([]domain.Peer, error) {
	return append([]domain.Peer(nil), s.peers...), nil
}
