package reconciler

import (
	"github.com/go-viper/mapstructure/v2"

	"github.com/olusolaa/redis-k8s-charm/internal/core/domain"
)

type unitDatabag struct {
	IngressAddress string `mapstructure:"ingress-address"`
	PrivateAddress string `mapstructure:"private-address"`
}

// PeerFromPayload reads the remote unit's address from its databag. ok is
// false when the unit has not published an address yet.
func PeerFromPayload(payload *domain.RelationPayload) (peer domain.Peer, ok bool) {
	var bag unitDatabag
	if err := mapstructure.Decode(payload.Data, &bag); err != nil {
		return domain.Peer{}, false
	}
	addr := bag.IngressAddress
	if addr == "" {
		addr = bag.PrivateAddress
	}
	if addr == "" {
		return domain.Peer{}, false
	}
	return domain.Peer{Unit: payload.RemoteUnit, Address: addr}, true
}

// mergePeer returns a copy of peers with p added, replacing any entry for the same unit.
func mergePeer(peers []domain.Peer, p domain.Peer) []domain.Peer {
	out := make([]domain.Peer, 0, len(peers)+1)
	for _, existing := range peers {
		if existing.Unit != p.Unit {
			out = append(out, existing)
		}
	}
	return append(out, p)
}

func removePeer(peers []domain.Peer, unit string) []domain.Peer {
	out := make([]domain.Peer, 0, len(peers))
	for _, existing := range peers {
		if existing.Unit != unit {
			out = append(out, existing)
		}
	}
	return out
}
