package reconciler

import (
	"sort"
	"strconv"
	"strings"

	"github.com/olusolaa/redis-k8s-charm/internal/core/domain"
)

// Desired computes the workload spec a leader would apply for cfg.
func Desired(cfg domain.Configuration) domain.DesiredState {
	return domain.DesiredState{WorkloadSpec: domain.WorkloadSpec{
		AppName:       cfg.AppName,
		Image:         cfg.Image,
		Port:          cfg.Port,
		Resources:     cfg.Resources,
		Peers:         peerAddresses(cfg.Peers),
		ExpectedUnits: SortUnits(cfg.ExpectedUnits),
	}}
}

func peerAddresses(peers []domain.Peer) []string {
	if len(peers) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(peers))
	out := make([]string, 0, len(peers))
	for _, p := range peers {
		if _, dup := seen[p.Address]; dup {
			continue
		}
		seen[p.Address] = struct{}{}
		out = append(out, p.Address)
	}
	sort.Strings(out)
	return out
}

// SortUnits returns a copy of units ordered by unit number, so redis/10
// sorts after redis/2. Names without a numeric suffix go last.
func SortUnits(units []string) []string {
	if len(units) == 0 {
		return nil
	}
	out := append([]string(nil), units...)
	sort.SliceStable(out, func(i, j int) bool {
		ni, iok := unitNumber(out[i])
		nj, jok := unitNumber(out[j])
		switch {
		case iok && jok && ni != nj:
			return ni < nj
		case iok != jok:
			return iok
		default:
			return out[i] < out[j]
		}
	})
	return out
}

func unitNumber(unit string) (int, bool) {
	idx := strings.LastIndex(unit, "/")
	if idx < 0 {
		return 0, false
	}
	n, err := strconv.Atoi(unit[idx+1:])
	if err != nil {
		return 0, false
	}
	return n, true
}
