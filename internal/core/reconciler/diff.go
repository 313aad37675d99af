package reconciler

import (
	"fmt"
	"sort"

	"github.com/olusolaa/redis-k8s-charm/internal/core/domain"
	"github.com/olusolaa/redis-k8s-charm/pkg/compare"
)

// diffSpecs lists the attributes where actual deviates from expected,
// ordered by attribute name.
func diffSpecs(expected, actual domain.WorkloadSpec) []domain.AttributeDiff {
	expAttrs := expected.Attributes()
	actAttrs := actual.Attributes()

	keys := make([]string, 0, len(expAttrs))
	for k := range expAttrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var diffs []domain.AttributeDiff
	for _, key := range keys {
		expVal, actVal := expAttrs[key], actAttrs[key]

		var equal bool
		var details string
		switch key {
		case domain.KeyPeers:
			equal, details = compare.Sets(expected.Peers, actual.Peers)
		case domain.KeyExpectedUnits:
			equal, details = compare.Ordered(expected.ExpectedUnits, actual.ExpectedUnits)
		default:
			var err error
			equal, err = compare.Values(expVal, actVal)
			if err != nil {
				details = fmt.Sprintf("Comparison error: %v", err)
			}
		}

		if !equal {
			diffs = append(diffs, domain.AttributeDiff{
				AttributeName: key,
				ExpectedValue: expVal,
				ActualValue:   actVal,
				Details:       details,
			})
		}
	}
	return diffs
}
