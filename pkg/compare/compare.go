package compare

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/olusolaa/redis-k8s-charm/pkg/reflectutil"
)

// Values reports whether two attribute values are equal for reconciliation
// purposes. Empty values (nil, "", 0, empty collections) are equal to each
// other, integers compare across numeric kinds and integral strings.
func Values(expected, actual any) (bool, error) {
	expEmpty := reflectutil.IsEmptyValue(expected)
	actEmpty := reflectutil.IsEmptyValue(actual)
	if expEmpty && actEmpty {
		return true, nil
	}
	if expEmpty != actEmpty {
		return false, nil
	}

	expVal := reflectutil.DerefValue(reflect.ValueOf(expected))
	actVal := reflectutil.DerefValue(reflect.ValueOf(actual))

	if reflectutil.IsNumber(expVal) || reflectutil.IsNumber(actVal) {
		expInt, expOk := reflectutil.ToInt64(expVal)
		actInt, actOk := reflectutil.ToInt64(actVal)
		if expOk && actOk {
			return expInt == actInt, nil
		}
		return false, nil
	}

	if expVal.Kind() == reflect.String && actVal.Kind() == reflect.String {
		return expVal.String() == actVal.String(), nil
	}

	if expVal.Kind() != actVal.Kind() {
		return false, nil
	}

	switch expVal.Kind() {
	case reflect.Slice, reflect.Map, reflect.Struct:
		return cmp.Equal(expVal.Interface(), actVal.Interface(), cmpopts.EquateEmpty()), nil
	}

	if expVal.Type() == actVal.Type() && expVal.Type().Comparable() {
		return expVal.Interface() == actVal.Interface(), nil
	}
	return false, fmt.Errorf("cannot compare %s with %s", expVal.Type(), actVal.Type())
}

// Sets checks if two string slices contain the same elements, ignoring order and duplicates.
// Returns true if the sets are equal, and a descriptive diff string otherwise.
func Sets(setA, setB []string) (bool, string) {
	inA := make(map[string]struct{}, len(setA))
	for _, s := range setA {
		inA[s] = struct{}{}
	}
	inB := make(map[string]struct{}, len(setB))
	for _, s := range setB {
		inB[s] = struct{}{}
	}

	var added, removed []string
	for k := range inA {
		if _, ok := inB[k]; !ok {
			added = append(added, k)
		}
	}
	for k := range inB {
		if _, ok := inA[k]; !ok {
			removed = append(removed, k)
		}
	}
	if len(added) == 0 && len(removed) == 0 {
		return true, ""
	}
	sort.Strings(added)
	sort.Strings(removed)

	var parts []string
	if len(added) > 0 {
		parts = append(parts, fmt.Sprintf("Added: [%s]", strings.Join(added, ", ")))
	}
	if len(removed) > 0 {
		parts = append(parts, fmt.Sprintf("Removed: [%s]", strings.Join(removed, ", ")))
	}
	return false, strings.Join(parts, "; ")
}

// Ordered compares two string slices element by element.
func Ordered(expected, actual []string) (bool, string) {
	if cmp.Equal(expected, actual, cmpopts.EquateEmpty()) {
		return true, ""
	}
	return false, fmt.Sprintf("expected [%s], actual [%s]", strings.Join(expected, " "), strings.Join(actual, " "))
}
