package resolver

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// CompareGroupKeys orders version group keys. Keys of up to three numeric
// components are compared as semantic versions, ties going to the key with more
// components ("1.21" < "1.21.0"). Other keys are compared component by
// component: a non-numeric component ranks above every number and a key that is
// a prefix of another ranks below it.
func CompareGroupKeys(a, b string) int {
	va, okA := parseSemver(a)
	vb, okB := parseSemver(b)
	if okA && okB {
		if c := va.Compare(vb); c != 0 {
			return c
		}
		if c := compareInt(strings.Count(a, "."), strings.Count(b, ".")); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	}

	pa := strings.Split(a, ".")
	pb := strings.Split(b, ".")
	for i := 0; i < len(pa) && i < len(pb); i++ {
		if c := compareInt(componentValue(pa[i]), componentValue(pb[i])); c != 0 {
			return c
		}
	}
	if len(pa) != len(pb) {
		return compareInt(len(pa), len(pb))
	}
	// Equal rank, e.g. two different non-numeric keys; keep the order total.
	return strings.Compare(a, b)
}

// parseSemver accepts keys of at most three all-digit components.
func parseSemver(s string) (*semver.Version, bool) {
	if !isPlainNumeric(s) {
		return nil, false
	}
	v, err := semver.NewVersion(s)
	if err != nil {
		return nil, false
	}
	return v, true
}

// SortGroupKeys sorts keys newest first.
func SortGroupKeys(keys []string) {
	sort.SliceStable(keys, func(i, j int) bool {
		return CompareGroupKeys(keys[i], keys[j]) > 0
	})
}

// isPlainNumeric reports whether s has at most three all-digit components.
func isPlainNumeric(s string) bool {
	parts := strings.Split(s, ".")
	if len(parts) > 3 {
		return false
	}
	for _, p := range parts {
		if p == "" {
			return false
		}
		for _, r := range p {
			if r < '0' || r > '9' {
				return false
			}
		}
	}
	return true
}

func componentValue(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return math.MaxInt
	}
	return n
}

func compareInt(a, b int) int {
	switch {
	case a > b:
		return 1
	case a < b:
		return -1
	default:
		return 0
	}
}
