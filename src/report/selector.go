package report

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// MaxRangeSize is the largest number of builds a single range may select.
const MaxRangeSize = 10000

// ParseSelector expands a build selector token. "12" selects build 12 and
// "12-15" selects builds 12 through 15 inclusive. A single token is returned
// unmodified; it does not have to be numeric.
func ParseSelector(token string) ([]string, error) {
	if token == "" {
		return nil, &InvalidRangeError{Token: token, Reason: "empty selector"}
	}

	parts := strings.Split(token, "-")
	switch len(parts) {
	case 1:
		return []string{token}, nil
	case 2:
		start, err := strconv.Atoi(parts[0])
		if err != nil {
			return nil, &InvalidRangeError{Token: token, Reason: "start is not a number"}
		}
		stop, err := strconv.Atoi(parts[1])
		if err != nil {
			return nil, &InvalidRangeError{Token: token, Reason: "stop is not a number"}
		}
		if start > stop {
			return nil, &InvalidRangeError{Token: token, Reason: "start is greater than stop"}
		}

		if stop-start >= MaxRangeSize {
			return nil, &InvalidRangeError{Token: token, Reason: fmt.Sprintf("range spans more than %d builds", MaxRangeSize)}
		}

		ids := make([]string, 0, stop-start+1)
		for i := start; ; i++ {
			ids = append(ids, strconv.Itoa(i))
			if i == stop {
				break
			}
		}
		return ids, nil
	default:
		return nil, &InvalidRangeError{Token: token}
	}
}

// ExpandSelectors unions the expansion of every token. Any invalid token fails the
// whole expansion. The result has no duplicates and is ordered numerically, with
// non-numeric identifiers last.
func ExpandSelectors(tokens []string) ([]string, error) {
	seen := make(map[string]bool)
	var ids []string

	for _, token := range tokens {
		expanded, err := ParseSelector(token)
		if err != nil {
			return nil, err
		}
		for _, id := range expanded {
			if seen[id] {
				continue
			}
			seen[id] = true
			ids = append(ids, id)
		}
	}

	SortBuildIDs(ids)
	return ids, nil
}

// SortBuildIDs orders build identifiers numerically; non-numeric ones sort last,
// lexically.
func SortBuildIDs(ids []string) {
	sort.SliceStable(ids, func(i, j int) bool {
		a, errA := strconv.Atoi(ids[i])
		b, errB := strconv.Atoi(ids[j])
		switch {
		case errA == nil && errB == nil:
			return a < b
		case errA == nil:
			return true
		case errB == nil:
			return false
		default:
			return ids[i] < ids[j]
		}
	})
}
