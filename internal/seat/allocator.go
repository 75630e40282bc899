// Package seat implements the allocation logic for a flight's free-seat pool.
// All functions are pure: they never mutate the pool they are given and return
// the updated pool alongside the result, so callers decide when the change is
// committed.
package seat

import (
	"fmt"
	"slices"

	"github.com/readyflight/reservations/internal/domain"
)

// Allocate removes one seat from pool and returns it together with the
// remaining pool. A preferred label wins when it is still free; otherwise the
// lowest label in lexicographic order is chosen, so the pick is deterministic
// regardless of how the pool is stored.
func Allocate(pool []string, preferred string) (string, []string, error) {
	if len(pool) == 0 {
		return "", pool, domain.ErrSeatPoolExhausted
	}

	chosen := preferred
	if chosen == "" || !slices.Contains(pool, chosen) {
		chosen = slices.Min(pool)
	}

	rest := make([]string, 0, len(pool)-1)
	taken := false
	for _, label := range pool {
		if label == chosen && !taken {
			taken = true
			continue
		}
		rest = append(rest, label)
	}
	return chosen, rest, nil
}

// Release returns label to pool. Releasing a seat that is already free is an
// invariant breach (duplicate cancellation) and is rejected.
func Release(pool []string, label string) ([]string, error) {
	if slices.Contains(pool, label) {
		return pool, fmt.Errorf("%w: seat %s", domain.ErrSeatAlreadyFree, label)
	}
	updated := make([]string, 0, len(pool)+1)
	updated = append(updated, pool...)
	updated = append(updated, label)
	return updated, nil
}

// Dedupe normalizes a seat list for a new flight: duplicates removed, order
// preserved from first occurrence.
func Dedupe(labels []string) []string {
	seen := make(map[string]struct{}, len(labels))
	out := make([]string, 0, len(labels))
	for _, label := range labels {
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		out = append(out, label)
	}
	return out
}
