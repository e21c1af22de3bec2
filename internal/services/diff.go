package services

import (
	"sort"

	"github.com/fieldsync/server/internal/models"
)

// Diff computes the assignment delta between a device's current edge set
// and a requested target set for one relation kind. Pure set algebra, no
// I/O. Each relation kind (geofences, POIs, groups) is diffed on its own;
// the kinds are independent edge tables and are never merged.
//
// added = target − original, removed = original − target,
// untouched = original ∩ target. Inputs are deduplicated and all output
// slices are sorted so the result is deterministic regardless of input
// order.
func Diff(original, target []string) models.AssignmentDelta {
	origSet := toSet(original)
	targetSet := toSet(target)

	delta := models.AssignmentDelta{
		Original:  []string{},
		Added:     []string{},
		Removed:   []string{},
		Untouched: []string{},
	}

	for id := range origSet {
		delta.Original = append(delta.Original, id)
		if _, ok := targetSet[id]; ok {
			delta.Untouched = append(delta.Untouched, id)
		} else {
			delta.Removed = append(delta.Removed, id)
		}
	}
	for id := range targetSet {
		if _, ok := origSet[id]; !ok {
			delta.Added = append(delta.Added, id)
		}
	}

	sort.Strings(delta.Original)
	sort.Strings(delta.Added)
	sort.Strings(delta.Removed)
	sort.Strings(delta.Untouched)
	return delta
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
