package search

import "github.com/hyperjump/transmem/internal/models"

// Intersect returns the keys present in every list i with active[i] set.
// Lists must be ascending and free of duplicates. The boolean is false when
// no list is active or the intersection is empty.
//
// It is a single merge pass: while every active head holds the same key the
// key is emitted and all heads advance; otherwise only the heads holding the
// smallest key advance, since some other active list lacks that key. The pass
// ends as soon as any active list is exhausted.
func Intersect(lists [][]models.RecordKey, active []bool) ([]models.RecordKey, bool) {
	heads := make([]int, 0, len(lists))
	members := make([]int, 0, len(lists))
	minSize := -1
	for i, list := range lists {
		if i >= len(active) || !active[i] {
			continue
		}
		if len(list) == 0 {
			return nil, false
		}
		members = append(members, i)
		heads = append(heads, 0)
		if minSize < 0 || len(list) < minSize {
			minSize = len(list)
		}
	}
	if len(members) == 0 {
		return nil, false
	}

	out := make([]models.RecordKey, 0, minSize)
	for {
		smallest := lists[members[0]][heads[0]]
		allSame := true
		for j := 1; j < len(members); j++ {
			v := lists[members[j]][heads[j]]
			if v != smallest {
				allSame = false
				if v < smallest {
					smallest = v
				}
			}
		}

		if allSame {
			out = append(out, smallest)
		}
		for j, m := range members {
			if !allSame && lists[m][heads[j]] != smallest {
				continue
			}
			heads[j]++
			if heads[j] == len(lists[m]) {
				return finish(out)
			}
		}
	}
}

func finish(out []models.RecordKey) ([]models.RecordKey, bool) {
	if len(out) == 0 {
		return nil, false
	}
	return out, true
}
