package search

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hyperjump/transmem/internal/models"
)

func keys(vs ...uint64) []models.RecordKey {
	out := make([]models.RecordKey, len(vs))
	for i, v := range vs {
		out[i] = models.RecordKey(v)
	}
	return out
}

func allActive(n int) []bool {
	active := make([]bool, n)
	for i := range active {
		active[i] = true
	}
	return active
}

func TestIntersect(t *testing.T) {
	tests := []struct {
		name   string
		lists  [][]models.RecordKey
		active []bool
		want   []models.RecordKey
	}{
		{
			name:   "single list",
			lists:  [][]models.RecordKey{keys(1, 5, 9)},
			active: allActive(1),
			want:   keys(1, 5, 9),
		},
		{
			name:   "common keys",
			lists:  [][]models.RecordKey{keys(1, 3, 5, 7), keys(3, 4, 5), keys(0, 3, 5, 8)},
			active: allActive(3),
			want:   keys(3, 5),
		},
		{
			name:   "disjoint",
			lists:  [][]models.RecordKey{keys(1, 2), keys(3, 4)},
			active: allActive(2),
		},
		{
			name:   "inactive list ignored",
			lists:  [][]models.RecordKey{keys(1, 2, 3), keys(7), keys(2, 3)},
			active: []bool{true, false, true},
			want:   keys(2, 3),
		},
		{
			name:   "no active list",
			lists:  [][]models.RecordKey{keys(1)},
			active: []bool{false},
		},
		{
			name:   "empty active list",
			lists:  [][]models.RecordKey{keys(1), {}},
			active: allActive(2),
		},
		{
			name:   "last keys match",
			lists:  [][]models.RecordKey{keys(1, 2, 10), keys(10)},
			active: allActive(2),
			want:   keys(10),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Intersect(tt.lists, tt.active)
			assert.Equal(t, len(tt.want) > 0, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func naiveIntersect(lists [][]models.RecordKey, active []bool) []models.RecordKey {
	var out []models.RecordKey
	var first []models.RecordKey
	found := false
	for i, l := range lists {
		if active[i] {
			first, found = l, true
			break
		}
	}
	if !found {
		return nil
	}
	for _, k := range first {
		inAll := true
		for i, l := range lists {
			if active[i] && !slices.Contains(l, k) {
				inAll = false
				break
			}
		}
		if inAll {
			out = append(out, k)
		}
	}
	return out
}

func randomSortedList(r *rand.Rand, universe int) []models.RecordKey {
	var out []models.RecordKey
	for k := 1; k <= universe; k++ {
		if r.IntN(3) == 0 {
			out = append(out, models.RecordKey(k))
		}
	}
	return out
}

func TestIntersect_MatchesNaive(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for range 500 {
		n := 1 + r.IntN(5)
		lists := make([][]models.RecordKey, n)
		active := make([]bool, n)
		for i := range lists {
			lists[i] = randomSortedList(r, 1+r.IntN(30))
			active[i] = r.IntN(4) != 0
		}

		want := naiveIntersect(lists, active)
		got, ok := Intersect(lists, active)
		assert.Equal(t, len(want) > 0, ok, "lists=%v active=%v", lists, active)
		if len(want) > 0 {
			assert.Equal(t, want, got, "lists=%v active=%v", lists, active)
		}
	}
}
