package search

import "iter"

// Combinations yields every k-subset of {0, ..., n-1} as an ascending index
// tuple, in lexicographic order. The sequence is lazy and restartable: each
// range over it starts again from {0, 1, ..., k-1}.
//
// The yielded slice is reused between iterations; copy it to keep it.
func Combinations(n, k int) iter.Seq[[]int] {
	return func(yield func([]int) bool) {
		if k < 0 || k > n {
			return
		}
		idx := make([]int, k)
		for i := range idx {
			idx[i] = i
		}
		for {
			if !yield(idx) {
				return
			}
			// find the rightmost index that can still move right; the ones
			// after it restart just past their left neighbour
			i := k - 1
			for i >= 0 && idx[i] == n-k+i {
				i--
			}
			if i < 0 {
				return
			}
			idx[i]++
			for j := i + 1; j < k; j++ {
				idx[j] = idx[j-1] + 1
			}
		}
	}
}
