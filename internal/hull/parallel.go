package hull

import (
	"math"

	"golang.org/x/sync/errgroup"
)

type span struct {
	lo, hi int
}

// spans splits [0, n) into contiguous ranges, one per goroutine.
func (s *State) spans(n int) []span {
	workers := s.par
	if maxWorkers := n / s.minChunk; workers > maxWorkers {
		workers = maxWorkers
	}
	if workers <= 1 {
		return []span{{0, n}}
	}

	size := (n + workers - 1) / workers
	out := make([]span, 0, workers)
	for lo := 0; lo < n; lo += size {
		out = append(out, span{lo, min(lo+size, n)})
	}
	return out
}

// forEach calls fn for every i in [0, n). fn must only write to index i.
func (s *State) forEach(n int, fn func(i int)) {
	spans := s.spans(n)
	if len(spans) == 1 {
		for i := range n {
			fn(i)
		}
		return
	}

	var g errgroup.Group
	g.SetLimit(len(spans))
	for _, sp := range spans {
		g.Go(func() error {
			for i := sp.lo; i < sp.hi; i++ {
				fn(i)
			}
			return nil
		})
	}
	_ = g.Wait()
}

// argmin returns the index and value of the smallest score in [0, n).
// Ties resolve to the lowest index regardless of how the scan is split:
// each span keeps its first minimum and spans are reduced in order.
func (s *State) argmin(n int, score func(i int) float64) (int, float64) {
	spans := s.spans(n)
	if len(spans) == 1 {
		return scanMin(0, n, score)
	}

	type best struct {
		idx int
		val float64
	}
	results := make([]best, len(spans))

	var g errgroup.Group
	g.SetLimit(len(spans))
	for i, sp := range spans {
		g.Go(func() error {
			idx, val := scanMin(sp.lo, sp.hi, score)
			results[i] = best{idx, val}
			return nil
		})
	}
	_ = g.Wait()

	out := results[0]
	for _, r := range results[1:] {
		if less(r.val, out.val) {
			out = r
		}
	}
	return out.idx, out.val
}

func scanMin(lo, hi int, score func(i int) float64) (int, float64) {
	idx, val := lo, score(lo)
	for i := lo + 1; i < hi; i++ {
		if v := score(i); less(v, val) {
			idx, val = i, v
		}
	}
	return idx, val
}

// less orders NaN after every number so a NaN score never wins.
func less(a, b float64) bool {
	if math.IsNaN(b) {
		return !math.IsNaN(a)
	}
	return a < b
}
