package ipd

import (
	"math"
	"sort"
)

func clamp(value, lo, hi float64) float64 {
	return math.Max(lo, math.Min(value, hi))
}

// mutationProbability is 1 - score/total clamped to [0, 1]. A non-positive
// total mutates everything.
func mutationProbability(score, total int) float64 {
	if total <= 0 {
		return 1
	}
	return clamp(1-float64(score)/float64(total), 0, 1)
}

// scoreStats holds the summary statistics of one generation's scores.
type scoreStats struct {
	mean, median, stdev float64
}

// summarizeScores computes mean, median and sample standard deviation.
// Empty input yields zeros; stdev needs at least two scores.
func summarizeScores(scores []int) scoreStats {
	n := len(scores)
	if n == 0 {
		return scoreStats{}
	}
	sorted := append([]int(nil), scores...)
	sort.Ints(sorted)

	total := 0
	for _, v := range sorted {
		total += v
	}
	st := scoreStats{mean: float64(total) / float64(n)}

	if n%2 == 1 {
		st.median = float64(sorted[n/2])
	} else {
		st.median = float64(sorted[n/2-1]+sorted[n/2]) / 2
	}

	if n > 1 {
		var ss float64
		for _, v := range sorted {
			d := float64(v) - st.mean
			ss += d * d
		}
		st.stdev = math.Sqrt(ss / float64(n-1))
	}
	return st
}
