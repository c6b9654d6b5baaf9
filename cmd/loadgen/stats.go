package main

import "sort"

type summary struct {
	mean, median, p95, p99, min, max float64
}

// summarize computes latency statistics over a non-empty sample set.
func summarize(samples []float64) summary {
	sorted := append([]float64(nil), samples...)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	return summary{
		mean:   sum / float64(len(sorted)),
		median: percentile(sorted, 50),
		p95:    percentile(sorted, 95),
		p99:    percentile(sorted, 99),
		min:    sorted[0],
		max:    sorted[len(sorted)-1],
	}
}

// percentile returns the nearest-rank percentile of a sorted sample set.
func percentile(sorted []float64, p int) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := (p*len(sorted) + 99) / 100
	if rank < 1 {
		rank = 1
	}
	if rank > len(sorted) {
		rank = len(sorted)
	}
	return sorted[rank-1]
}
