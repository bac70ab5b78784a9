package calc

import (
	"math"
)

func getStat(row []float64) statistic {
	var accVal float64
	var accSqrVal float64

	for _, value := range row {
		accVal += value
		accSqrVal += value * value
	}

	n := float64(len(row))
	avgVal := accVal / n
	avgSqrVal := accSqrVal / n

	// rounding can push a constant row's variance slightly below zero
	variance := math.Max(avgSqrVal-(avgVal*avgVal), 0)

	return statistic{avg: avgVal, std: math.Sqrt(variance)}
}

func (p *PipeLine) getStats(rows [][]float64) []statistic {
	stats := make([]statistic, len(rows))

	p.each(len(rows), func(index int) {
		stats[index] = getStat(rows[index])
	})

	return stats
}

// ZScoring returns a copy of rows with every row scaled to zero mean and unit variance.
// Constant rows become all zeros.
func (p *PipeLine) ZScoring(rows [][]float64) [][]float64 {
	stats := p.getStats(rows)
	out := make([][]float64, len(rows))

	p.each(len(rows), func(index int) {
		out[index] = make([]float64, len(rows[index]))
		if stats[index].std == 0 {
			return
		}

		for t, value := range rows[index] {
			out[index][t] = (value - stats[index].avg) / stats[index].std
		}
	})

	return out
}
