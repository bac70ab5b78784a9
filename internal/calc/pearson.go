package calc

import (
	"fmt"
)

func pearson(rows [][]float64, out [][]float64, stats []statistic, from int) {
	cols := len(rows[from])

	for to := from; to < len(rows); to++ {
		var accProd float64
		for t := 0; t < cols; t++ {
			accProd += rows[from][t] * rows[to][t]
		}

		var r float64
		if denom := stats[from].std * stats[to].std; denom != 0 {
			cov := (accProd / float64(cols)) - (stats[from].avg * stats[to].avg)
			r = cov / denom
		}

		out[from][to] = r
		out[to][from] = r
	}

	return
}

// Pearson returns the rows-by-rows matrix of Pearson correlations between rows.
// Pairs involving a constant row are 0.
func (p *PipeLine) Pearson(rows [][]float64) ([][]float64, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyInput
	}

	cols := len(rows[0])
	for i, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("row %d has %d columns, row 0 has %d: %w", i, len(row), cols, ErrShapeMismatch)
		}
	}
	if cols == 0 {
		return nil, ErrEmptyInput
	}

	stats := p.getStats(rows)

	out := make([][]float64, len(rows))
	for i := range out {
		out[i] = make([]float64, len(rows))
	}

	// row from writes out[from][to] and out[to][from] for to >= from only
	p.each(len(rows), func(from int) {
		pearson(rows, out, stats, from)
	})

	return out, nil
}
