package calc

import (
	"math"
)

// SymCheck reports whether a square matrix given as rows equals its transpose within pre
func (p *PipeLine) SymCheck(rows [][]float64, pre float64) bool {
	n := len(rows)
	for _, row := range rows {
		if len(row) != n {
			return false
		}
	}

	pre = math.Abs(pre)
	isSymm := make([]bool, n)

	p.each(n, func(i int) {
		isSymm[i] = true
		for j := i + 1; j < n; j++ {
			if math.Abs(rows[i][j]-rows[j][i]) > pre {
				isSymm[i] = false
				return
			}
		}
	})

	for _, ok := range isSymm {
		if !ok {
			return false
		}
	}

	return true
}
