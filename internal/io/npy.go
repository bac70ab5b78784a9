package io

import (
	"fmt"

	"github.com/KyungWonPark/HCPTimeSeries/internal/calc"
	"github.com/carbocation/pfx"
	"github.com/gonum/matrix/mat64"
	"github.com/kshedden/gonpy"
)

// WriteNpy writes rows as a 2-D float64 numpy array
func WriteNpy(path string, rows [][]float64) error {
	if len(rows) == 0 {
		return fmt.Errorf("%s: %w", path, calc.ErrEmptyInput)
	}

	cols := len(rows[0])
	data := make([]float64, 0, len(rows)*cols)
	for _, row := range rows {
		if len(row) != cols {
			return fmt.Errorf("%s: %w", path, ErrRaggedTable)
		}
		data = append(data, row...)
	}

	w, err := gonpy.NewFileWriter(path)
	if err != nil {
		return pfx.Err(err)
	}
	w.Shape = []int{len(rows), cols}
	w.Version = 2

	if err := w.WriteFloat64(data); err != nil {
		return pfx.Err(err)
	}

	return nil
}

// ReadNpy reads a 1-D or 2-D numpy array. A 1-D array becomes a single column.
func ReadNpy(path string) (*mat64.Dense, error) {
	r, err := gonpy.NewFileReader(path)
	if err != nil {
		return nil, pfx.Err(err)
	}

	var rows, cols int
	switch len(r.Shape) {
	case 1:
		rows, cols = r.Shape[0], 1
	case 2:
		rows, cols = r.Shape[0], r.Shape[1]
	default:
		return nil, fmt.Errorf("%s: %d-D array, want 1-D or 2-D", path, len(r.Shape))
	}

	if rows == 0 || cols == 0 {
		return nil, fmt.Errorf("%s: %w", path, calc.ErrEmptyInput)
	}

	data, err := r.GetFloat64()
	if err != nil {
		return nil, pfx.Err(err)
	}

	return mat64.NewDense(rows, cols, data), nil
}
