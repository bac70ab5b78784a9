package calc

import (
	"errors"
	"fmt"

	"github.com/gonum/floats"
	"github.com/gonum/matrix/mat64"
)

var (
	// ErrEmptyInput is returned when a series or label set has no entries
	ErrEmptyInput = errors.New("empty input")
	// ErrShapeMismatch is returned when the label count differs from the series row count
	ErrShapeMismatch = errors.New("label count does not match series rows")
)

type parcel struct {
	label   Label
	members []int
}

// groupByLabel collects the row indices of every non-background label, in ascending label order
func groupByLabel(labels []Label) []parcel {
	index := make(map[Label]int)
	var parcels []parcel

	for row, l := range labels {
		if l == Background {
			continue
		}

		i, ok := index[l]
		if !ok {
			i = len(parcels)
			index[l] = i
			parcels = append(parcels, parcel{label: l})
		}
		parcels[i].members = append(parcels[i].members, row)
	}

	return parcels
}

// acc sums the member rows of one parcel and divides by the member count
func acc(series *mat64.Dense, members []int, out []float64) {
	for _, row := range members {
		floats.Add(out, series.RawRowView(row))
	}

	floats.Scale(1/float64(len(members)), out)
	return
}

// AveragePartitions computes one mean time series per non-background label.
// Row i of series belongs to labels[i].
func (p *PipeLine) AveragePartitions(series *mat64.Dense, labels []Label) (Partitions, error) {
	if series == nil || len(labels) == 0 {
		return nil, ErrEmptyInput
	}

	rows, cols := series.Dims()
	if rows != len(labels) {
		return nil, fmt.Errorf("%d labels for %d rows: %w", len(labels), rows, ErrShapeMismatch)
	}

	parcels := groupByLabel(labels)
	means := make([][]float64, len(parcels))

	p.each(len(parcels), func(i int) {
		means[i] = make([]float64, cols)
		acc(series, parcels[i].members, means[i])
	})

	out := make(Partitions, len(parcels))
	for i, pc := range parcels {
		out[pc.label] = means[i]
	}

	return out, nil
}

// AveragePartitions runs PipeLine.AveragePartitions with one worker per CPU
func AveragePartitions(series *mat64.Dense, labels []Label) (Partitions, error) {
	return Init(0).AveragePartitions(series, labels)
}
