package calc

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// Label identifies a parcel. Label 0 is background.
type Label int64

// Background is the unassigned label; it never gets a time series
const Background Label = 0

// ErrNonIntegralLabel is returned when a label value has a fractional part or is not finite
var ErrNonIntegralLabel = errors.New("label is not an integer")

// NormalizeLabels converts raw label values (label files store them as floats or ints) to
// Label so that 3 and 3.0 name the same parcel.
func NormalizeLabels(raw []float64) ([]Label, error) {
	labels := make([]Label, len(raw))
	for i, v := range raw {
		if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
			return nil, fmt.Errorf("vertex %d: %v: %w", i, v, ErrNonIntegralLabel)
		}
		labels[i] = Label(v)
	}

	return labels, nil
}

// Partitions maps a label to the mean time series of its vertices
type Partitions map[Label][]float64

// Keys returns the labels in ascending order
func (p Partitions) Keys() []Label {
	keys := make([]Label, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}

	sort.Slice(keys, func(i, j int) bool {
		return keys[i] < keys[j]
	})

	return keys
}

// Rows returns the series in ascending label order
func (p Partitions) Rows() [][]float64 {
	keys := p.Keys()
	rows := make([][]float64, len(keys))
	for i, k := range keys {
		rows[i] = p[k]
	}

	return rows
}
