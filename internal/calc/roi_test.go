package calc

import (
	"errors"
	"testing"

	"github.com/gonum/matrix/mat64"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// rowIndexSeries returns a rows-by-cols matrix whose row i is filled with i
func rowIndexSeries(rows, cols int) *mat64.Dense {
	m := mat64.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for t := 0; t < cols; t++ {
			m.Set(i, t, float64(i))
		}
	}

	return m
}

func TestAveragePartitions(t *testing.T) {
	got, err := AveragePartitions(rowIndexSeries(5, 3), []Label{0, 0, 1, 1, 2})
	if err != nil {
		t.Fatal(err)
	}

	want := Partitions{
		1: {2.5, 2.5, 2.5},
		2: {4, 4, 4},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("AveragePartitions() mismatch (-want +got):\n%s", diff)
	}
}

func TestAveragePartitionsProperties(t *testing.T) {
	series := mat64.NewDense(6, 4, []float64{
		1, 2, 3, 4,
		5, 6, 7, 8,
		-1, 0, 1, 2,
		10, 20, 30, 40,
		0.5, 0.25, 0.125, 0.0625,
		7, 7, 7, 7,
	})

	for _, tt := range []struct {
		name   string
		labels []Label
		want   Partitions
	}{
		{
			name:   "background dropped",
			labels: []Label{0, 3, 3, 0, 9, 0},
			want: Partitions{
				3: {2, 3, 4, 5},
				9: {0.5, 0.25, 0.125, 0.0625},
			},
		},
		{
			name:   "single member equals its row",
			labels: []Label{1, 2, 3, 4, 5, 6},
			want: Partitions{
				1: {1, 2, 3, 4},
				2: {5, 6, 7, 8},
				3: {-1, 0, 1, 2},
				4: {10, 20, 30, 40},
				5: {0.5, 0.25, 0.125, 0.0625},
				6: {7, 7, 7, 7},
			},
		},
		{
			name:   "negative and unordered labels",
			labels: []Label{-2, 40, -2, 40, 40, -2},
			want: Partitions{
				-2: {7.0 / 3, 3, 11.0 / 3, 13.0 / 3},
				40: {15.5 / 3, 26.25 / 3, 37.125 / 3, 48.0625 / 3},
			},
		},
		{
			name:   "only background",
			labels: []Label{0, 0, 0, 0, 0, 0},
			want:   Partitions{},
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Init(2).AveragePartitions(series, tt.labels)
			if err != nil {
				t.Fatal(err)
			}

			if diff := cmp.Diff(tt.want, got, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
				t.Errorf("AveragePartitions() mismatch (-want +got):\n%s", diff)
			}

			_, cols := series.Dims()
			for label, ts := range got {
				if label == Background {
					t.Errorf("background label in output")
				}
				if len(ts) != cols {
					t.Errorf("label %d: %d time points, want %d", label, len(ts), cols)
				}
			}
		})
	}
}

func TestAveragePartitionsErrors(t *testing.T) {
	if _, err := AveragePartitions(rowIndexSeries(3, 2), []Label{1, 2}); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("got %v, want ErrShapeMismatch", err)
	}

	if _, err := AveragePartitions(nil, []Label{1}); !errors.Is(err, ErrEmptyInput) {
		t.Errorf("got %v, want ErrEmptyInput", err)
	}

	if _, err := AveragePartitions(rowIndexSeries(1, 2), nil); !errors.Is(err, ErrEmptyInput) {
		t.Errorf("got %v, want ErrEmptyInput", err)
	}
}

func TestAveragePartitionsDoesNotModifyInput(t *testing.T) {
	series := rowIndexSeries(4, 3)
	before := mat64.DenseCopyOf(series)

	if _, err := AveragePartitions(series, []Label{1, 1, 2, 2}); err != nil {
		t.Fatal(err)
	}

	if !mat64.Equal(before, series) {
		t.Errorf("series modified")
	}
}
