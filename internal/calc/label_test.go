package calc

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNormalizeLabels(t *testing.T) {
	got, err := NormalizeLabels([]float64{0, 3, 3.0, -1, 180})
	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff([]Label{0, 3, 3, -1, 180}, got); diff != "" {
		t.Errorf("NormalizeLabels() mismatch (-want +got):\n%s", diff)
	}

	for _, bad := range []float64{1.5, math.NaN(), math.Inf(1)} {
		if _, err := NormalizeLabels([]float64{1, bad}); !errors.Is(err, ErrNonIntegralLabel) {
			t.Errorf("NormalizeLabels(%v): got %v, want ErrNonIntegralLabel", bad, err)
		}
	}
}

func TestPartitionsKeys(t *testing.T) {
	p := Partitions{
		10: {1},
		-3: {2},
		2:  {3},
	}

	if diff := cmp.Diff([]Label{-3, 2, 10}, p.Keys()); diff != "" {
		t.Errorf("Keys() mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([][]float64{{2}, {3}, {1}}, p.Rows()); diff != "" {
		t.Errorf("Rows() mismatch (-want +got):\n%s", diff)
	}
}
