package calc

import (
	"fmt"
)

// Coordinate is a voxel index into the spatial axes of a volume
type Coordinate struct {
	X int
	Y int
	Z int
}

func (c Coordinate) String() string {
	return fmt.Sprintf("(%d, %d, %d)", c.X, c.Y, c.Z)
}

// Volume is a 4-D time series indexed by (x, y, z, t)
type Volume interface {
	Dims() [4]int
	At(x, y, z, t int) float64
}

// InBounds reports whether c addresses a voxel of vol
func InBounds(vol Volume, c Coordinate) bool {
	dims := vol.Dims()
	return c.X >= 0 && c.X < dims[0] &&
		c.Y >= 0 && c.Y < dims[1] &&
		c.Z >= 0 && c.Z < dims[2]
}

// ExtractAtCoordinates gathers the time series of every in-bounds coordinate, keeping the
// order of coords. Out-of-bounds coordinates are dropped and reported to skip, if not nil.
func ExtractAtCoordinates(vol Volume, coords []Coordinate, skip func(Coordinate)) [][]float64 {
	timePoints := vol.Dims()[3]
	table := make([][]float64, 0, len(coords))

	for _, c := range coords {
		if !InBounds(vol, c) {
			if skip != nil {
				skip(c)
			}
			continue
		}

		ts := make([]float64, timePoints)
		for t := 0; t < timePoints; t++ {
			ts[t] = vol.At(c.X, c.Y, c.Z, t)
		}
		table = append(table, ts)
	}

	return table
}

// DenseVolume is an in-memory Volume stored with x varying fastest, then y, z and t
type DenseVolume struct {
	dims [4]int
	data []float64
}

// NewDenseVolume returns a volume over data. A nil data allocates a zeroed volume.
func NewDenseVolume(dims [4]int, data []float64) (*DenseVolume, error) {
	n := 1
	for _, d := range dims {
		if d < 1 {
			return nil, fmt.Errorf("volume dims %v: %w", dims, ErrEmptyInput)
		}
		n *= d
	}

	if data == nil {
		data = make([]float64, n)
	}
	if len(data) != n {
		return nil, fmt.Errorf("volume dims %v need %d values, got %d: %w", dims, n, len(data), ErrShapeMismatch)
	}

	return &DenseVolume{dims: dims, data: data}, nil
}

// Dims returns the sizes of the x, y, z and t axes
func (v *DenseVolume) Dims() [4]int {
	return v.dims
}

func (v *DenseVolume) offset(x, y, z, t int) int {
	return x + v.dims[0]*(y+v.dims[1]*(z+v.dims[2]*t))
}

// At returns the value at (x, y, z, t)
func (v *DenseVolume) At(x, y, z, t int) float64 {
	return v.data[v.offset(x, y, z, t)]
}

// Set stores value at (x, y, z, t)
func (v *DenseVolume) Set(x, y, z, t int, value float64) {
	v.data[v.offset(x, y, z, t)] = value
}
