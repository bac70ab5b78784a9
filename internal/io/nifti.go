package io

import (
	"errors"
	"fmt"
	"os"

	"github.com/KyungWonPark/HCPTimeSeries/internal/calc"
	"github.com/KyungWonPark/nifti"
	"github.com/carbocation/pfx"
)

// ErrTruncatedVolume is returned when a NIfTI file holds fewer time points than its header declares
var ErrTruncatedVolume = errors.New("nifti data shorter than its header declares")

// niftiHeaderSize is sizeof_hdr of every NIfTI-1 file
const niftiHeaderSize = 348

// NiftiVolume is a 4-D NIfTI image loaded into memory
type NiftiVolume struct {
	img  nifti.Nifti1Image
	dims [4]int
}

// LoadVolume reads a .nii or .nii.gz time series. A 3-D image is a series of one time point.
// The nifti library panics on malformed files; those panics are returned as errors, as are
// files whose data ends before the last time point.
func LoadVolume(path string) (vol *NiftiVolume, err error) {
	defer func() {
		if panicErr := recover(); panicErr != nil {
			vol = nil
			err = fmt.Errorf("LoadVolume: %s: %v", path, panicErr)
		}
	}()

	hdr, err := LoadNiftiHeader(path)
	if err != nil {
		return nil, err
	}
	if hdr.Bitpix <= 0 {
		return nil, fmt.Errorf("LoadVolume: %s: bitpix %d: %w", path, hdr.Bitpix, calc.ErrEmptyInput)
	}

	vol = &NiftiVolume{}
	vol.img.LoadImage(path, true)

	dims := vol.img.GetDims()
	for i := 0; i < 4; i++ {
		vol.dims[i] = dims[i]
	}
	if hdr.Dim[0] == 3 {
		vol.dims[3] = 1
	}

	for i := 0; i < 4; i++ {
		if vol.dims[i] < 1 {
			return nil, fmt.Errorf("LoadVolume: %s: dims %v: want a 3-D or 4-D image: %w", path, dims, calc.ErrEmptyInput)
		}
	}

	// the library keeps whatever the file holds; count the complete time points it read
	if got := len(vol.img.GetTimeSeries(0, 0, 0)); got < vol.dims[3] {
		return nil, fmt.Errorf("LoadVolume: %s: %d of %d time points: %w", path, got, vol.dims[3], ErrTruncatedVolume)
	}

	return vol, nil
}

// Dims returns the sizes of the x, y, z and t axes
func (v *NiftiVolume) Dims() [4]int {
	return v.dims
}

// At returns the value at (x, y, z, t)
func (v *NiftiVolume) At(x, y, z, t int) float64 {
	return float64(v.img.GetAt(uint32(x), uint32(y), uint32(z), uint32(t)))
}

// LoadNiftiHeader reads the header of a .nii or .nii.gz file
func LoadNiftiHeader(path string) (hdr nifti.Nifti1Header, err error) {
	if _, err := os.Stat(path); err != nil {
		return hdr, pfx.Err(err)
	}

	defer func() {
		if panicErr := recover(); panicErr != nil {
			err = fmt.Errorf("LoadNiftiHeader: %s: %v", path, panicErr)
		}
	}()

	// the library prints read errors instead of returning them, leaving the header zeroed
	hdr.LoadHeader(path)
	if hdr.SizeofHdr != niftiHeaderSize {
		return hdr, fmt.Errorf("LoadNiftiHeader: %s: sizeof_hdr %d, want %d", path, hdr.SizeofHdr, niftiHeaderSize)
	}

	return hdr, nil
}

var _ calc.Volume = (*NiftiVolume)(nil)
