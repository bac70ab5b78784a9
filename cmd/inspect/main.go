// Command inspect prints the shape and value range of the files the pipelines read and write:
// NIfTI volumes, GIFTI metric and label files, .npy arrays, CSV tables and whitespace delimited
// text tables.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	hcpio "github.com/KyungWonPark/HCPTimeSeries/internal/io"
	"github.com/gonum/floats"
	"github.com/gonum/matrix/mat64"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

// uniqueShown bounds the distinct values printed for a GIFTI array
const uniqueShown = 10

func main() {
	app := cli.NewApp()
	app.Name = "inspect"
	app.Usage = "Describe .nii, .nii.gz, .gii, .npy, .csv and .txt files"
	app.ArgsUsage = "FILE..."
	app.Action = func(c *cli.Context) error {
		if c.NArg() == 0 {
			return cli.ShowAppHelp(c)
		}

		failed := 0
		for _, path := range c.Args() {
			if err := describe(os.Stdout, path); err != nil {
				log.WithField("path", path).Error(err)
				failed++
			}
		}

		if failed > 0 {
			return cli.NewExitError(fmt.Sprintf("%d of %d files could not be read", failed, c.NArg()), 1)
		}
		return nil
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalln(err)
	}
}

func describe(w io.Writer, path string) error {
	fmt.Fprintf(w, "==== %s ====\n", filepath.Base(path))
	fmt.Fprintf(w, "Path: %s\n", path)

	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".nii"), strings.HasSuffix(lower, ".nii.gz"):
		return describeNifti(w, path)
	case strings.HasSuffix(lower, ".gii"):
		return describeGifti(w, path)
	case strings.HasSuffix(lower, ".npy"):
		m, err := hcpio.ReadNpy(path)
		if err != nil {
			return err
		}
		describeMatrix(w, "NumPy array", m)
	case strings.HasSuffix(lower, ".csv"):
		m, err := hcpio.ReadTable(path)
		if err != nil {
			return err
		}
		describeMatrix(w, "CSV table", m)
	case strings.HasSuffix(lower, ".txt"):
		m, err := hcpio.LoadText(path)
		if err != nil {
			return err
		}
		describeMatrix(w, "Text table", m)
	default:
		return fmt.Errorf("unsupported file type %q", filepath.Ext(path))
	}

	return nil
}

func describeNifti(w io.Writer, path string) error {
	hdr, err := hcpio.LoadNiftiHeader(path)
	if err != nil {
		return err
	}

	vol, err := hcpio.LoadVolume(path)
	if err != nil {
		return err
	}

	dims := vol.Dims()
	fmt.Fprintln(w, "Type: NIfTI")
	fmt.Fprintf(w, "Dimensions: %d x %d x %d x %d\n", dims[0], dims[1], dims[2], dims[3])
	fmt.Fprintf(w, "Voxel size: %g x %g x %g mm\n", hdr.Pixdim[1], hdr.Pixdim[2], hdr.Pixdim[3])
	if dims[3] > 1 {
		fmt.Fprintf(w, "Repetition time: %g s\n", hdr.Pixdim[4])
	}

	lo, hi := volumeRange(vol)
	fmt.Fprintf(w, "Data range: min = %.6f, max = %.6f\n", lo, hi)
	return nil
}

// volumeRange scans one frame at a time
func volumeRange(vol *hcpio.NiftiVolume) (float64, float64) {
	dims := vol.Dims()
	frame := make([]float64, dims[0]*dims[1]*dims[2])

	lo, hi := vol.At(0, 0, 0, 0), vol.At(0, 0, 0, 0)
	for t := 0; t < dims[3]; t++ {
		i := 0
		for z := 0; z < dims[2]; z++ {
			for y := 0; y < dims[1]; y++ {
				for x := 0; x < dims[0]; x++ {
					frame[i] = vol.At(x, y, z, t)
					i++
				}
			}
		}

		if m := floats.Min(frame); m < lo {
			lo = m
		}
		if m := floats.Max(frame); m > hi {
			hi = m
		}
	}

	return lo, hi
}

func describeGifti(w io.Writer, path string) error {
	g, err := hcpio.ReadGifti(path)
	if err != nil {
		return err
	}

	fmt.Fprintln(w, "Type: GIFTI")
	fmt.Fprintf(w, "Data arrays: %d\n", len(g.Arrays))

	keys := make([]string, 0, len(g.Meta))
	for k := range g.Meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "Meta %s: %s\n", k, g.Meta[k])
	}

	if len(g.Arrays) == 0 {
		return nil
	}

	first := g.Arrays[0]
	fmt.Fprintf(w, "Array 0: intent %s, type %s, dims %v\n", first.Intent, first.DataType, first.Dims)

	if len(first.Data) > 0 {
		fmt.Fprintf(w, "Array 0 range: min = %.6f, max = %.6f\n", floats.Min(first.Data), floats.Max(first.Data))

		unique := uniqueValues(first.Data)
		shown := unique
		if len(shown) > uniqueShown {
			shown = shown[:uniqueShown]
		}
		fmt.Fprintf(w, "Array 0 unique values: %d, first %v\n", len(unique), shown)
	}

	if ts, err := g.TimeSeries(); err == nil {
		r, c := ts.Dims()
		fmt.Fprintf(w, "Time series: %d vertices x %d time points\n", r, c)
	}

	return nil
}

func uniqueValues(values []float64) []float64 {
	seen := make(map[float64]bool)
	var out []float64
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}

	sort.Float64s(out)
	return out
}

func describeMatrix(w io.Writer, kind string, m *mat64.Dense) {
	r, c := m.Dims()
	fmt.Fprintf(w, "Type: %s\n", kind)
	fmt.Fprintf(w, "Shape: %d x %d\n", r, c)
	fmt.Fprintf(w, "Data range: min = %.6f, max = %.6f\n", mat64.Min(m), mat64.Max(m))
}
