package io

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/KyungWonPark/HCPTimeSeries/internal/calc"
	"github.com/carbocation/pfx"
	"github.com/gonum/matrix/mat64"
	log "github.com/sirupsen/logrus"
)

// ErrRaggedTable is returned when the rows of a table differ in length
var ErrRaggedTable = errors.New("rows differ in length")

type writeOptions struct {
	keys bool
	npy  bool
}

// WriteOption tunes WriteTable and WritePartitions
type WriteOption func(*writeOptions)

// WithKeysFile makes WritePartitions record the sorted labels in <dest>.labels.txt
func WithKeysFile() WriteOption {
	return func(o *writeOptions) { o.keys = true }
}

// WithNpy also writes the table next to dest as a .npy file
func WithNpy() WriteOption {
	return func(o *writeOptions) { o.npy = true }
}

// NpyPath returns the .npy side output path for a table written to dest
func NpyPath(dest string) string {
	return strings.TrimSuffix(dest, filepath.Ext(dest)) + ".npy"
}

// KeysPath returns the label side file path for a table written to dest
func KeysPath(dest string) string {
	return dest + ".labels.txt"
}

// WritePartitions writes one row per label, in ascending label order. The label itself is not
// part of the row. It reports whether a file was written.
func WritePartitions(dest string, parts calc.Partitions, opts ...WriteOption) (bool, error) {
	o := collect(opts)

	written, err := WriteTable(dest, parts.Rows(), opts...)
	if err != nil || !written || !o.keys {
		return written, err
	}

	keys := parts.Keys()
	lines := make([]string, len(keys))
	for i, k := range keys {
		lines[i] = strconv.FormatInt(int64(k), 10)
	}

	if err := os.WriteFile(KeysPath(dest), []byte(strings.Join(lines, "\n")+"\n"), 0644); err != nil {
		return true, pfx.Err(err)
	}

	return true, nil
}

// WriteTable writes rows as comma separated values, one row per line and no header.
// An empty table is not written: a warning is logged and (false, nil) returned, leaving any
// existing file at dest untouched. The parent directory of dest is created if needed and an
// existing file is overwritten.
func WriteTable(dest string, rows [][]float64, opts ...WriteOption) (bool, error) {
	o := collect(opts)

	if len(rows) == 0 {
		log.WithField("path", dest).Warn("No rows to write, skipping")
		return false, nil
	}

	cols := len(rows[0])
	for i, row := range rows {
		if len(row) != cols {
			return false, fmt.Errorf("row %d has %d columns, row 0 has %d: %w", i, len(row), cols, ErrRaggedTable)
		}
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return false, pfx.Err(err)
	}

	f, err := os.Create(dest)
	if err != nil {
		return false, pfx.Err(err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)

	stride := runtime.NumCPU()
	parsed := make([]string, stride)

	for row := 0; row < len(rows); row += stride {
		var wg sync.WaitGroup
		jobMark := stride

		if row+stride >= len(rows) {
			jobMark = len(rows) - row
		}

		wg.Add(jobMark)
		for offset := 0; offset < jobMark; offset++ {
			go formatLine(rows[row+offset], parsed, offset, &wg)
		}
		wg.Wait()

		for i := 0; i < jobMark; i++ {
			if _, err := fmt.Fprintf(w, "%s\n", parsed[i]); err != nil {
				return false, pfx.Err(err)
			}
		}
	}

	if err := w.Flush(); err != nil {
		return false, pfx.Err(err)
	}

	if err := f.Close(); err != nil {
		return false, pfx.Err(err)
	}

	if o.npy {
		if err := WriteNpy(NpyPath(dest), rows); err != nil {
			return true, err
		}
	}

	return true, nil
}

func formatLine(row []float64, parsed []string, offset int, wg *sync.WaitGroup) {
	defer wg.Done()

	fields := make([]string, len(row))
	for i, v := range row {
		fields[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}

	parsed[offset] = strings.Join(fields, ",")
	return
}

// ReadTable reads a comma separated numeric table written by WriteTable
func ReadTable(path string) (*mat64.Dense, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, pfx.Err(err)
	}
	defer f.Close()

	csvReader := csv.NewReader(f)
	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, pfx.Err(err)
	}

	if len(records) == 0 || len(records[0]) == 0 {
		return nil, fmt.Errorf("%s: %w", path, calc.ErrEmptyInput)
	}

	rows, cols := len(records), len(records[0])
	data := make([]float64, 0, rows*cols)

	for i, record := range records {
		for _, field := range record {
			value, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, pfx.Err(fmt.Errorf("%s line %d: %v", path, i+1, err))
			}
			data = append(data, value)
		}
	}

	return mat64.NewDense(rows, cols, data), nil
}

func collect(opts []WriteOption) writeOptions {
	var o writeOptions
	for _, opt := range opts {
		opt(&o)
	}

	return o
}
