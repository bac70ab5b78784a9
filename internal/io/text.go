package io

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/KyungWonPark/HCPTimeSeries/internal/calc"
	"github.com/carbocation/pfx"
	"github.com/gonum/matrix/mat64"
)

// ErrShortRow is returned when a coordinate row has fewer than 3 columns
var ErrShortRow = errors.New("coordinate row has fewer than 3 columns")

// scanFields calls fn with the whitespace separated fields of every non-blank line that is
// not a '#' comment. line is 1-based.
func scanFields(path string, fn func(line int, fields []string) error) error {
	f, err := os.Open(path)
	if err != nil {
		return pfx.Err(err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 64*1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		if err := fn(line, strings.Fields(text)); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return pfx.Err(err)
	}

	return nil
}

// LoadText reads a whitespace delimited numeric table. Every row must have the same number of
// columns.
func LoadText(path string) (*mat64.Dense, error) {
	var data []float64
	rows, cols := 0, -1

	err := scanFields(path, func(line int, fields []string) error {
		if cols == -1 {
			cols = len(fields)
		}
		if len(fields) != cols {
			return fmt.Errorf("%s line %d: %d columns, want %d: %w", path, line, len(fields), cols, ErrRaggedTable)
		}

		for _, field := range fields {
			value, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return pfx.Err(fmt.Errorf("%s line %d: %v", path, line, err))
			}
			data = append(data, value)
		}
		rows++

		return nil
	})
	if err != nil {
		return nil, err
	}

	if rows == 0 {
		return nil, fmt.Errorf("%s: %w", path, calc.ErrEmptyInput)
	}

	return mat64.NewDense(rows, cols, data), nil
}

// ReadCoordinates reads voxel coordinates, one per line. The first three columns are x, y and z;
// further columns are ignored. Values are truncated toward zero.
func ReadCoordinates(path string) ([]calc.Coordinate, error) {
	var coords []calc.Coordinate

	err := scanFields(path, func(line int, fields []string) error {
		if len(fields) < 3 {
			return fmt.Errorf("%s line %d: %w", path, line, ErrShortRow)
		}

		var xyz [3]int
		for i := 0; i < 3; i++ {
			value, err := strconv.ParseFloat(fields[i], 64)
			if err != nil {
				return pfx.Err(fmt.Errorf("%s line %d: %v", path, line, err))
			}
			xyz[i] = int(value)
		}

		coords = append(coords, calc.Coordinate{X: xyz[0], Y: xyz[1], Z: xyz[2]})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return coords, nil
}

// ReadLines returns the trimmed, non-blank lines of a file, such as a list of subject ids
func ReadLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, pfx.Err(err)
	}
	defer f.Close()

	var lines []string

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, pfx.Err(err)
	}

	return lines, nil
}
