// Package hcp describes where the Human Connectome Project resting-state files of a subject
// live, and how a batch over subjects is configured.
package hcp

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/KyungWonPark/HCPTimeSeries/internal/calc"
)

// ErrNoDataRoot is returned when the dataset root is unset or not a directory
var ErrNoDataRoot = errors.New("data root is not a directory")

// Config is passed to every entry point instead of global path constants
type Config struct {
	// DataRoot holds one directory per subject
	DataRoot string
	// OutputRoot receives <subject>/fMRI/phase<p>_<d>/ tables; empty means DataRoot
	OutputRoot string
	// AtlasPath is the CIFTI dlabel parcellation used for cortex ROI series
	AtlasPath string

	// WbCommand is the Connectome Workbench binary
	WbCommand string
	// FSLDir is the FSL installation; empty means FSL binaries are found on PATH
	FSLDir string

	// Workers bounds the number of subjects processed at once; < 1 means min(NumCPU, subjects)
	Workers int
	// Subjects restricts the batch to these ids; empty means every directory under DataRoot
	Subjects []string

	// KeepIntermediate leaves separated, warped and split files on disk
	KeepIntermediate bool
	// Npy also writes every table as .npy
	Npy bool
	// KeysFile writes the sorted labels of ROI tables next to them
	KeysFile bool
	// ZScore normalizes every written row to zero mean and unit variance
	ZScore bool
	// Connectivity also writes the ROI-by-ROI Pearson correlation matrix
	Connectivity bool
	// ManifestPath, when set, receives a CSV listing every table written by the batch
	ManifestPath string
}

// Validate checks the parts of the configuration every tool needs
func (c Config) Validate() error {
	st, err := os.Stat(c.DataRoot)
	if c.DataRoot == "" || err != nil || !st.IsDir() {
		return fmt.Errorf("%q: %w", c.DataRoot, ErrNoDataRoot)
	}

	return nil
}

// NumWorkers returns the pool size for n subjects. Unset Workers follows the compute
// PipeLine default of one worker per CPU.
func (c Config) NumWorkers(n int) int {
	w := calc.Init(c.Workers).GetNP()
	if w > n {
		w = n
	}
	if w < 1 {
		w = 1
	}

	return w
}

// FSL returns the path of an FSL program
func (c Config) FSL(program string) string {
	if c.FSLDir == "" {
		return program
	}

	return filepath.Join(c.FSLDir, "bin", program)
}
