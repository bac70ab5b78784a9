package hcp

import (
	"fmt"
	"path/filepath"
)

// Phases and Directions enumerate the resting-state acquisitions of a subject
var (
	Phases     = []int{1, 2}
	Directions = []string{"LR", "RL"}
)

// Hemisphere is one cortical surface
type Hemisphere struct {
	// Short is the suffix used by probtrackx directories and voxel tables
	Short string
	// Long is used in intermediate file names
	Long string
	// Structure is the CIFTI structure name
	Structure string
}

var (
	Left  = Hemisphere{Short: "L", Long: "left", Structure: "CORTEX_LEFT"}
	Right = Hemisphere{Short: "R", Long: "right", Structure: "CORTEX_RIGHT"}

	Hemispheres = []Hemisphere{Left, Right}
)

// Run identifies one resting-state acquisition of a subject
type Run struct {
	Subject   string
	Phase     int
	Direction string
}

// Name is the HCP run name, e.g. rfMRI_REST1_LR
func (r Run) Name() string {
	return fmt.Sprintf("rfMRI_REST%d_%s", r.Phase, r.Direction)
}

// Runs lists the acquisitions of a subject, directions outermost
func Runs(subject string) []Run {
	runs := make([]Run, 0, len(Phases)*len(Directions))
	for _, d := range Directions {
		for _, p := range Phases {
			runs = append(runs, Run{Subject: subject, Phase: p, Direction: d})
		}
	}

	return runs
}

// SubjectDir is DataRoot/<subject>
func (c Config) SubjectDir(subject string) string {
	return filepath.Join(c.DataRoot, subject)
}

// FixDir is where the resting-state FIX archive of a subject is extracted
func (c Config) FixDir(subject string) string {
	return filepath.Join(c.SubjectDir(subject), subject+"_3T_rfMRI_REST_fix")
}

// FixZip is the resting-state FIX archive of a subject inside its subject directory
func (c Config) FixZip(subject string) string {
	return filepath.Join(c.SubjectDir(subject), FixZipName(subject))
}

// FixZipName is the file name of the resting-state FIX archive as downloaded
func FixZipName(subject string) string {
	return subject + "_3T_rfMRI_REST_fix.zip"
}

// RunDir holds the preprocessed files of one acquisition
func (c Config) RunDir(r Run) string {
	return filepath.Join(c.FixDir(r.Subject), r.Subject, "MNINonLinear", "Results", r.Name())
}

// DtSeries is the FIX-cleaned dense time series of a run
func (c Config) DtSeries(r Run) string {
	return filepath.Join(c.RunDir(r), r.Name()+"_Atlas_hp2000_clean.dtseries.nii")
}

// Downsampled is the registered 3 mm volume time series produced by the registration tool
func (c Config) Downsampled(r Run) string {
	return filepath.Join(c.RunDir(r), "fMRI_downsampled_3mm.nii.gz")
}

// Warp is the standard-to-subject warp field
func (c Config) Warp(subject string) string {
	return filepath.Join(c.SubjectDir(subject), subject+"_3T_Structural_preproc", subject, "MNINonLinear", "xfms", "standard2acpc_dc.nii.gz")
}

// Reference is the 3 mm T1 image that defines the registered space
func (c Config) Reference(subject string) string {
	return filepath.Join(c.SubjectDir(subject), "T1", "T1_3mm.nii.gz")
}

// Coordinates is the probtrackx voxel list of one hemisphere
func (c Config) Coordinates(subject string, h Hemisphere) string {
	return filepath.Join(c.SubjectDir(subject), fmt.Sprintf("probtrackx_%s_omatrix2", h.Short), "coords_for_fdt_matrix2")
}

// FMRIDir is the per-subject directory that receives tables
func (c Config) FMRIDir(subject string) string {
	root := c.OutputRoot
	if root == "" {
		root = c.DataRoot
	}

	return filepath.Join(root, subject, "fMRI")
}

// OutputDir receives the tables of one run
func (c Config) OutputDir(r Run) string {
	return filepath.Join(c.FMRIDir(r.Subject), fmt.Sprintf("phase%d_%s", r.Phase, r.Direction))
}

// VoxelTable is the coordinate-indexed time series table of one run and hemisphere
func (c Config) VoxelTable(r Run, h Hemisphere) string {
	return filepath.Join(c.OutputDir(r), fmt.Sprintf("voxel_time_series_%s.csv", h.Short))
}

// ROITable is the per-label mean time series table of one run and hemisphere
func (c Config) ROITable(r Run, h Hemisphere) string {
	return filepath.Join(c.OutputDir(r), fmt.Sprintf("roi_time_series_%s.csv", h.Short))
}

// ConnectivityTable is the ROI-by-ROI correlation matrix of one run and hemisphere
func (c Config) ConnectivityTable(r Run, h Hemisphere) string {
	return filepath.Join(c.OutputDir(r), fmt.Sprintf("roi_connectivity_%s.csv", h.Short))
}
