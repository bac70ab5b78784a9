package pipeline

import (
	"context"

	"github.com/KyungWonPark/HCPTimeSeries/internal/calc"
	"github.com/KyungWonPark/HCPTimeSeries/internal/hcp"
	"github.com/KyungWonPark/HCPTimeSeries/internal/io"
	log "github.com/sirupsen/logrus"
)

// VolumeLoader opens a 4-D time series
type VolumeLoader func(path string) (calc.Volume, error)

// LoadNifti is the VolumeLoader for .nii and .nii.gz files
func LoadNifti(path string) (calc.Volume, error) {
	vol, err := io.LoadVolume(path)
	if err != nil {
		return nil, err
	}

	return vol, nil
}

// Voxel writes, for every run and hemisphere, the time series of each probtrackx seed voxel of
// the registered 3 mm volume
type Voxel struct {
	Config   hcp.Config
	Load     VolumeLoader
	Manifest *io.Manifest

	// PipeLine z-scores rows when configured; nil uses one worker per CPU
	PipeLine *calc.PipeLine
}

func (p *Voxel) writer() tableWriter {
	pl := p.PipeLine
	if pl == nil {
		pl = calc.Init(0)
	}

	return tableWriter{cfg: p.Config, pl: pl, manifest: p.Manifest}
}

// Subject processes every run of one subject. Coordinates are read once per hemisphere.
func (p *Voxel) Subject(ctx context.Context, subject string) {
	logger := log.WithField("subject", subject)
	logger.Info("Processing subject")

	coords := make(map[string][]calc.Coordinate)
	for _, h := range hcp.Hemispheres {
		hl := logger.WithField("hemisphere", h.Short)

		path := p.Config.Coordinates(subject, h)
		if !requireFiles(hl, "coordinates file", path) {
			continue
		}

		c, err := io.ReadCoordinates(path)
		if err != nil {
			hl.WithField("path", path).Errorf("Failed to read coordinates: %v", err)
			continue
		}
		coords[h.Short] = c
	}

	if len(coords) == 0 {
		return
	}

	for _, run := range hcp.Runs(subject) {
		if ctx.Err() != nil {
			return
		}
		p.Run(run, coords)
	}
}

// Run extracts the voxel time series of one run for each hemisphere with coordinates. It
// returns the number of tables written.
func (p *Voxel) Run(run hcp.Run, coords map[string][]calc.Coordinate) int {
	logger := log.WithFields(runFields(run))

	path := p.Config.Downsampled(run)
	if !requireFiles(logger, "fMRI file", path) {
		return 0
	}

	load := p.Load
	if load == nil {
		load = LoadNifti
	}

	vol, err := load(path)
	if err != nil {
		logger.WithField("path", path).Errorf("Failed to load volume: %v", err)
		return 0
	}

	written := 0
	for _, h := range hcp.Hemispheres {
		c, ok := coords[h.Short]
		if !ok {
			continue
		}

		if p.Hemisphere(run, h, vol, c) {
			written++
		}
	}

	return written
}

// Hemisphere extracts and writes the table of one hemisphere. It reports whether a table was
// written.
func (p *Voxel) Hemisphere(run hcp.Run, h hcp.Hemisphere, vol calc.Volume, coords []calc.Coordinate) bool {
	logger := log.WithFields(hemiFields(run, h))
	logger.Debugf("Extracting %d voxels", len(coords))

	skipped := 0
	rows := calc.ExtractAtCoordinates(vol, coords, func(c calc.Coordinate) {
		skipped++
		logger.WithField("coordinate", c.String()).Warnf("Coordinate %s is out of bounds for subject %s. Skipping...", c, run.Subject)
	})

	if skipped > 0 {
		logger.Warnf("%d of %d coordinates were out of bounds", skipped, len(coords))
	}

	entry := io.ManifestEntry{
		Subject:    run.Subject,
		Phase:      run.Phase,
		Direction:  run.Direction,
		Hemisphere: h.Short,
		Kind:       "voxel",
		Path:       p.Config.VoxelTable(run, h),
	}

	return p.writer().table(logger, entry, rows)
}
