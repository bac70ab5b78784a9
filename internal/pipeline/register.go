package pipeline

import (
	"context"
	"path/filepath"

	"github.com/KyungWonPark/HCPTimeSeries/internal/hcp"
	"github.com/KyungWonPark/HCPTimeSeries/internal/io"
	"github.com/KyungWonPark/HCPTimeSeries/internal/tool"
	log "github.com/sirupsen/logrus"
)

// Registration brings the volume part of every run into the subject's 3 mm T1 space:
//
//	CIFTI dtseries -> volume -> applywarp -> fslsplit -> flirt (3 mm, per volume) -> fslmerge
//
// The merged result is hcp.Config.Downsampled, the input of the voxel time series tool.
type Registration struct {
	Config   hcp.Config
	Runner   tool.Runner
	Manifest *io.Manifest
}

// Subject registers every run of one subject
func (p *Registration) Subject(ctx context.Context, subject string) {
	log.WithField("subject", subject).Info("Processing subject")

	for _, run := range hcp.Runs(subject) {
		if ctx.Err() != nil {
			return
		}
		p.Run(ctx, run)
	}
}

// Run registers one run and reports whether the downsampled volume was produced
func (p *Registration) Run(ctx context.Context, run hcp.Run) bool {
	cfg := p.Config
	logger := log.WithFields(runFields(run))

	dtseries := cfg.DtSeries(run)
	if !requireFiles(logger, "fMRI data", dtseries) {
		return false
	}
	if !requireFiles(logger, "registration input", cfg.Reference(run.Subject), cfg.Warp(run.Subject)) {
		return false
	}

	dir := cfg.RunDir(run)
	volume := filepath.Join(dir, run.Name()+".nii.gz")
	warped := filepath.Join(dir, "Atlas_in_T1w_all.nii.gz")
	output := cfg.Downsampled(run)

	// leftovers of an interrupted run would be merged into this one
	removeAll(logger, glob(dir, "volume_*.nii.gz")...)
	removeAll(logger, glob(dir, "downsampled_volume_*.nii.gz")...)

	if !cfg.KeepIntermediate {
		defer func() {
			removeAll(logger, volume, warped)
			removeAll(logger, glob(dir, "volume_*.nii.gz")...)
			removeAll(logger, glob(dir, "downsampled_volume_*.nii.gz")...)
			logger.Debug("Cleaned up intermediate files")
		}()
	}

	// every step checks both the exit status and the file it was meant to produce
	sep := p.Runner.Run(ctx, cfg.WbCommand, "-cifti-separate", dtseries, "COLUMN", "-volume-all", volume)
	if !check(logger, sep) || !requireFiles(logger, "separated volume", volume) {
		return false
	}

	warp := p.Runner.Run(ctx, cfg.FSL("applywarp"),
		"--ref="+cfg.Reference(run.Subject),
		"--in="+volume,
		"--warp="+cfg.Warp(run.Subject),
		"--out="+warped,
	)
	if !check(logger, warp) || !requireFiles(logger, "warped volume", warped) {
		return false
	}

	if !check(logger, p.Runner.Run(ctx, cfg.FSL("fslsplit"), warped, filepath.Join(dir, "volume_"), "-t")) {
		return false
	}

	// fslsplit numbers volumes with zero padding, so lexical order is time order
	volumes := glob(dir, "volume_*.nii.gz")
	if len(volumes) == 0 {
		logger.WithField("path", dir).Warn("Missing split volumes. Skipping...")
		return false
	}

	downsampled := make([]string, len(volumes))
	failed := 0
	for i, vol := range volumes {
		downsampled[i] = filepath.Join(dir, "downsampled_"+filepath.Base(vol))

		res := p.Runner.Run(ctx, cfg.FSL("flirt"),
			"-ref", vol,
			"-in", vol,
			"-out", downsampled[i],
			"-applyisoxfm", "3",
			"-interp", "nearestneighbour",
		)
		if !check(logger, res) {
			failed++
		}
	}

	// a merge with a missing volume would shift every later time point
	if failed > 0 {
		logger.Errorf("%d of %d volumes failed to downsample. Skipping merge...", failed, len(volumes))
		return false
	}
	if !requireFiles(logger, "downsampled volume", downsampled...) {
		return false
	}

	removeAll(logger, output)
	merge := p.Runner.Run(ctx, cfg.FSL("fslmerge"), append([]string{"-t", output}, downsampled...)...)
	if !check(logger, merge) || !requireFiles(logger, "merged volume", output) {
		return false
	}

	p.Manifest.Add(io.ManifestEntry{
		Subject:   run.Subject,
		Phase:     run.Phase,
		Direction: run.Direction,
		Kind:      "volume",
		Columns:   len(volumes),
		Path:      output,
	})

	logger.WithFields(log.Fields{
		"path":    output,
		"volumes": len(volumes),
	}).Info("Saved downsampled volume")
	return true
}
