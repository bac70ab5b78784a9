package pipeline

import (
	"context"
	"time"

	"github.com/KyungWonPark/HCPTimeSeries/internal/hcp"
	"github.com/KyungWonPark/HCPTimeSeries/internal/io"
	log "github.com/sirupsen/logrus"
)

// Batch runs fn over the subjects of cfg and, when cfg.ManifestPath is set, writes the tables
// recorded in manifest. Per-subject failures only reach the log; the returned error is for
// failures of the batch itself.
func Batch(ctx context.Context, cfg hcp.Config, manifest *io.Manifest, fn SubjectFunc) error {
	subjects, err := hcp.Discover(cfg)
	if err != nil {
		return err
	}

	if len(subjects) == 0 {
		log.WithField("data", cfg.DataRoot).Warn("No subjects to process")
		return nil
	}

	start := time.Now()
	runErr := Run(ctx, subjects, cfg.NumWorkers(len(subjects)), fn)

	if cfg.ManifestPath != "" {
		if err := manifest.WriteFile(cfg.ManifestPath); err != nil {
			log.WithField("path", cfg.ManifestPath).Errorf("Failed to write manifest: %v", err)
		} else {
			log.WithField("path", cfg.ManifestPath).Info("Saved manifest")
		}
	}

	log.WithFields(log.Fields{
		"subjects": len(subjects),
		"tables":   len(manifest.Entries()),
		"elapsed":  time.Since(start).Round(time.Millisecond).String(),
	}).Info("Batch finished")

	return runErr
}
