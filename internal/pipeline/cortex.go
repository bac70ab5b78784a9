package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/KyungWonPark/HCPTimeSeries/internal/calc"
	"github.com/KyungWonPark/HCPTimeSeries/internal/hcp"
	"github.com/KyungWonPark/HCPTimeSeries/internal/io"
	"github.com/KyungWonPark/HCPTimeSeries/internal/tool"
	"github.com/carbocation/pfx"
	log "github.com/sirupsen/logrus"
)

// Atlas holds the vertex labels of each hemisphere of a parcellation
type Atlas map[string][]calc.Label

// LoadAtlas separates a CIFTI dlabel parcellation into one label GIFTI per hemisphere and reads
// the vertex labels back
func LoadAtlas(ctx context.Context, cfg hcp.Config, runner tool.Runner) (Atlas, error) {
	if !hcp.Exists(cfg.AtlasPath) {
		return nil, fmt.Errorf("atlas %q does not exist", cfg.AtlasPath)
	}

	dir, err := os.MkdirTemp("", "hcp-atlas-")
	if err != nil {
		return nil, pfx.Err(err)
	}
	defer os.RemoveAll(dir)

	args := []string{"-cifti-separate", cfg.AtlasPath, "COLUMN"}
	for _, h := range hcp.Hemispheres {
		args = append(args, "-label", h.Structure, filepath.Join(dir, h.Long+".label.gii"))
	}

	if res := runner.Run(ctx, cfg.WbCommand, args...); !res.OK() {
		return nil, fmt.Errorf("separating atlas: %w\n%s", res.Err, res.Tail(20))
	}

	atlas := make(Atlas, len(hcp.Hemispheres))
	for _, h := range hcp.Hemispheres {
		g, err := io.ReadGifti(filepath.Join(dir, h.Long+".label.gii"))
		if err != nil {
			return nil, err
		}

		labels, err := g.Labels()
		if err != nil {
			return nil, fmt.Errorf("atlas %s: %w", h.Structure, err)
		}

		atlas[h.Short] = labels
		log.WithFields(log.Fields{
			"hemisphere": h.Short,
			"vertices":   len(labels),
		}).Debug("Loaded atlas labels")
	}

	return atlas, nil
}

// Cortex writes, for every run and hemisphere, the mean time series of each atlas parcel
type Cortex struct {
	Config   hcp.Config
	Runner   tool.Runner
	Atlas    Atlas
	Manifest *io.Manifest

	// PipeLine averages parcels; nil uses one worker per CPU
	PipeLine *calc.PipeLine
}

func (p *Cortex) writer() tableWriter {
	pl := p.PipeLine
	if pl == nil {
		pl = calc.Init(0)
	}

	return tableWriter{cfg: p.Config, pl: pl, manifest: p.Manifest}
}

// Subject processes every run of one subject
func (p *Cortex) Subject(ctx context.Context, subject string) {
	log.WithField("subject", subject).Info("Processing subject")

	for _, run := range hcp.Runs(subject) {
		if ctx.Err() != nil {
			return
		}
		p.Run(ctx, run)
	}
}

func (p *Cortex) metricPath(run hcp.Run, h hcp.Hemisphere) string {
	return filepath.Join(p.Config.RunDir(run), fmt.Sprintf("%s_cortex_%s.func.gii", run.Name(), h.Long))
}

// Run separates the cortical surfaces of one run and writes a table per hemisphere. It returns
// the number of tables written.
func (p *Cortex) Run(ctx context.Context, run hcp.Run) int {
	cfg := p.Config
	logger := log.WithFields(runFields(run))

	dtseries := cfg.DtSeries(run)
	if !requireFiles(logger, "cortex data", dtseries) {
		return 0
	}

	args := []string{"-cifti-separate", dtseries, "COLUMN"}
	var metrics []string
	for _, h := range hcp.Hemispheres {
		args = append(args, "-metric", h.Structure, p.metricPath(run, h))
		metrics = append(metrics, p.metricPath(run, h))
	}

	if !cfg.KeepIntermediate {
		defer func() {
			removeAll(logger, metrics...)
			logger.Debug("Cleaned up intermediate files")
		}()
	}

	if !check(logger, p.Runner.Run(ctx, cfg.WbCommand, args...)) {
		return 0
	}

	written := 0
	for _, h := range hcp.Hemispheres {
		if p.Hemisphere(run, h, p.metricPath(run, h)) {
			written++
		}
	}

	return written
}

// Hemisphere averages the metric file of one hemisphere over the atlas parcels and writes the
// table. It reports whether a table was written.
func (p *Cortex) Hemisphere(run hcp.Run, h hcp.Hemisphere, metric string) bool {
	logger := log.WithFields(hemiFields(run, h))
	w := p.writer()

	if !requireFiles(logger, "cortex metric", metric) {
		return false
	}

	labels, ok := p.Atlas[h.Short]
	if !ok {
		logger.Warn("No atlas labels for hemisphere. Skipping...")
		return false
	}

	g, err := io.ReadGifti(metric)
	if err != nil {
		logger.WithField("path", metric).Errorf("Failed to read metric: %v", err)
		return false
	}

	series, err := g.TimeSeries()
	if err != nil {
		logger.WithField("path", metric).Errorf("Failed to read metric: %v", err)
		return false
	}

	parts, err := w.pl.AveragePartitions(series, labels)
	if err != nil {
		logger.WithField("path", metric).Errorf("Failed to average parcels: %v", err)
		return false
	}

	entry := io.ManifestEntry{
		Subject:    run.Subject,
		Phase:      run.Phase,
		Direction:  run.Direction,
		Hemisphere: h.Short,
		Kind:       "roi",
		Path:       p.Config.ROITable(run, h),
	}
	if !w.partitions(logger, entry, parts) {
		return false
	}

	if p.Config.Connectivity {
		corr, err := w.pl.Pearson(parts.Rows())
		if err != nil {
			logger.Errorf("Failed to correlate parcels: %v", err)
			return true
		}
		if !w.pl.SymCheck(corr, 1e-9) {
			logger.Error("Connectivity matrix is not symmetric. Skipping...")
			return true
		}

		entry.Kind = "connectivity"
		entry.Path = p.Config.ConnectivityTable(run, h)

		// correlations are written unnormalized
		cw := w
		cw.cfg.ZScore = false
		cw.table(logger, entry, corr)
	}

	return true
}
