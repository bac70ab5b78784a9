package pipeline

import (
	"os"
	"path/filepath"

	"github.com/KyungWonPark/HCPTimeSeries/internal/calc"
	"github.com/KyungWonPark/HCPTimeSeries/internal/hcp"
	"github.com/KyungWonPark/HCPTimeSeries/internal/io"
	"github.com/KyungWonPark/HCPTimeSeries/internal/tool"
	log "github.com/sirupsen/logrus"
)

func runFields(r hcp.Run) log.Fields {
	return log.Fields{
		"subject":   r.Subject,
		"phase":     r.Phase,
		"direction": r.Direction,
	}
}

func hemiFields(r hcp.Run, h hcp.Hemisphere) log.Fields {
	f := runFields(r)
	f["hemisphere"] = h.Short
	return f
}

// check logs the outcome of an external command and reports whether it succeeded
func check(logger *log.Entry, res tool.Result) bool {
	if !res.OK() {
		logger.WithFields(log.Fields{
			"command": res.Command,
			"output":  res.Tail(20),
		}).Errorf("Command failed: %v", res.Err)
		return false
	}

	logger.WithFields(log.Fields{
		"command":  res.Command,
		"duration": res.Duration,
	}).Debug("Command succeeded")
	return true
}

// requireFiles logs a warning for the first missing path and reports whether all exist
func requireFiles(logger *log.Entry, what string, paths ...string) bool {
	for _, p := range paths {
		if !hcp.Exists(p) {
			logger.WithField("path", p).Warnf("Missing %s. Skipping...", what)
			return false
		}
	}

	return true
}

// removeAll deletes intermediate files, logging the ones that cannot be removed
func removeAll(logger *log.Entry, paths ...string) {
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			logger.WithField("path", p).Warnf("Could not clean up intermediate file: %v", err)
		}
	}
}

// glob returns the files in dir matching pattern, in lexical order
func glob(dir, pattern string) []string {
	matches, _ := filepath.Glob(filepath.Join(dir, pattern))
	return matches
}

// tableWriter writes tables of one batch with the batch's options
type tableWriter struct {
	cfg      hcp.Config
	pl       *calc.PipeLine
	manifest *io.Manifest
}

func (w tableWriter) options() []io.WriteOption {
	var opts []io.WriteOption
	if w.cfg.Npy {
		opts = append(opts, io.WithNpy())
	}
	if w.cfg.KeysFile {
		opts = append(opts, io.WithKeysFile())
	}

	return opts
}

// rows applies the configured row normalization
func (w tableWriter) rows(rows [][]float64) [][]float64 {
	if w.cfg.ZScore {
		return w.pl.ZScoring(rows)
	}

	return rows
}

func (w tableWriter) record(logger *log.Entry, entry io.ManifestEntry, rows [][]float64) {
	entry.Rows = len(rows)
	entry.Columns = len(rows[0])
	w.manifest.Add(entry)

	logger.WithFields(log.Fields{
		"path": entry.Path,
		"rows": entry.Rows,
	}).Infof("Saved %s time series", entry.Kind)
}

// table writes rows as-is after normalization
func (w tableWriter) table(logger *log.Entry, entry io.ManifestEntry, rows [][]float64) bool {
	rows = w.rows(rows)

	written, err := io.WriteTable(entry.Path, rows, w.options()...)
	if err != nil {
		logger.WithField("path", entry.Path).Errorf("Failed to write table: %v", err)
		return false
	}
	if written {
		w.record(logger, entry, rows)
	}

	return written
}

// partitions writes one row per label in ascending label order
func (w tableWriter) partitions(logger *log.Entry, entry io.ManifestEntry, parts calc.Partitions) bool {
	if w.cfg.ZScore {
		keys := parts.Keys()
		scored := w.pl.ZScoring(parts.Rows())

		normalized := make(calc.Partitions, len(keys))
		for i, k := range keys {
			normalized[k] = scored[i]
		}
		parts = normalized
	}

	written, err := io.WritePartitions(entry.Path, parts, w.options()...)
	if err != nil {
		logger.WithField("path", entry.Path).Errorf("Failed to write table: %v", err)
		return false
	}
	if written {
		w.record(logger, entry, parts.Rows())
	}

	return written
}
