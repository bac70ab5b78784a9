// Package stage prepares the dataset root: per-subject output directories, relocation of
// downloaded archives and their extraction.
package stage

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/KyungWonPark/HCPTimeSeries/internal/hcp"
	"github.com/carbocation/pfx"
	"github.com/krolaw/zipstream"
	log "github.com/sirupsen/logrus"
)

// ErrUnsafePath is returned for archive entries that would land outside the extraction directory
var ErrUnsafePath = errors.New("archive entry escapes the target directory")

// MakeDirs creates the fMRI output directory of every subject
func MakeDirs(cfg hcp.Config, subjects []string) error {
	for _, s := range subjects {
		dir := cfg.FMRIDir(s)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return pfx.Err(err)
		}
		log.WithField("subject", s).Debugf("Created %s", dir)
	}

	log.Infof("Created fMRI directories for %d subjects", len(subjects))
	return nil
}

// Move relocates the downloaded FIX archive of every subject from downloads into the subject
// directory. Subjects whose archive is already in place are left alone; a missing download is
// logged and skipped. It returns the number of archives moved.
func Move(cfg hcp.Config, downloads string, subjects []string) (int, error) {
	moved := 0

	for _, s := range subjects {
		logger := log.WithField("subject", s)

		dst := cfg.FixZip(s)
		if hcp.Exists(dst) {
			logger.Debug("Archive already in place")
			continue
		}

		src := filepath.Join(downloads, hcp.FixZipName(s))
		if !hcp.Exists(src) {
			logger.WithField("path", src).Warn("Missing download. Skipping...")
			continue
		}

		logger.Info("Moving archive")
		if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
			return moved, pfx.Err(err)
		}
		if err := moveFile(src, dst); err != nil {
			return moved, err
		}
		moved++
	}

	return moved, nil
}

// moveFile renames src to dst, copying when they are on different file systems
func moveFile(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}

	var linkErr *os.LinkError
	if !errors.As(err, &linkErr) {
		return pfx.Err(err)
	}

	if err := copyFile(src, dst); err != nil {
		os.Remove(dst)
		return err
	}

	if err := os.Remove(src); err != nil {
		return pfx.Err(err)
	}

	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return pfx.Err(err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return pfx.Err(err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return pfx.Err(err)
	}

	if err := out.Close(); err != nil {
		return pfx.Err(err)
	}

	return nil
}

// Unzip extracts the FIX archive of every subject that has one into its FIX directory.
// Failures are logged per subject. It returns the number of archives extracted.
func Unzip(cfg hcp.Config, subjects []string) int {
	extracted := 0

	for _, s := range subjects {
		logger := log.WithField("subject", s)

		src := cfg.FixZip(s)
		if !hcp.Exists(src) {
			logger.WithField("path", src).Warn("Missing archive. Skipping...")
			continue
		}

		logger.Info("Unzipping archive")
		n, err := ExtractZip(src, cfg.FixDir(s))
		if err != nil {
			logger.WithField("path", src).Errorf("Failed to extract archive: %v", err)
			continue
		}

		logger.WithField("files", n).Info("Extracted archive")
		extracted++
	}

	return extracted
}

// ExtractZip streams the entries of the zip archive src into dst, creating directories as
// needed and overwriting existing files. It returns the number of files written.
func ExtractZip(src, dst string) (int, error) {
	f, err := os.Open(src)
	if err != nil {
		return 0, pfx.Err(err)
	}
	defer f.Close()

	if err := os.MkdirAll(dst, 0755); err != nil {
		return 0, pfx.Err(err)
	}

	zr := zipstream.NewReader(f)
	files := 0

	for {
		hdr, err := zr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return files, fmt.Errorf("%s: %w", src, err)
		}

		target, err := entryPath(dst, hdr.Name)
		if err != nil {
			return files, err
		}

		if hdr.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return files, pfx.Err(err)
			}
			continue
		}

		if err := writeEntry(target, hdr, zr); err != nil {
			return files, err
		}
		files++
	}

	return files, nil
}

// entryPath resolves an archive entry name below dst
func entryPath(dst, name string) (string, error) {
	target := filepath.Join(dst, filepath.FromSlash(name))

	rel, err := filepath.Rel(dst, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(name) {
		return "", fmt.Errorf("%q: %w", name, ErrUnsafePath)
	}

	return target, nil
}

func writeEntry(target string, hdr *zip.FileHeader, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return pfx.Err(err)
	}

	mode := hdr.Mode().Perm()
	if mode == 0 {
		mode = 0644
	}

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return pfx.Err(err)
	}

	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return fmt.Errorf("%s: %w", hdr.Name, err)
	}

	if err := out.Close(); err != nil {
		return pfx.Err(err)
	}

	return nil
}
