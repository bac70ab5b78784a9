package io

import (
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/carbocation/pfx"
	"github.com/gocarina/gocsv"
)

// ManifestEntry describes one table written during a batch
type ManifestEntry struct {
	Subject    string `csv:"subject"`
	Phase      int    `csv:"phase"`
	Direction  string `csv:"direction"`
	Hemisphere string `csv:"hemisphere"`
	Kind       string `csv:"kind"`
	Rows       int    `csv:"rows"`
	Columns    int    `csv:"columns"`
	Path       string `csv:"path"`
}

// Manifest collects entries from concurrent subject workers. The zero value is ready to use.
type Manifest struct {
	mu      sync.Mutex
	entries []ManifestEntry
}

// Add records one written table
func (m *Manifest) Add(e ManifestEntry) {
	if m == nil {
		return
	}

	m.mu.Lock()
	m.entries = append(m.entries, e)
	m.mu.Unlock()
}

// Entries returns the recorded entries sorted by path
func (m *Manifest) Entries() []ManifestEntry {
	if m == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	out := append([]ManifestEntry(nil), m.entries...)
	sort.Slice(out, func(i, j int) bool {
		return out[i].Path < out[j].Path
	})

	return out
}

// WriteFile writes the manifest as a CSV file with a header row
func (m *Manifest) WriteFile(path string) error {
	entries := m.Entries()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return pfx.Err(err)
	}

	f, err := os.Create(path)
	if err != nil {
		return pfx.Err(err)
	}
	defer f.Close()

	if err := gocsv.MarshalFile(&entries, f); err != nil {
		return pfx.Err(err)
	}

	if err := f.Close(); err != nil {
		return pfx.Err(err)
	}

	return nil
}
