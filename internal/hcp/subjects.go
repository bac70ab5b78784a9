package hcp

import (
	"os"
	"sort"

	"github.com/carbocation/pfx"
	log "github.com/sirupsen/logrus"
)

// Exists reports whether path exists
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// IsDir reports whether path is a directory
func IsDir(path string) bool {
	st, err := os.Stat(path)
	return err == nil && st.IsDir()
}

// Discover lists the subjects of a batch in ascending order. With Config.Subjects set, listed
// ids without a directory are logged and left out; otherwise every directory under DataRoot is
// a subject.
func Discover(c Config) ([]string, error) {
	if len(c.Subjects) > 0 {
		var subjects []string
		seen := make(map[string]bool)

		for _, s := range c.Subjects {
			if seen[s] {
				continue
			}
			seen[s] = true

			if !IsDir(c.SubjectDir(s)) {
				log.WithField("subject", s).Warnf("%s is not a valid directory. Skipping...", c.SubjectDir(s))
				continue
			}
			subjects = append(subjects, s)
		}

		sort.Strings(subjects)
		return subjects, nil
	}

	entries, err := os.ReadDir(c.DataRoot)
	if err != nil {
		return nil, pfx.Err(err)
	}

	var subjects []string
	for _, e := range entries {
		if e.IsDir() {
			subjects = append(subjects, e.Name())
		}
	}

	return subjects, nil
}
