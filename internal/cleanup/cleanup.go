// Package cleanup removes aged generated artifacts (chart images and log
// dumps) by file modification time.
package cleanup

import (
	"os"
	"path/filepath"
	"time"

	"github.com/moudsen/mailGraph/internal/logging"
)

// Sweep deletes regular files in dir whose modification time is older than
// the retention window. Subdirectories are left alone. Returns the number of
// files removed.
func Sweep(dir string, retention time.Duration, log *logging.Logger) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-retention)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := os.Remove(path); err != nil {
			log.Warnf("! Cannot remove %s: %v", path, err)
			continue
		}
		log.Infof("- Removed %s (age %s)", path, time.Since(info.ModTime()).Round(time.Hour))
		removed++
	}
	return removed, nil
}
