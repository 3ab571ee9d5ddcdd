// Package detect decides which tracked files need re-indexing by
// comparing the working tree against the stored file records.
package detect

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	strataerrors "strata/internal/errors"
	"strata/internal/logging"
	"strata/internal/store"
)

// ChangeSet partitions the tracked file list against the store
type ChangeSet struct {
	Added     []string
	Modified  []string
	Deleted   []string
	Unchanged []string
}

// Total returns the number of files needing work
func (c *ChangeSet) Total() int {
	return len(c.Added) + len(c.Modified) + len(c.Deleted)
}

// Detector computes change sets. Mtime is only a cheap pre-filter; the
// content hash is the authority on whether a file changed.
type Detector struct {
	root    string
	retries int
	logger  *logging.Logger
}

// NewDetector creates a detector rooted at the repository root
func NewDetector(root string, hashRetries int, logger *logging.Logger) *Detector {
	if hashRetries <= 0 {
		hashRetries = 3
	}
	return &Detector{root: root, retries: hashRetries, logger: logger}
}

// Detect compares the tracked paths (relative to root) against the
// stored records. A file that cannot be read after the retry budget is
// treated as deleted: dropping its symbols is recoverable on the next
// run, stale symbols are not.
func (d *Detector) Detect(tracked []string, stored []store.File) (*ChangeSet, error) {
	known := make(map[string]store.File, len(stored))
	for _, f := range stored {
		known[f.Path] = f
	}

	present := make(map[string]bool, len(tracked))
	cs := &ChangeSet{}

	for _, path := range tracked {
		present[path] = true
		abs := filepath.Join(d.root, path)

		info, err := os.Stat(abs)
		if err != nil {
			if _, ok := known[path]; ok {
				d.logger.Warn("Tracked file unreadable, treating as deleted", map[string]interface{}{
					"path": path, "error": err.Error(),
				})
				cs.Deleted = append(cs.Deleted, path)
			}
			continue
		}

		prev, ok := known[path]
		if !ok {
			cs.Added = append(cs.Added, path)
			continue
		}

		if info.ModTime().Unix() == prev.Mtime {
			cs.Unchanged = append(cs.Unchanged, path)
			continue
		}

		hash, err := d.HashFile(path)
		if err != nil {
			d.logger.Warn("File unreadable after retries, treating as deleted", map[string]interface{}{
				"path": path, "error": err.Error(),
			})
			cs.Deleted = append(cs.Deleted, path)
			continue
		}

		if hash == prev.Hash {
			// Touched but unchanged. Content wins over mtime.
			cs.Unchanged = append(cs.Unchanged, path)
		} else {
			cs.Modified = append(cs.Modified, path)
		}
	}

	for path := range known {
		if !present[path] {
			cs.Deleted = append(cs.Deleted, path)
		}
	}

	sort.Strings(cs.Added)
	sort.Strings(cs.Modified)
	sort.Strings(cs.Deleted)
	sort.Strings(cs.Unchanged)
	return cs, nil
}

// HashFile computes the content hash of a tracked path with the
// configured retry budget.
func (d *Detector) HashFile(path string) (string, error) {
	abs := filepath.Join(d.root, path)
	var lastErr error
	for attempt := 0; attempt < d.retries; attempt++ {
		if attempt > 0 {
			time.Sleep(time.Duration(attempt) * 20 * time.Millisecond)
		}
		hash, err := hashFileOnce(abs)
		if err == nil {
			return hash, nil
		}
		lastErr = err
	}
	return "", strataerrors.Wrap(strataerrors.ChangeDetection,
		"failed to hash "+path, lastErr)
}

func hashFileOnce(abs string) (string, error) {
	f, err := os.Open(abs)
	if err != nil {
		return "", err
	}
	defer f.Close() //nolint:errcheck

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
