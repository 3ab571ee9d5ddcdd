// Package indexer drives the pipeline: discover files, detect
// changes, extract symbols in parallel, resolve references, and commit
// the result as one atomic batch.
package indexer

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Discovery produces the tracked-file list, relative to the repo
// root, honoring ignore rules. The detector decides what changed;
// discovery only decides what exists.
type Discovery interface {
	Tracked() ([]string, error)
}

// FSDiscovery walks the working tree
type FSDiscovery struct {
	root     string
	excludes []string
}

// NewFSDiscovery creates a filesystem walker rooted at root, skipping
// the given directory names anywhere in the tree.
func NewFSDiscovery(root string, excludes []string) *FSDiscovery {
	return &FSDiscovery{root: root, excludes: excludes}
}

// binaryExtensions lists content we never try to index
var binaryExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".ico": true,
	".svg": true, ".woff": true, ".woff2": true, ".ttf": true, ".eot": true,
	".zip": true, ".gz": true, ".tar": true, ".zst": true, ".bz2": true,
	".pdf": true, ".exe": true, ".dll": true, ".so": true, ".dylib": true,
	".a": true, ".o": true, ".wasm": true, ".db": true, ".sqlite": true,
	".lock": true, ".min.js": true,
}

// Tracked walks the tree and returns sorted relative paths. Hidden
// directories and configured excludes are skipped whole.
func (d *FSDiscovery) Tracked() ([]string, error) {
	var paths []string
	err := filepath.WalkDir(d.root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			// A vanished or unreadable entry is not fatal; the detector
			// deals with files that disappear mid-run.
			if entry != nil && entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		name := entry.Name()
		if entry.IsDir() {
			if path == d.root {
				return nil
			}
			if strings.HasPrefix(name, ".") || d.excluded(name) {
				return filepath.SkipDir
			}
			return nil
		}
		if !entry.Type().IsRegular() {
			return nil
		}
		if skipFile(name) {
			return nil
		}
		rel, err := filepath.Rel(d.root, path)
		if err != nil {
			return nil
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

func (d *FSDiscovery) excluded(dirName string) bool {
	for _, e := range d.excludes {
		if dirName == e {
			return true
		}
	}
	return false
}

func skipFile(name string) bool {
	if strings.HasPrefix(name, ".") && !strings.HasPrefix(name, ".env") {
		return true
	}
	ext := strings.ToLower(filepath.Ext(name))
	if binaryExtensions[ext] {
		return true
	}
	return strings.HasSuffix(name, ".min.js") || strings.HasSuffix(name, ".min.css")
}
