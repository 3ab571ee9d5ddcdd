// Package metrics computes structural complexity scores and folds
// externally supplied version-control numbers into hotspot, health and
// debt scores. It never reads version-control history itself.
package metrics

// VCSMetrics is the per-file record a version-control provider supplies
type VCSMetrics struct {
	Churn    float64 // Total lines touched across history
	CoChange float64 // Strength of co-change coupling with other files
	BlameAge float64 // Mean age of surviving lines, in days
	Entropy  float64 // Change-scatter entropy across commits
}

// VCSProvider supplies per-file version-control metrics. The provider
// is a collaborator: its numbers are merged verbatim, never derived.
type VCSProvider interface {
	FileMetrics(path string) (VCSMetrics, bool)
}

// NullProvider reports no metrics for any file. Used when no
// version-control data is available.
type NullProvider struct{}

// FileMetrics always reports absence
func (NullProvider) FileMetrics(string) (VCSMetrics, bool) {
	return VCSMetrics{}, false
}

// StaticProvider serves a fixed table, keyed by file path
type StaticProvider map[string]VCSMetrics

// FileMetrics looks the path up in the table
func (p StaticProvider) FileMetrics(path string) (VCSMetrics, bool) {
	m, ok := p[path]
	return m, ok
}
