package graph

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"

	strataerrors "strata/internal/errors"
)

// Snapshot is a point-in-time copy of the graph's shape: enough to
// diff against a later index, small enough to keep many of them.
type Snapshot struct {
	ID        string         `json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	RunID     string         `json:"runId,omitempty"`
	Nodes     []SnapshotNode `json:"nodes"`
	Edges     []SnapshotEdge `json:"edges"`
}

// SnapshotNode records the identity of one symbol
type SnapshotNode struct {
	ID            string `json:"id"`
	QualifiedName string `json:"qualifiedName"`
	Kind          string `json:"kind"`
	FilePath      string `json:"filePath"`
}

// SnapshotEdge records one resolved edge
type SnapshotEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Kind   string `json:"kind"`
}

// Capture snapshots the view. Nodes and edges come out sorted, so the
// same graph always serializes to the same bytes apart from ID and
// timestamp.
func Capture(v *View, runID string) *Snapshot {
	snap := &Snapshot{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		RunID:     runID,
	}
	for _, s := range v.Symbols {
		snap.Nodes = append(snap.Nodes, SnapshotNode{
			ID:            s.ID,
			QualifiedName: s.QualifiedName,
			Kind:          s.Kind,
			FilePath:      s.FilePath,
		})
	}
	for i := range v.Out {
		for _, j := range v.Out[i] {
			snap.Edges = append(snap.Edges, SnapshotEdge{Source: v.ID(i), Target: v.ID(j)})
		}
	}
	sort.Slice(snap.Edges, func(a, b int) bool {
		if snap.Edges[a].Source != snap.Edges[b].Source {
			return snap.Edges[a].Source < snap.Edges[b].Source
		}
		return snap.Edges[a].Target < snap.Edges[b].Target
	})
	return snap
}

// Save writes the snapshot as zstd-compressed JSON
func (s *Snapshot) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return strataerrors.Wrap(strataerrors.Internal, "failed to create snapshot directory", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return strataerrors.Wrap(strataerrors.Internal, "failed to create snapshot file", err)
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f)
	if err != nil {
		return strataerrors.Wrap(strataerrors.Internal, "failed to init compressor", err)
	}
	if err := json.NewEncoder(enc).Encode(s); err != nil {
		enc.Close()
		return strataerrors.Wrap(strataerrors.Internal, "failed to encode snapshot", err)
	}
	if err := enc.Close(); err != nil {
		return strataerrors.Wrap(strataerrors.Internal, "failed to flush snapshot", err)
	}
	return f.Close()
}

// LoadSnapshot reads a snapshot written by Save
func LoadSnapshot(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, strataerrors.Wrap(strataerrors.FileNotFound, "failed to open snapshot", err)
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, strataerrors.Wrap(strataerrors.Internal, "failed to init decompressor", err)
	}
	defer dec.Close()

	var snap Snapshot
	if err := json.NewDecoder(dec).Decode(&snap); err != nil {
		return nil, strataerrors.Wrap(strataerrors.Internal, "failed to decode snapshot", err)
	}
	return &snap, nil
}
