// Package snapshot persists a model as a zstd-compressed JSON file so a
// long run can be resumed later. The simulation is deterministic given its
// seed, so a snapshot stores the run's recipe (params, resolved seed,
// rounds played) and restoring replays it; the captured state payload is
// included for inspection without replaying.
package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"github.com/talgya/landlease/internal/engine"
)

// Version is the current snapshot format version.
const Version = 1

// Header identifies a snapshot file.
type Header struct {
	Version int `json:"version"`
	Round   int `json:"round"`
}

// SnapshotV1 is the on-disk snapshot format.
type SnapshotV1 struct {
	Header Header        `json:"header"`
	Params engine.Params `json:"params"`
	Seed   int64         `json:"seed"`
	Rounds int           `json:"rounds"`

	// State is the end-of-run payload for inspection; Restore does not
	// read it.
	State engine.State `json:"state"`
}

// Capture builds a snapshot of a model's current state.
func Capture(m *engine.Model) SnapshotV1 {
	return SnapshotV1{
		Header: Header{Version: Version, Round: m.Round},
		Params: m.Params,
		Seed:   m.Seed,
		Rounds: m.Round,
		State:  m.State(),
	}
}

// Save writes a snapshot atomically: temp file in the target directory,
// then rename.
func Save(path string, snap SnapshotV1) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("snapshot dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".snapshot-*")
	if err != nil {
		return fmt.Errorf("snapshot temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	enc, err := zstd.NewWriter(tmp)
	if err != nil {
		tmp.Close()
		return fmt.Errorf("zstd writer: %w", err)
	}
	if err := json.NewEncoder(enc).Encode(snap); err != nil {
		enc.Close()
		tmp.Close()
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := enc.Close(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), path)
}

// Load reads a snapshot file.
func Load(path string) (SnapshotV1, error) {
	var snap SnapshotV1

	f, err := os.Open(path)
	if err != nil {
		return snap, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, fmt.Errorf("zstd reader: %w", err)
	}
	defer dec.Close()

	if err := json.NewDecoder(dec).Decode(&snap); err != nil {
		return snap, fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.Header.Version != Version {
		return snap, fmt.Errorf("unsupported snapshot version %d", snap.Header.Version)
	}
	return snap, nil
}

// Restore rebuilds a live model from a snapshot by replaying the recorded
// number of rounds with the recorded seed.
func Restore(snap SnapshotV1) (*engine.Model, error) {
	m, err := engine.NewModel(snap.Params.WithSeed(snap.Seed))
	if err != nil {
		return nil, fmt.Errorf("restore snapshot: %w", err)
	}
	m.StepN(snap.Rounds)
	return m, nil
}
