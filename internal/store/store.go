package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/danbauman77/reginfo-monitor/internal/types"
)

// timestampLayout keeps lexicographic order chronological within a
// publication, down to nanoseconds; the publication ID precedes the
// timestamp in the filename, so across publications the newer pubID
// sorts first. Saves within the same nanosecond land on the same name
// and overwrite, which is the deterministic tie-break for retention.
const timestampLayout = "20060102T150405.000000000Z"

// Store persists one snapshot file per save under <dir>/<rin>/, keeping
// at most `keep` files per RIN. It assumes a single writer per RIN per
// run; overlapping runs against the same directory are the caller's
// problem.
type Store struct {
	dir    string
	keep   int
	logger *zap.Logger
}

// New creates a snapshot store rooted at dir.
func New(dir string, keep int, logger *zap.Logger) *Store {
	if keep < 1 {
		keep = 1
	}
	return &Store{
		dir:    dir,
		keep:   keep,
		logger: logger,
	}
}

// Load returns the current snapshot for a RIN. A RIN that has never been
// saved returns (nil, false, nil): absence is an expected state, not an
// error. Unreadable or corrupt data is a *types.StorageError.
func (s *Store) Load(rin string) (*types.Snapshot, bool, error) {
	files, err := s.snapshotFiles(rin)
	if err != nil {
		return nil, false, &types.StorageError{RIN: rin, Op: "load", Err: err}
	}
	if len(files) == 0 {
		return nil, false, nil
	}

	data, err := os.ReadFile(files[0])
	if err != nil {
		return nil, false, &types.StorageError{RIN: rin, Op: "load", Err: err}
	}

	var snap types.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, false, &types.StorageError{RIN: rin, Op: "load",
			Err: fmt.Errorf("corrupt snapshot %s: %w", filepath.Base(files[0]), err)}
	}

	return &snap, true, nil
}

// Save writes a new current snapshot and then prunes history beyond the
// retention count. The prune runs strictly after the new file is durably
// in place, so an interrupted save can leave an extra old file but never
// lose the current snapshot.
func (s *Store) Save(rin string, record *types.Record, fetchedAt time.Time) error {
	rinDir := filepath.Join(s.dir, rin)
	if err := os.MkdirAll(rinDir, 0755); err != nil {
		return &types.StorageError{RIN: rin, Op: "save", Err: err}
	}

	snap := types.Snapshot{
		Record:    *record.Clone(),
		FetchedAt: fetchedAt,
	}
	data, err := json.MarshalIndent(&snap, "", "  ")
	if err != nil {
		return &types.StorageError{RIN: rin, Op: "save", Err: err}
	}

	name := fmt.Sprintf("rin_%s_%s_%s.json",
		rin, record.PublicationID, fetchedAt.UTC().Format(timestampLayout))
	path := filepath.Join(rinDir, name)

	// Write to a temp file and rename so a partial write never becomes
	// the current snapshot.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return &types.StorageError{RIN: rin, Op: "save", Err: err}
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return &types.StorageError{RIN: rin, Op: "save", Err: err}
	}

	if err := s.prune(rin); err != nil {
		return err
	}
	return nil
}

// History returns the retained snapshot filenames for a RIN, newest first.
func (s *Store) History(rin string) ([]string, error) {
	files, err := s.snapshotFiles(rin)
	if err != nil {
		return nil, &types.StorageError{RIN: rin, Op: "load", Err: err}
	}
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = filepath.Base(f)
	}
	return names, nil
}

// prune deletes the oldest snapshot files beyond the retention count.
func (s *Store) prune(rin string) error {
	files, err := s.snapshotFiles(rin)
	if err != nil {
		return &types.StorageError{RIN: rin, Op: "prune", Err: err}
	}

	for _, stale := range files[min(s.keep, len(files)):] {
		if err := os.Remove(stale); err != nil {
			return &types.StorageError{RIN: rin, Op: "prune", Err: err}
		}
		s.logger.Debug("Pruned old snapshot",
			zap.String("rin", rin),
			zap.String("file", filepath.Base(stale)))
	}
	return nil
}

// snapshotFiles lists snapshot paths for a RIN, newest first. A missing
// RIN directory is not an error.
func (s *Store) snapshotFiles(rin string) ([]string, error) {
	rinDir := filepath.Join(s.dir, rin)
	entries, err := os.ReadDir(rinDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	prefix := fmt.Sprintf("rin_%s_", rin)
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, prefix) && strings.HasSuffix(name, ".json") {
			files = append(files, filepath.Join(rinDir, name))
		}
	}

	// Filenames embed the publication ID and then a UTC timestamp, so
	// reverse-lexicographic order is newest publication first, newest
	// save first within it.
	sort.Sort(sort.Reverse(sort.StringSlice(files)))
	return files, nil
}
