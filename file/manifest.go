// Package file implements the file layer (spec component C7): splitting
// a user file into fixed-size parts, replicating each part across
// randomly chosen peers, recording an ordered digest manifest per
// filename, and reassembling a file from whichever peers still hold its
// parts.
//
// Grounded on torrent/splitAndRessableFiles.go for the split/join shape
// and on warehouse/Store.go's write-to-temp-then-rename discipline,
// generalized here to a single-file JSON table instead of per-chunk
// files (see ManifestTable).
package file

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// manifestFileName is the hidden file inside the data directory holding
// the serialized ManifestTable, matching spec.md §6's example name.
const manifestFileName = ".filePartsLoader"

// ErrNotFound is returned when a basename has no manifest entry.
var ErrNotFound = errors.New("file: no manifest for basename")

// ErrPartial is returned by Download when not every part could be
// recovered from the currently known peers.
var ErrPartial = errors.New("file: could not recover all parts")

// ManifestTable maps a basename to the ordered list of chunk digests
// that reconstruct it. It is persisted as a single JSON object at
// <dataDir>/.filePartsLoader, written via a temporary file renamed over
// the target so a crash mid-write never leaves a corrupt table.
type ManifestTable struct {
	mu      sync.Mutex
	path    string
	entries map[string][]string
}

// LoadManifestTable reads the table from <dataDir>/.filePartsLoader. A
// missing file is treated as an empty table, matching a freshly created
// node with no uploads yet.
func LoadManifestTable(dataDir string) (*ManifestTable, error) {
	path := filepath.Join(dataDir, manifestFileName)
	t := &ManifestTable{path: path, entries: make(map[string][]string)}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return t, nil
	}
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return t, nil
	}
	if err := json.Unmarshal(data, &t.entries); err != nil {
		return nil, err
	}
	return t, nil
}

// Get returns the parts recorded for basename, if any.
func (t *ManifestTable) Get(basename string) (parts []string, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	parts, ok = t.entries[basename]
	return append([]string(nil), parts...), ok
}

// Set records parts for basename and persists the table before
// returning, so an upload is never reported complete ahead of its
// manifest entry reaching disk.
func (t *ManifestTable) Set(basename string, parts []string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[basename] = parts
	return t.persistLocked()
}

// Delete removes basename's entry, if present, and persists the table.
// Deleting an absent basename is not an error.
func (t *ManifestTable) Delete(basename string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.entries[basename]; !ok {
		return nil
	}
	delete(t.entries, basename)
	return t.persistLocked()
}

func (t *ManifestTable) persistLocked() error {
	data, err := json.Marshal(t.entries)
	if err != nil {
		return err
	}

	dir := filepath.Dir(t.path)
	tmp, err := os.CreateTemp(dir, "manifest-"+uuid.NewString()+"-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, t.path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// Len returns the number of basenames currently recorded.
func (t *ManifestTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// uniqueOrdered returns parts with duplicates removed, preserving the
// order of first occurrence.
func uniqueOrdered(parts []string) []string {
	seen := make(map[string]struct{}, len(parts))
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
