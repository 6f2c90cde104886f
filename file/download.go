package file

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/filemesh/node/cipher"
	"github.com/filemesh/node/transport"
)

// Download reassembles basename into outPath by fetching its parts from
// whichever currently known peers still hold them. If decrypt is true
// the persisted per-file key is loaded and applied to each part before
// it is appended.
//
// A partial recovery — some part held by no currently reachable peer —
// is a failure: outPath is not created and ErrPartial is returned. Every
// temporary part file is removed before Download returns, regardless of
// outcome.
func (l *Layer) Download(basename, outPath string, decrypt bool) error {
	outPath = os.ExpandEnv(outPath)

	parts, ok := l.table.Get(basename)
	if !ok {
		return fmt.Errorf("file: download %s: %w", basename, ErrNotFound)
	}

	var key cipher.Key
	if decrypt {
		raw, err := os.ReadFile(l.keyPath(basename))
		if err != nil {
			return fmt.Errorf("file: load key for %s: %w", basename, ErrNotFound)
		}
		if len(raw) != cipher.KeySize {
			return fmt.Errorf("file: key for %s has wrong size", basename)
		}
		copy(key[:], raw)
	}

	tmpDir, err := os.MkdirTemp(l.dataDir, "dl-"+uuid.NewString()+"-*")
	if err != nil {
		return fmt.Errorf("file: download %s: %w", basename, err)
	}
	defer os.RemoveAll(tmpDir)

	digests := uniqueOrdered(parts)
	found := make(map[string]string, len(digests))

	for _, p := range l.registry.Snapshot() {
		if len(found) == len(digests) {
			break
		}
		for _, digest := range digests {
			if _, ok := found[digest]; ok {
				continue
			}
			dst := filepath.Join(tmpDir, digest)
			ok, err := transport.SendDataGet(p, digest, dst)
			if err != nil {
				l.logger.Printf("file: fetching part %s from %s: %v", digest, p, err)
				continue
			}
			if ok {
				found[digest] = dst
			}
		}
	}

	if len(found) < len(digests) {
		l.logger.Printf("file: unable to find all file parts for %s (%d/%d)", basename, len(found), len(digests))
		return fmt.Errorf("file: download %s: %w", basename, ErrPartial)
	}

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("file: create %s: %w", outPath, err)
	}
	defer out.Close()

	for _, digest := range parts {
		data, err := os.ReadFile(found[digest])
		if err != nil {
			return fmt.Errorf("file: read recovered part %s: %w", digest, err)
		}
		if decrypt {
			data, err = cipher.Decrypt(key, data)
			if err != nil {
				return fmt.Errorf("file: decrypt part %s: %w", digest, err)
			}
		}
		if _, err := out.Write(data); err != nil {
			return fmt.Errorf("file: write %s: %w", outPath, err)
		}
	}
	return nil
}
